package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vesync-core/internal/device"
)

// decodeBody decodes the request body into v, writing a 400 on failure.
// Returns false when the handler should stop.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// command runs a device operation under the fleet lock and writes the
// resulting snapshot, or the mapped domain error.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(*device.Device) error) {
	id := chi.URLParam(r, "id")
	err := s.fleet.WithDevice(id, fn)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := s.fleet.Snapshot(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleListDevices returns snapshots of every device in the fleet.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.fleet.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device snapshot.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.fleet.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handlePollDevice forces a fresh telemetry poll of one device.
func (s *Server) handlePollDevice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.fleet.PollDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleFleetStats returns the fleet summary.
func (s *Server) handleFleetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.fleet.Stats())
}

// handleRefresh reconciles the local collection against the cloud list.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.fleet.RefreshDevices(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fleet.Stats())
}

// handleUpdate runs a full (throttled) refresh-and-poll cycle.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.fleet.Update(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.fleet.Stats())
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		if req.On {
			return d.TurnOn(r.Context())
		}
		return d.TurnOff(r.Context())
	})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetMode(r.Context(), device.Mode(req.Mode))
	})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.ChangeFanSpeed(r.Context(), req.Level)
	})
}

func (s *Server) handleSetMist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetMistLevel(r.Context(), req.Level)
	})
}

func (s *Server) handleSetWarm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetWarmLevel(r.Context(), req.Level)
	})
}

func (s *Server) handleSetHumidity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target int `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetHumidity(r.Context(), req.Target)
	})
}

func (s *Server) handleSetDisplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetDisplay(r.Context(), req.On)
	})
}

func (s *Server) handleSetChildLock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetChildLock(r.Context(), req.On)
	})
}

func (s *Server) handleSetTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hours int `json:"hours"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetTimer(r.Context(), req.Hours)
	})
}

func (s *Server) handleClearTimer(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(d *device.Device) error {
		return d.ClearTimer(r.Context())
	})
}

func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetBrightness(r.Context(), req.Level)
	})
}

func (s *Server) handleSetColorTemp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percent int `json:"percent"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetColorTemp(r.Context(), req.Percent)
	})
}

func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Red   int `json:"red"`
		Green int `json:"green"`
		Blue  int `json:"blue"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetColorRGB(r.Context(), req.Red, req.Green, req.Blue)
	})
}

func (s *Server) handleSetNightLight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brightness int `json:"brightness"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetNightLightBrightness(r.Context(), req.Brightness)
	})
}

func (s *Server) handleSetLightDetection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetLightDetection(r.Context(), req.On)
	})
}

func (s *Server) handleSetAutoPreference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preference string `json:"preference"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(d *device.Device) error {
		return d.SetAutoPreference(r.Context(), req.Preference)
	})
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(d *device.Device) error {
		return d.ResetFilter(r.Context())
	})
}
