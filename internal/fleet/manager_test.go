package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/device"
	"github.com/nerrad567/vesync-core/internal/infrastructure/config"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
)

// scriptedTransport routes requests to a handler and counts calls.
type scriptedTransport struct {
	calls   []string
	handler func(url string, body map[string]any) (string, error)
}

func (s *scriptedTransport) CallAPI(_ context.Context, url, _ string, body any, _ http.Header) (json.RawMessage, int, error) {
	var decoded map[string]any
	if body != nil {
		data, _ := json.Marshal(body)
		_ = json.Unmarshal(data, &decoded)
	}
	s.calls = append(s.calls, url)

	resp, err := s.handler(url, decoded)
	if err != nil {
		return nil, 0, err
	}
	return json.RawMessage(resp), http.StatusOK, nil
}

type stubAuth struct {
	sess *cloud.Session
	err  error
}

func (s stubAuth) Login(context.Context) (*cloud.Session, error) {
	return s.sess, s.err
}

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test", true)
}

// deviceList renders a device-list response from records.
func deviceList(records ...map[string]any) string {
	data, _ := json.Marshal(map[string]any{
		"code": 0,
		"msg":  "ok",
		"result": map[string]any{
			"total": len(records),
			"list":  records,
		},
	})
	return string(data)
}

func record(cid, deviceType string) map[string]any {
	return map[string]any{
		"cid":          cid,
		"uuid":         "uuid-" + cid,
		"deviceType":   deviceType,
		"deviceName":   "name-" + cid,
		"deviceStatus": "on",
		"configModule": "cm",
	}
}

const purifierStatus = `{"code":0,"msg":"ok","result":{"code":0,"msg":"ok","result":{"enabled":true,"mode":"manual","level":1,"filter_life":90,"display":true}}}`

func newTestManager(t *testing.T, st *scriptedTransport, interval time.Duration) *Manager {
	t.Helper()
	client := cloud.NewClient(cloud.Config{Timezone: "America/New_York"}, st)
	m := NewManager(client, stubAuth{sess: &cloud.Session{
		Token:       "tok",
		AccountID:   "acct",
		CountryCode: "US",
		Region:      "US",
	}}, interval, quietLogger(), nil)
	if err := m.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return m
}

func TestRefreshReconciliation(t *testing.T) {
	lists := []string{
		deviceList(record("cid-1", "Core300S"), record("cid-2", "Classic300S")),
		deviceList(record("cid-2", "Classic300S"), record("cid-3", "ESW15-USA")),
	}
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		if !strings.Contains(url, pathDevices) {
			return "", errors.New("unexpected url")
		}
		resp := lists[0]
		if len(lists) > 1 {
			lists = lists[1:]
		}
		return resp, nil
	}
	m := newTestManager(t, st, time.Minute)

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("first RefreshDevices() error = %v", err)
	}
	if got := len(m.Devices()); got != 2 {
		t.Fatalf("devices after list A = %d, want 2", got)
	}

	// Mark cid-2 so we can tell it is not re-instantiated by list B.
	if err := m.WithDevice("cid-2", func(d *device.Device) error {
		d.Details.MistLevel = 7
		return nil
	}); err != nil {
		t.Fatalf("WithDevice() error = %v", err)
	}

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("second RefreshDevices() error = %v", err)
	}

	snaps := m.Devices()
	if len(snaps) != 2 {
		t.Fatalf("devices after list B = %d, want 2", len(snaps))
	}
	if _, err := m.Snapshot("cid-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("cid-1 should be removed, got err = %v", err)
	}
	snap, err := m.Snapshot("cid-2")
	if err != nil {
		t.Fatalf("Snapshot(cid-2) error = %v", err)
	}
	if snap.Details.MistLevel != 7 {
		t.Error("cid-2 was re-instantiated instead of kept")
	}
	if _, err := m.Snapshot("cid-3"); err != nil {
		t.Errorf("cid-3 should be added, got err = %v", err)
	}
}

func TestRefreshDropsRecordsWithoutID(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return deviceList(
			map[string]any{"deviceType": "Core300S", "deviceName": "no ids at all"},
			record("cid-1", "Core300S"),
		), nil
	}}
	m := newTestManager(t, st, time.Minute)

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}
	if got := len(m.Devices()); got != 1 {
		t.Errorf("devices = %d, want the id-less record dropped", got)
	}
}

func TestRefreshFallsBackToMacID(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return deviceList(map[string]any{
			"macID":        "aa:bb:cc",
			"deviceType":   "Core300S",
			"deviceName":   "mac only",
			"deviceStatus": "on",
		}), nil
	}}
	m := newTestManager(t, st, time.Minute)

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}
	if _, err := m.Snapshot("aa:bb:cc"); err != nil {
		t.Errorf("device should be keyed by macID, got err = %v", err)
	}
}

func TestRefreshSkipsUnrecognisedDevice(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return deviceList(
			record("cid-x", "TOASTER-9000"),
			record("cid-1", "Core300S"),
		), nil
	}}
	m := newTestManager(t, st, time.Minute)

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v, unknown hardware must not be fatal", err)
	}
	if got := len(m.Devices()); got != 1 {
		t.Errorf("devices = %d, want unrecognised record skipped", got)
	}
}

func TestRefreshRequiresLogin(t *testing.T) {
	client := cloud.NewClient(cloud.Config{}, &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return "", errors.New("should not be called")
	}})
	m := NewManager(client, stubAuth{err: errors.New("nope")}, time.Minute, quietLogger(), nil)

	if err := m.RefreshDevices(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("RefreshDevices() error = %v, want ErrNotLoggedIn", err)
	}
}

func TestUpdateThrottle(t *testing.T) {
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		if strings.Contains(url, pathDevices) {
			return deviceList(record("cid-1", "Core300S")), nil
		}
		return purifierStatus, nil
	}
	m := newTestManager(t, st, 30*time.Second)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}
	after := len(st.calls)
	if after == 0 {
		t.Fatal("first Update() should hit the transport")
	}

	// Within the interval: no-op, no transport traffic.
	m.now = func() time.Time { return base.Add(10 * time.Second) }
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("throttled Update() error = %v", err)
	}
	if len(st.calls) != after {
		t.Errorf("throttled Update() made %d extra calls", len(st.calls)-after)
	}

	// Past the interval: refresh and poll again.
	m.now = func() time.Time { return base.Add(31 * time.Second) }
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if len(st.calls) == after {
		t.Error("Update() past the interval should hit the transport")
	}
}

func TestUpdatePollFailureDoesNotAbortFleet(t *testing.T) {
	st := &scriptedTransport{}
	st.handler = func(url string, body map[string]any) (string, error) {
		if strings.Contains(url, pathDevices) {
			return deviceList(record("cid-a", "Core300S"), record("cid-b", "Core300S")), nil
		}
		// cid-a's poll fails; cid-b's succeeds.
		if body["cid"] == "cid-a" {
			return "", fmt.Errorf("%w: connection reset", cloud.ErrTransport)
		}
		return purifierStatus, nil
	}
	m := newTestManager(t, st, time.Nanosecond)

	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v, one device's failure must not abort", err)
	}

	snap, err := m.Snapshot("cid-b")
	if err != nil {
		t.Fatalf("Snapshot(cid-b) error = %v", err)
	}
	if snap.Details.FilterLife != 90 {
		t.Errorf("cid-b details = %+v, want polled state applied", snap.Details)
	}
}

func TestWithDeviceCommandReachesTransport(t *testing.T) {
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		if strings.Contains(url, pathDevices) {
			return deviceList(record("cid-1", "Core300S")), nil
		}
		return `{"code":0,"msg":"ok","result":{"code":0,"msg":"ok"}}`, nil
	}
	m := newTestManager(t, st, time.Minute)
	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}
	before := len(st.calls)

	// The command runs under the collection lock and reads the session
	// through sessionAPI from inside it.
	err := m.WithDevice("cid-1", func(d *device.Device) error {
		return d.TurnOff(context.Background())
	})
	if err != nil {
		t.Fatalf("WithDevice() error = %v", err)
	}
	if len(st.calls) != before+1 {
		t.Errorf("transport calls = %d, want the command issued", len(st.calls)-before)
	}

	snap, err := m.Snapshot("cid-1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Status != "off" {
		t.Errorf("status = %q, want command applied", snap.Status)
	}
}

func TestWaitForStateConvergence(t *testing.T) {
	polls := 0
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		if strings.Contains(url, pathDevices) {
			return deviceList(record("cid-1", "Core300S")), nil
		}
		polls++
		// The cloud reports the stale pre-command speed twice before
		// converging.
		level := 1
		if polls > 2 {
			level = 3
		}
		return fmt.Sprintf(`{"code":0,"msg":"ok","result":{"code":0,"msg":"ok","result":{"enabled":true,"mode":"manual","level":%d}}}`, level), nil
	}
	m := newTestManager(t, st, time.Minute)
	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}

	err := m.WaitForState(context.Background(), "cid-1", 5, time.Millisecond, func(s device.Snapshot) bool {
		return s.Details.Speed == 3
	})
	if err != nil {
		t.Errorf("WaitForState() error = %v, want convergence", err)
	}
}

func TestWaitForStateStaleData(t *testing.T) {
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		if strings.Contains(url, pathDevices) {
			return deviceList(record("cid-1", "Core300S")), nil
		}
		return purifierStatus, nil
	}
	m := newTestManager(t, st, time.Minute)
	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}

	err := m.WaitForState(context.Background(), "cid-1", 3, time.Millisecond, func(s device.Snapshot) bool {
		return s.Details.Speed == 4
	})
	if !errors.Is(err, ErrStaleData) {
		t.Errorf("WaitForState() error = %v, want ErrStaleData", err)
	}
	if errors.Is(err, cloud.ErrTransport) {
		t.Error("stale data must not be conflated with a transport failure")
	}
}

func TestSubscribeReceivesFleetEvents(t *testing.T) {
	st := &scriptedTransport{handler: func(url string, _ map[string]any) (string, error) {
		return deviceList(record("cid-1", "Core300S")), nil
	}}
	m := newTestManager(t, st, time.Minute)

	ch, cancel := m.Subscribe()
	defer cancel()

	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != EventDeviceAdded || ev.DeviceID != "cid-1" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestStats(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return deviceList(
			record("cid-1", "Core300S"),
			record("cid-2", "Classic300S"),
			record("cid-3", "ESW15-USA"),
		), nil
	}}
	m := newTestManager(t, st, time.Minute)
	if err := m.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}

	s := m.Stats()
	if s.Devices != 3 || s.ByCategory[device.CategoryFans] != 2 || s.ByCategory[device.CategoryOutlets] != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.Region != "US" {
		t.Errorf("region = %q", s.Region)
	}
	if s.LastRefresh.IsZero() {
		t.Error("last refresh should be set")
	}
}
