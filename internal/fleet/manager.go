package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/device"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
)

// pathDevices is the cloud's paginated device-list endpoint.
const pathDevices = "/cloud/v2/deviceManaged/devices"

// Authenticator establishes cloud sessions. Satisfied by
// auth.Negotiator; tests substitute a stub.
type Authenticator interface {
	Login(ctx context.Context) (*cloud.Session, error)
}

// Manager owns the session and the device collection.
type Manager struct {
	client  *cloud.Client
	authn   Authenticator
	log     *logging.Logger
	metrics *Metrics
	events  *broadcaster

	interval time.Duration
	now      func() time.Time

	// mu guards the device collection. Device polls and commands run
	// under it, and those re-enter sessionAPI, so the session lives
	// behind its own lock below.
	mu          sync.Mutex
	devices     map[string]*device.Device
	lastRefresh time.Time

	sessMu  sync.RWMutex
	session *cloud.Session
}

// NewManager creates a fleet manager. interval is the Update throttle
// window; metrics may be nil when no registry is wired (tests).
func NewManager(client *cloud.Client, authn Authenticator, interval time.Duration, log *logging.Logger, metrics *Metrics) *Manager {
	return &Manager{
		client:   client,
		authn:    authn,
		log:      log,
		metrics:  metrics,
		events:   newBroadcaster(),
		interval: interval,
		now:      time.Now,
		devices:  make(map[string]*device.Device),
	}
}

// Login negotiates a session, replacing any previous one wholesale.
func (m *Manager) Login(ctx context.Context) error {
	sess, err := m.authn.Login(ctx)
	if err != nil {
		return err
	}

	m.sessMu.Lock()
	m.session = sess
	m.sessMu.Unlock()
	return nil
}

// Session returns the current session, or nil before login. Exposed
// for health reporting; the session value is replaced, never mutated.
func (m *Manager) Session() *cloud.Session {
	m.sessMu.RLock()
	defer m.sessMu.RUnlock()
	return m.session
}

// sessionAPI binds the manager's current session to the device.API
// surface. Commands issued through it always use the latest session,
// so a re-login mid-flight is picked up by the next call.
type sessionAPI struct {
	m *Manager
}

func (a sessionAPI) BypassV2(ctx context.Context, cid, configModule, method string, data map[string]any) (json.RawMessage, error) {
	sess := a.m.Session()
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	return a.m.client.BypassV2(ctx, sess, cid, configModule, method, data)
}

func (a sessionAPI) DeviceCall(ctx context.Context, path, method string, extra map[string]any) (json.RawMessage, error) {
	sess := a.m.Session()
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	return a.m.client.DeviceCall(ctx, sess, path, method, extra)
}

// RefreshDevices pulls the cloud device list and reconciles the local
// collection against it.
func (m *Manager) RefreshDevices(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	sess := m.Session()
	if sess == nil {
		return ErrNotLoggedIn
	}

	raw, err := m.client.DeviceCall(ctx, sess, pathDevices, "devices", map[string]any{
		"pageNo":   "1",
		"pageSize": "100",
	})
	if err != nil {
		m.countRefresh("error")
		return fmt.Errorf("fleet: listing devices: %w", err)
	}

	var resp struct {
		Total int             `json:"total"`
		List  []device.Record `json:"list"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		m.countRefresh("error")
		return fmt.Errorf("fleet: decoding device list: %w", err)
	}

	incoming := make(map[string]device.Record, len(resp.List))
	for _, rec := range resp.List {
		id := rec.StableID()
		if id == "" {
			m.log.Warn("dropping device record with no stable id",
				"device_type", rec.DeviceType,
				"device_name", rec.DeviceName)
			if m.metrics != nil {
				m.metrics.droppedRecords.Inc()
			}
			continue
		}
		incoming[id] = rec
	}

	// Add devices first seen in this list.
	for id, rec := range incoming {
		if _, known := m.devices[id]; known {
			continue
		}
		variant, err := device.Resolve(rec.DeviceType)
		if err != nil {
			if errors.Is(err, device.ErrUnrecognizedDevice) {
				m.log.Warn("skipping unrecognised device",
					"device_type", rec.DeviceType,
					"device_name", rec.DeviceName)
				if m.metrics != nil {
					m.metrics.unrecognised.Inc()
				}
				continue
			}
			m.countRefresh("error")
			return err
		}

		d := device.New(rec, variant, sessionAPI{m: m})
		m.devices[id] = d
		m.log.Info("device added",
			"id", id,
			"device_type", rec.DeviceType,
			"class", variant.Class)
		m.events.publish(Event{Type: EventDeviceAdded, DeviceID: id, Snapshot: d.Snapshot()})
	}

	// Remove devices absent from the latest list.
	for id := range m.devices {
		if _, present := incoming[id]; present {
			continue
		}
		delete(m.devices, id)
		m.log.Info("device removed", "id", id)
		m.events.publish(Event{Type: EventDeviceRemoved, DeviceID: id})
	}

	m.lastRefresh = m.now()
	m.countRefresh("success")
	if m.metrics != nil {
		m.metrics.devices.Set(float64(len(m.devices)))
	}
	return nil
}

func (m *Manager) countRefresh(result string) {
	if m.metrics != nil {
		m.metrics.refreshes.WithLabelValues(result).Inc()
	}
}

// Update refreshes the device list and polls every device, one at a
// time. It is a no-op while the configured interval has not elapsed
// since the last successful refresh; the throttle is client-side and
// measured from wall-clock time.
func (m *Manager) Update(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastRefresh.IsZero() && m.now().Sub(m.lastRefresh) < m.interval {
		return nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		return err
	}

	// Sequential polls: one shared rate limit, no parallel commands.
	for _, id := range m.sortedIDsLocked() {
		d := m.devices[id]
		if err := d.Update(ctx); err != nil {
			m.log.Warn("device poll failed", "id", id, "error", err)
			if m.metrics != nil {
				m.metrics.polls.WithLabelValues("error").Inc()
			}
			continue
		}
		if m.metrics != nil {
			m.metrics.polls.WithLabelValues("success").Inc()
		}
		m.events.publish(Event{Type: EventStateUpdated, DeviceID: id, Snapshot: d.Snapshot()})
	}
	return nil
}

func (m *Manager) sortedIDsLocked() []string {
	ids := make([]string, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Devices returns snapshots of the collection, ordered by id.
func (m *Manager) Devices() []device.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]device.Snapshot, 0, len(m.devices))
	for _, id := range m.sortedIDsLocked() {
		out = append(out, m.devices[id].Snapshot())
	}
	return out
}

// Snapshot returns one device's snapshot.
func (m *Manager) Snapshot(id string) (device.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return device.Snapshot{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.Snapshot(), nil
}

// WithDevice runs fn against one device under the manager's lock,
// serialising it against refreshes, polls and other commands.
func (m *Manager) WithDevice(id string, fn func(*device.Device) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return fn(d)
}

// PollDevice forces one device poll outside the Update cycle and
// publishes the refreshed state.
func (m *Manager) PollDevice(ctx context.Context, id string) (device.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return device.Snapshot{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err := d.Update(ctx); err != nil {
		return device.Snapshot{}, err
	}

	snap := d.Snapshot()
	m.events.publish(Event{Type: EventStateUpdated, DeviceID: id, Snapshot: snap})
	return snap, nil
}

// WaitForState polls one device until cond accepts its snapshot,
// sleeping interval between attempts. The cloud is eventually
// consistent after a command acknowledgement, so a bounded number of
// unconverged polls is expected; exhausting attempts returns
// ErrStaleData, which is a reportable outcome rather than a transport
// failure.
func (m *Manager) WaitForState(ctx context.Context, id string, attempts int, interval time.Duration, cond func(device.Snapshot) bool) error {
	for i := 0; i < attempts; i++ {
		snap, err := m.PollDevice(ctx, id)
		if err != nil {
			return err
		}
		if cond(snap) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", ErrStaleData, id, attempts)
}

// Subscribe registers an event consumer. The returned func must be
// called to release the subscription.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.events.subscribe()
}

// Stats summarises the fleet for the local API.
type Stats struct {
	Devices     int                     `json:"devices"`
	ByCategory  map[device.Category]int `json:"by_category"`
	LastRefresh time.Time               `json:"last_refresh"`
	Region      string                  `json:"region,omitempty"`
}

// Stats returns the current fleet summary.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Devices:     len(m.devices),
		ByCategory:  make(map[device.Category]int),
		LastRefresh: m.lastRefresh,
	}
	for _, d := range m.devices {
		s.ByCategory[d.Category()]++
	}
	if sess := m.Session(); sess != nil {
		s.Region = sess.Region
	}
	return s
}
