package fleet

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the fleet-level prometheus collectors, registered once
// at construction.
type Metrics struct {
	devices        prometheus.Gauge
	refreshes      *prometheus.CounterVec
	polls          *prometheus.CounterVec
	unrecognised   prometheus.Counter
	droppedRecords prometheus.Counter
}

// NewMetrics creates and registers the fleet collectors. A nil
// registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vesync_fleet_devices",
			Help: "Devices currently in the fleet collection",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vesync_fleet_refreshes_total",
			Help: "Device-list refreshes by result",
		}, []string{"result"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vesync_fleet_polls_total",
			Help: "Per-device telemetry polls by result",
		}, []string{"result"}),
		unrecognised: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vesync_fleet_unrecognised_devices_total",
			Help: "Device-list records skipped because the device type resolved to no variant",
		}),
		droppedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vesync_fleet_dropped_records_total",
			Help: "Device-list records dropped for lacking any stable identifier",
		}),
	}

	reg.MustRegister(m.devices, m.refreshes, m.polls, m.unrecognised, m.droppedRecords)
	return m
}
