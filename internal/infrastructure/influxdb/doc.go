// Package influxdb records device telemetry as time-series data.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, snapshot writing and health monitoring.
//
// # Purpose
//
// Polled device state becomes historical data here: air quality and
// filter life for purifiers, humidity readings, energy and power draw
// for metering outlets. The REST API serves current state only; trends
// live in the bucket.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	rec := influxdb.NewRecorder(client)
//	events, cancel := manager.Subscribe()
//	defer cancel()
//	go rec.Run(ctx, events)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb
