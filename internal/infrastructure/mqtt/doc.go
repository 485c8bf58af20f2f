// Package mqtt publishes device telemetry to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained state publishing per device
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The publisher is egress-only. Fleet events are republished as retained
// JSON snapshots so that home-automation consumers (Home Assistant,
// Node-RED, custom dashboards) can mirror device state without touching
// the vendor cloud themselves.
//
//	fleet.Manager → mqtt.Publisher → Broker → consumers
//
// Commands flow through the local REST API, not through MQTT; the
// broker never talks back to this process.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pub := mqtt.NewPublisher(client, byte(cfg.MQTT.QoS), logger)
//	events, cancel := manager.Subscribe()
//	defer cancel()
//	go pub.Run(ctx, events)
package mqtt
