package mqtt

import "fmt"

// Topic prefixes. All topics live under a single vesync/ root so that
// consumers can subscribe with one wildcard.
const (
	// TopicPrefix is the base for all topics.
	TopicPrefix = "vesync"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "vesync/system"
)

// Topics provides builders for the MQTT topic hierarchy.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("purifiers", "cid-1234")
//	// Returns: "vesync/state/purifiers/cid-1234"
type Topics struct{}

// DeviceState returns the retained state topic for one device.
//
// Example: vesync/state/humidifiers/cid-1234
func (Topics) DeviceState(category, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, category, deviceID)
}

// DeviceRemoved returns the topic announcing a device left the fleet.
//
// Example: vesync/removed/cid-1234
func (Topics) DeviceRemoved(deviceID string) string {
	return fmt.Sprintf("%s/removed/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the system status topic. Carries the LWT.
//
// Example: vesync/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: vesync/state/+/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}
