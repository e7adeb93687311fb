package mqtt

import "fmt"

// Topic prefixes for the Atrium MQTT namespace.
//
// Telemetry and directory topics are produced by the device directory and
// platform bridges; command and event topics are produced by the core.
const (
	// TopicPrefix is the base for all Atrium topics.
	TopicPrefix = "atrium"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "atrium/system"
)

// Topics provides builders for Atrium MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.PropertyState("amp-01", "main", "volume")
//	// Returns: "atrium/telemetry/amp-01/main/volume"
type Topics struct{}

// DeviceAnnounce returns the topic for directory device announcements.
// Announcements are retained JSON documents describing a device and its
// channels/properties.
//
// Example: atrium/directory/device/amp-01
func (Topics) DeviceAnnounce(deviceID string) string {
	return fmt.Sprintf("%s/directory/device/%s", TopicPrefix, deviceID)
}

// AllDeviceAnnounce returns the wildcard pattern matching every device
// announcement.
func (Topics) AllDeviceAnnounce() string {
	return TopicPrefix + "/directory/device/+"
}

// DeviceRemoved returns the topic for directory device removals.
//
// Example: atrium/directory/removed/amp-01
func (Topics) DeviceRemoved(deviceID string) string {
	return fmt.Sprintf("%s/directory/removed/%s", TopicPrefix, deviceID)
}

// AllDeviceRemoved returns the wildcard pattern matching every device removal.
func (Topics) AllDeviceRemoved() string {
	return TopicPrefix + "/directory/removed/+"
}

// PropertyState returns the topic for a single property value report.
//
// Example: atrium/telemetry/amp-01/main/volume
func (Topics) PropertyState(deviceID, channelID, propertyID string) string {
	return fmt.Sprintf("%s/telemetry/%s/%s/%s", TopicPrefix, deviceID, channelID, propertyID)
}

// AllPropertyState returns the wildcard pattern matching every property report.
func (Topics) AllPropertyState() string {
	return TopicPrefix + "/telemetry/+/+/+"
}

// DeviceCommand returns the topic for outbound commands to a device's bridge.
//
// Example: atrium/command/amp-01
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// Event returns the topic mirroring an in-process core event.
//
// Example: atrium/event/lighting_state_changed
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, kind)
}

// SystemStatus returns the core online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
