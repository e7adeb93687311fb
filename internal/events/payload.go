package events

// Shared payload keys. Producers and consumers agree on these so event
// payloads stay a flat, snake-cased map.
const (
	PayloadPropertyID = "property_id"
	PayloadCategory   = "category"
	PayloadDeviceID   = "device_id"
	PayloadSpaceID    = "space_id"
	PayloadState      = "state"
	PayloadValue      = "value"
)
