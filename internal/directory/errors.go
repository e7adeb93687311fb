package directory

import "errors"

// Domain errors for the directory package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, directory.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSpaceNotFound is returned when a space ID does not exist.
	ErrSpaceNotFound = errors.New("directory: space not found")

	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("directory: device not found")

	// ErrChannelNotFound is returned when a channel ID does not exist on a device.
	ErrChannelNotFound = errors.New("directory: channel not found")

	// ErrPropertyNotFound is returned when a property ID does not exist.
	ErrPropertyNotFound = errors.New("directory: property not found")

	// ErrNotWritable is returned when writing to a read-only or event-only property.
	ErrNotWritable = errors.New("directory: property not writable")

	// ErrInvalidValue is returned when a value does not match a property's
	// declared data type or format constraint.
	ErrInvalidValue = errors.New("directory: invalid value")
)
