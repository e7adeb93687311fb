package directory

// Space is a room or zone grouping devices for orchestration purposes.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Device represents a physical device known to the directory.
//
// Devices are owned by the external directory service; the core treats them
// as read-only and receives them via retained MQTT announcements.
type Device struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category DeviceCategory `json:"category"`
	SpaceID  *string        `json:"space_id,omitempty"`
	Online   bool           `json:"online"`

	// Platform identifies the backend adapter responsible for commanding
	// this device (see internal/platform).
	Platform string `json:"platform"`

	// Address holds platform-specific connection details as a JSON map.
	//
	// Examples:
	//
	//	HTTP: {"host": "192.168.1.40", "port": 80}
	//	MQTT: {"topic_id": "amp-01"}
	Address map[string]any `json:"address,omitempty"`

	Channels []Channel `json:"channels"`
}

// Channel is a functional unit of a device (a light output, a speaker zone,
// a thermostat). A channel belongs to exactly one device.
type Channel struct {
	ID         string          `json:"id"`
	Category   ChannelCategory `json:"category"`
	Properties []Property      `json:"properties"`
}

// Property is a single typed, addressable value on a channel.
type Property struct {
	ID         string           `json:"id"`
	Category   PropertyCategory `json:"category"`
	DataType   DataType         `json:"data_type"`
	Permission Permission       `json:"permission"`
	Format     *Format          `json:"format,omitempty"`
	Value      any              `json:"value"`
}

// Format constrains the values a property may take: either an enumerated
// value set or a numeric range (one or both bounds).
type Format struct {
	Enum []string `json:"enum,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// PropertyRef is a resolved property with its owning channel and device.
// Returned by Directory.ResolveProperty so event handling needs one lookup.
type PropertyRef struct {
	Device   *Device
	Channel  *Channel
	Property *Property
}

// DeviceCategory is the enumerated kind of a device.
type DeviceCategory string

// DeviceCategory constants.
const (
	DeviceLight          DeviceCategory = "light"
	DeviceSwitch         DeviceCategory = "switch"
	DeviceThermostat     DeviceCategory = "thermostat"
	DeviceAirConditioner DeviceCategory = "air_conditioner"
	DeviceFan            DeviceCategory = "fan"
	DeviceHumidifier     DeviceCategory = "humidifier"
	DeviceSpeaker        DeviceCategory = "speaker"
	DeviceTelevision     DeviceCategory = "television"
	DeviceWindowCovering DeviceCategory = "window_covering"
	DeviceSensor         DeviceCategory = "sensor"
	DeviceGeneric        DeviceCategory = "generic"
)

// ChannelCategory is the enumerated function of a channel.
type ChannelCategory string

// ChannelCategory constants.
const (
	ChannelLight      ChannelCategory = "light"
	ChannelThermostat ChannelCategory = "thermostat"
	ChannelFan        ChannelCategory = "fan"
	ChannelHumidifier ChannelCategory = "humidifier"
	ChannelCover      ChannelCategory = "cover"
	ChannelSpeaker    ChannelCategory = "speaker"
	ChannelTelevision ChannelCategory = "television"
	ChannelSensor     ChannelCategory = "sensor"
	ChannelGeneric    ChannelCategory = "generic"
)

// PropertyCategory is the semantic meaning of a property.
type PropertyCategory string

// PropertyCategory constants.
const (
	PropOn                PropertyCategory = "on"
	PropBrightness        PropertyCategory = "brightness"
	PropColorTemperature  PropertyCategory = "color_temperature" //nolint:misspell // wire name uses American spelling
	PropVolume            PropertyCategory = "volume"
	PropMute              PropertyCategory = "mute"
	PropInputSource       PropertyCategory = "input_source"
	PropPlaying           PropertyCategory = "playing"
	PropTemperature       PropertyCategory = "temperature"
	PropTargetTemperature PropertyCategory = "target_temperature"
	PropHVACMode          PropertyCategory = "hvac_mode"
	PropHumidity          PropertyCategory = "humidity"
	PropPosition          PropertyCategory = "position"
	PropTilt              PropertyCategory = "tilt"
	PropMotion            PropertyCategory = "motion"
	PropIlluminance       PropertyCategory = "illuminance"
	PropCO2               PropertyCategory = "co2"
	PropBattery           PropertyCategory = "battery"
	PropPower             PropertyCategory = "power"
	PropSpeed             PropertyCategory = "speed"
)

// Permission describes how a property may be accessed.
type Permission string

// Permission constants.
const (
	PermissionRead      Permission = "ro"
	PermissionWrite     Permission = "wo"
	PermissionReadWrite Permission = "rw"
	PermissionEvent     Permission = "ev"
)

// DataType is the declared value type of a property.
type DataType string

// DataType constants.
const (
	TypeBool   DataType = "bool"
	TypeInt    DataType = "int"
	TypeUint   DataType = "uint"
	TypeFloat  DataType = "float"
	TypeString DataType = "string"
	TypeEnum   DataType = "enum"
)

// Writable reports whether a property accepts writes.
func (p *Property) Writable() bool {
	return p.Permission == PermissionWrite || p.Permission == PermissionReadWrite
}

// Channel returns the channel with the given ID, or nil if absent.
func (d *Device) Channel(id string) *Channel {
	for i := range d.Channels {
		if d.Channels[i].ID == id {
			return &d.Channels[i]
		}
	}
	return nil
}

// Property returns the property with the given ID, or nil if absent.
func (c *Channel) Property(id string) *Property {
	for i := range c.Properties {
		if c.Properties[i].ID == id {
			return &c.Properties[i]
		}
	}
	return nil
}

// PropertyByCategory returns the first property with the given category,
// or nil if absent.
func (c *Channel) PropertyByCategory(cat PropertyCategory) *Property {
	for i := range c.Properties {
		if c.Properties[i].Category == cat {
			return &c.Properties[i]
		}
	}
	return nil
}

// DeepCopy creates a complete independent copy of the Device.
// All slice and map fields are cloned so modifications to the copy do not
// affect the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.SpaceID != nil {
		spaceID := *d.SpaceID
		cpy.SpaceID = &spaceID
	}

	cpy.Address = deepCopyMap(d.Address)

	if d.Channels != nil {
		cpy.Channels = make([]Channel, len(d.Channels))
		for i := range d.Channels {
			cpy.Channels[i] = *d.Channels[i].deepCopy()
		}
	}

	return &cpy
}

// deepCopy creates an independent copy of the Channel.
func (c *Channel) deepCopy() *Channel {
	cpy := *c
	if c.Properties != nil {
		cpy.Properties = make([]Property, len(c.Properties))
		for i := range c.Properties {
			cpy.Properties[i] = *c.Properties[i].deepCopy()
		}
	}
	return &cpy
}

// deepCopy creates an independent copy of the Property.
func (p *Property) deepCopy() *Property {
	cpy := *p
	if p.Format != nil {
		f := *p.Format
		if p.Format.Enum != nil {
			f.Enum = make([]string, len(p.Format.Enum))
			copy(f.Enum, p.Format.Enum)
		}
		if p.Format.Min != nil {
			v := *p.Format.Min
			f.Min = &v
		}
		if p.Format.Max != nil {
			v := *p.Format.Max
			f.Max = &v
		}
		cpy.Format = &f
	}
	cpy.Value = deepCopyValue(p.Value)
	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives are safe to copy by value.
		return v
	}
}
