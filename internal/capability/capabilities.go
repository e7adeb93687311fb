package capability

import (
	"github.com/atrium-home/atrium-core/internal/directory"
)

// Capability names. These appear in event kinds, API paths, role storage
// and mode profile config keys.
const (
	NameLighting = "lighting"
	NameClimate  = "climate"
	NameCovers   = "covers"
	NameMedia    = "media"
	NameSensor   = "sensor"
)

// Lighting aggregates light channels per space. Channel-scoped; brightness
// is the numeric level.
var Lighting = Descriptor{
	Name:              NameLighting,
	ChannelCategories: []directory.ChannelCategory{directory.ChannelLight},
	SignalProperties: []directory.PropertyCategory{
		directory.PropOn,
		directory.PropBrightness,
		directory.PropColorTemperature,
	},
	Roles:         []Role{RolePrimary, RoleAmbient, RoleAccent, RoleHidden, RoleOther},
	ChannelScoped: true,
	LevelProperty: directory.PropBrightness,
	InferRoles:    inferFirstPrimary(RoleAmbient),
}

// Climate aggregates thermostat, fan and humidifier devices. Device-scoped;
// the target temperature is the numeric level.
var Climate = Descriptor{
	Name: NameClimate,
	ChannelCategories: []directory.ChannelCategory{
		directory.ChannelThermostat,
		directory.ChannelFan,
		directory.ChannelHumidifier,
	},
	SignalProperties: []directory.PropertyCategory{
		directory.PropOn,
		directory.PropTemperature,
		directory.PropTargetTemperature,
		directory.PropHVACMode,
		directory.PropHumidity,
		directory.PropSpeed,
	},
	Roles:         []Role{RolePrimary, RoleVentilation, RoleHumidity, RoleHidden, RoleOther},
	ChannelScoped: false,
	LevelProperty: directory.PropTargetTemperature,
	InferRoles:    inferClimateRoles,
}

// Covers aggregates window covering channels. Channel-scoped; position is
// the numeric level.
var Covers = Descriptor{
	Name:              NameCovers,
	ChannelCategories: []directory.ChannelCategory{directory.ChannelCover},
	SignalProperties: []directory.PropertyCategory{
		directory.PropOn,
		directory.PropPosition,
		directory.PropTilt,
	},
	Roles:         []Role{RolePrimary, RoleAccent, RoleHidden, RoleOther},
	ChannelScoped: true,
	LevelProperty: directory.PropPosition,
	InferRoles:    inferFirstPrimary(RoleOther),
}

// Media aggregates speaker and television channels. Channel-scoped; volume
// is the numeric level.
var Media = Descriptor{
	Name: NameMedia,
	ChannelCategories: []directory.ChannelCategory{
		directory.ChannelSpeaker,
		directory.ChannelTelevision,
	},
	SignalProperties: []directory.PropertyCategory{
		directory.PropOn,
		directory.PropVolume,
		directory.PropMute,
		directory.PropPlaying,
		directory.PropInputSource,
	},
	Roles:         []Role{RolePrimary, RoleBackground, RoleHidden, RoleOther},
	ChannelScoped: true,
	LevelProperty: directory.PropVolume,
	InferRoles:    inferMediaRoles,
}

// Sensor aggregates sensor channels. Channel-scoped; no single numeric
// level, readings are summarised per property instead.
var Sensor = Descriptor{
	Name:              NameSensor,
	ChannelCategories: []directory.ChannelCategory{directory.ChannelSensor},
	SignalProperties: []directory.PropertyCategory{
		directory.PropMotion,
		directory.PropIlluminance,
		directory.PropTemperature,
		directory.PropHumidity,
		directory.PropCO2,
		directory.PropBattery,
		directory.PropPower,
	},
	Roles:         []Role{RolePrimary, RoleHidden, RoleOther},
	ChannelScoped: true,
	InferRoles:    inferFirstPrimary(RoleOther),
}

// All returns the capability descriptors in their canonical order.
func All() []*Descriptor {
	return []*Descriptor{&Lighting, &Climate, &Covers, &Media, &Sensor}
}

// ByName looks up a descriptor by capability name, or nil if unknown.
func ByName(name string) *Descriptor {
	for _, d := range All() {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// inferFirstPrimary builds the common inference rule: the first target gets
// the primary role, every other target gets the given fallback role.
func inferFirstPrimary(fallback Role) func([]Target) []Suggestion {
	return func(targets []Target) []Suggestion {
		suggestions := make([]Suggestion, 0, len(targets))
		for i, t := range targets {
			role, priority := fallback, PrioritySecondary
			if i == 0 {
				role, priority = RolePrimary, PriorityPrimary
			}
			suggestions = append(suggestions, Suggestion{
				DeviceID:  t.DeviceID,
				ChannelID: t.ChannelID,
				Role:      role,
				Priority:  priority,
			})
		}
		return suggestions
	}
}

// inferClimateRoles assigns primary to the first thermostat (falling back to
// the first target of any category), ventilation to fans, humidity to
// humidifiers, other to the rest.
func inferClimateRoles(targets []Target) []Suggestion {
	primaryIdx := -1
	for i, t := range targets {
		if t.ChannelCategory == directory.ChannelThermostat {
			primaryIdx = i
			break
		}
	}
	if primaryIdx < 0 && len(targets) > 0 {
		primaryIdx = 0
	}

	suggestions := make([]Suggestion, 0, len(targets))
	for i, t := range targets {
		role, priority := RoleOther, PrioritySecondary
		switch {
		case i == primaryIdx:
			role, priority = RolePrimary, PriorityPrimary
		case t.ChannelCategory == directory.ChannelFan:
			role = RoleVentilation
		case t.ChannelCategory == directory.ChannelHumidifier:
			role = RoleHumidity
		}
		suggestions = append(suggestions, Suggestion{
			DeviceID:  t.DeviceID,
			ChannelID: t.ChannelID,
			Role:      role,
			Priority:  priority,
		})
	}
	return suggestions
}

// inferMediaRoles assigns primary to the first target with volume control
// (falling back to the first target), background to the rest.
func inferMediaRoles(targets []Target) []Suggestion {
	primaryIdx := -1
	for i, t := range targets {
		if t.HasLevel {
			primaryIdx = i
			break
		}
	}
	if primaryIdx < 0 && len(targets) > 0 {
		primaryIdx = 0
	}

	suggestions := make([]Suggestion, 0, len(targets))
	for i, t := range targets {
		role, priority := RoleBackground, PrioritySecondary
		if i == primaryIdx {
			role, priority = RolePrimary, PriorityPrimary
		}
		suggestions = append(suggestions, Suggestion{
			DeviceID:  t.DeviceID,
			ChannelID: t.ChannelID,
			Role:      role,
			Priority:  priority,
		})
	}
	return suggestions
}
