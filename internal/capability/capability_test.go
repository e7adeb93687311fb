package capability

import (
	"testing"

	"github.com/atrium-home/atrium-core/internal/directory"
)

func TestByName(t *testing.T) {
	for _, want := range []string{NameLighting, NameClimate, NameCovers, NameMedia, NameSensor} {
		d := ByName(want)
		if d == nil {
			t.Fatalf("ByName(%q) = nil", want)
		}
		if d.Name != want {
			t.Errorf("ByName(%q).Name = %q", want, d.Name)
		}
	}
	if ByName("security") != nil {
		t.Error("ByName(unknown) should return nil")
	}
}

func TestDescriptorMatchers(t *testing.T) {
	if !Lighting.MatchesChannel(directory.ChannelLight) {
		t.Error("lighting should match light channels")
	}
	if Lighting.MatchesChannel(directory.ChannelSpeaker) {
		t.Error("lighting should not match speaker channels")
	}
	if !Media.MatchesProperty(directory.PropVolume) {
		t.Error("media should treat volume as a signal")
	}
	if Media.MatchesProperty(directory.PropPosition) {
		t.Error("media should ignore position changes")
	}
	if !Climate.ValidRole(RoleVentilation) {
		t.Error("climate should accept ventilation role")
	}
	if Climate.ValidRole(RoleAmbient) {
		t.Error("climate should reject ambient role")
	}
}

func TestEveryCapabilityAcceptsHidden(t *testing.T) {
	for _, d := range All() {
		if !d.ValidRole(RoleHidden) {
			t.Errorf("capability %q does not accept the hidden role", d.Name)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("dev-1", ""); got != "dev-1" {
		t.Errorf("Key(device only) = %q", got)
	}
	if got := Key("dev-1", "ch-2"); got != "dev-1/ch-2" {
		t.Errorf("Key(device/channel) = %q", got)
	}
}

func TestInferLightingRoles(t *testing.T) {
	targets := []Target{
		{DeviceID: "d1", ChannelID: "c1", ChannelCategory: directory.ChannelLight},
		{DeviceID: "d2", ChannelID: "c1", ChannelCategory: directory.ChannelLight},
		{DeviceID: "d3", ChannelID: "c1", ChannelCategory: directory.ChannelLight},
	}

	got := Lighting.InferRoles(targets)
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(got))
	}
	if got[0].Role != RolePrimary || got[0].Priority != PriorityPrimary {
		t.Errorf("first target = %+v, want primary", got[0])
	}
	if got[1].Role != RoleAmbient || got[2].Role != RoleAmbient {
		t.Errorf("remaining targets should be ambient: %+v", got[1:])
	}

	// Idempotent for the same target set.
	again := Lighting.InferRoles(targets)
	for i := range got {
		if got[i] != again[i] {
			t.Errorf("inference not deterministic at %d: %+v vs %+v", i, got[i], again[i])
		}
	}
}

func TestInferClimateRoles(t *testing.T) {
	targets := []Target{
		{DeviceID: "fan-1", ChannelCategory: directory.ChannelFan},
		{DeviceID: "thermo-1", ChannelCategory: directory.ChannelThermostat},
		{DeviceID: "hum-1", ChannelCategory: directory.ChannelHumidifier},
	}

	got := Climate.InferRoles(targets)
	if got[0].Role != RoleVentilation {
		t.Errorf("fan role = %q, want ventilation", got[0].Role)
	}
	if got[1].Role != RolePrimary {
		t.Errorf("thermostat role = %q, want primary despite not being first", got[1].Role)
	}
	if got[2].Role != RoleHumidity {
		t.Errorf("humidifier role = %q, want humidity", got[2].Role)
	}
}

func TestInferClimateRolesNoThermostat(t *testing.T) {
	targets := []Target{
		{DeviceID: "fan-1", ChannelCategory: directory.ChannelFan},
		{DeviceID: "fan-2", ChannelCategory: directory.ChannelFan},
	}

	got := Climate.InferRoles(targets)
	if got[0].Role != RolePrimary {
		t.Errorf("first target role = %q, want primary fallback", got[0].Role)
	}
	if got[1].Role != RoleVentilation {
		t.Errorf("second fan role = %q, want ventilation", got[1].Role)
	}
}

func TestInferMediaRoles(t *testing.T) {
	targets := []Target{
		{DeviceID: "tv-1", ChannelID: "main", ChannelCategory: directory.ChannelTelevision, HasLevel: false},
		{DeviceID: "amp-1", ChannelID: "zone1", ChannelCategory: directory.ChannelSpeaker, HasLevel: true},
	}

	got := Media.InferRoles(targets)
	if got[0].Role != RoleBackground {
		t.Errorf("tv role = %q, want background", got[0].Role)
	}
	if got[1].Role != RolePrimary {
		t.Errorf("amp role = %q, want primary (has volume control)", got[1].Role)
	}
}

func TestInferEmptyTargets(t *testing.T) {
	for _, d := range All() {
		if got := d.InferRoles(nil); len(got) != 0 {
			t.Errorf("capability %q inferred %d roles from no targets", d.Name, len(got))
		}
	}
}
