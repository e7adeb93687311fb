package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
)

// memRepository is an in-memory Repository with the same atomicity
// observable behaviour as the SQLite implementation.
type memRepository struct {
	rows map[string]Assignment
}

func newMemRepository() *memRepository {
	return &memRepository{rows: make(map[string]Assignment)}
}

func (r *memRepository) key(capName, spaceID, deviceID, channelID string) string {
	return capName + "|" + spaceID + "|" + deviceID + "|" + channelID
}

func (r *memRepository) Upsert(_ context.Context, a Assignment) (*UpsertOutcome, error) {
	k := r.key(a.Capability, a.SpaceID, a.DeviceID, a.ChannelID)
	existing, existed := r.rows[k]

	outcome := &UpsertOutcome{Existed: existed}
	if !existed {
		a.ID = "gen-" + k
		outcome.Changed = true
	} else {
		a.ID = existing.ID
		outcome.Changed = existing.Role != a.Role || existing.Priority != a.Priority
	}
	if outcome.Changed {
		r.rows[k] = a
	}
	outcome.Assignment = r.rows[k]
	return outcome, nil
}

func (r *memRepository) Delete(_ context.Context, capName, spaceID, deviceID, channelID string) (bool, error) {
	k := r.key(capName, spaceID, deviceID, channelID)
	_, existed := r.rows[k]
	delete(r.rows, k)
	return existed, nil
}

func (r *memRepository) ListSpace(_ context.Context, capName, spaceID string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.rows {
		if a.Capability == capName && a.SpaceID == spaceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func lightDevice(id, spaceID string) *directory.Device {
	return &directory.Device{
		ID:       id,
		Name:     "Lamp " + id,
		Category: directory.DeviceLight,
		SpaceID:  &spaceID,
		Online:   true,
		Platform: "acme",
		Channels: []directory.Channel{
			{
				ID:       "main",
				Category: directory.ChannelLight,
				Properties: []directory.Property{
					{ID: id + "-on", Category: directory.PropOn, DataType: directory.TypeBool, Permission: directory.PermissionReadWrite},
					{ID: id + "-bri", Category: directory.PropBrightness, DataType: directory.TypeFloat, Permission: directory.PermissionReadWrite},
				},
			},
		},
	}
}

func newLightingService(t *testing.T) (*Service, *directory.Registry, *events.Bus) {
	t.Helper()
	reg := directory.NewRegistry()
	reg.UpsertSpace(directory.Space{ID: "living", Name: "Living Room"})
	bus := events.NewBus()
	svc := NewService(&capability.Lighting, reg, newMemRepository(), bus)
	return svc, reg, bus
}

func countEvents(bus *events.Bus, kind events.Kind, counter *int) {
	bus.Subscribe(kind, func(events.Event) { *counter++ })
}

func TestSetRoleEmitsCreatedOnceForIdenticalCalls(t *testing.T) {
	svc, reg, bus := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))

	var created, updated int
	countEvents(bus, events.TargetCreated("lighting"), &created)
	countEvents(bus, events.TargetUpdated("lighting"), &updated)

	ctx := context.Background()
	input := RoleInput{DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary, Priority: 1}

	if _, err := svc.SetRole(ctx, "living", input); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if _, err := svc.SetRole(ctx, "living", input); err != nil {
		t.Fatalf("SetRole() second call error = %v", err)
	}

	if created != 1 {
		t.Errorf("created events = %d, want exactly 1", created)
	}
	if updated != 0 {
		t.Errorf("updated events = %d, want 0 for identical role+priority", updated)
	}

	// A third call with a different role emits exactly one updated event.
	input.Role = capability.RoleAmbient
	if _, err := svc.SetRole(ctx, "living", input); err != nil {
		t.Fatalf("SetRole() third call error = %v", err)
	}
	if created != 1 || updated != 1 {
		t.Errorf("after role change: created = %d, updated = %d, want 1 and 1", created, updated)
	}
}

func TestSetRoleValidation(t *testing.T) {
	svc, reg, _ := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))

	otherSpace := "kitchen"
	reg.UpsertSpace(directory.Space{ID: otherSpace, Name: "Kitchen"})
	foreign := lightDevice("lamp-2", otherSpace)
	reg.UpsertDevice(foreign)

	ctx := context.Background()
	tests := []struct {
		name    string
		spaceID string
		input   RoleInput
		wantErr error
	}{
		{
			name:    "missing device id",
			spaceID: "living",
			input:   RoleInput{ChannelID: "main", Role: capability.RolePrimary},
			wantErr: ErrValidation,
		},
		{
			name:    "role outside capability set",
			spaceID: "living",
			input:   RoleInput{DeviceID: "lamp-1", ChannelID: "main", Role: capability.RoleVentilation},
			wantErr: ErrValidation,
		},
		{
			name:    "missing channel for channel-scoped capability",
			spaceID: "living",
			input:   RoleInput{DeviceID: "lamp-1", Role: capability.RolePrimary},
			wantErr: ErrValidation,
		},
		{
			name:    "negative priority",
			spaceID: "living",
			input:   RoleInput{DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary, Priority: -1},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown space",
			spaceID: "attic",
			input:   RoleInput{DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary},
			wantErr: directory.ErrSpaceNotFound,
		},
		{
			name:    "unknown device",
			spaceID: "living",
			input:   RoleInput{DeviceID: "ghost", ChannelID: "main", Role: capability.RolePrimary},
			wantErr: directory.ErrDeviceNotFound,
		},
		{
			name:    "device in another space",
			spaceID: "living",
			input:   RoleInput{DeviceID: "lamp-2", ChannelID: "main", Role: capability.RolePrimary},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown channel",
			spaceID: "living",
			input:   RoleInput{DeviceID: "lamp-1", ChannelID: "aux", Role: capability.RolePrimary},
			wantErr: directory.ErrChannelNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetRole(ctx, tt.spaceID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetRole() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBulkSetRolesNeverAborts(t *testing.T) {
	svc, reg, _ := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))
	reg.UpsertDevice(lightDevice("lamp-3", "living"))

	result := svc.BulkSetRoles(context.Background(), "living", []RoleInput{
		{DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary, Priority: 1},
		{DeviceID: "ghost", ChannelID: "main", Role: capability.RoleAmbient, Priority: 2},
		{DeviceID: "lamp-3", ChannelID: "main", Role: capability.RoleAmbient, Priority: 2},
	})

	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Errorf("bulk counts = %d/%d, want 2 successes and 1 failure",
			result.SuccessCount, result.FailureCount)
	}
	if len(result.Results) != 3 {
		t.Fatalf("got %d results, want one per input", len(result.Results))
	}
	if result.Results[1].Error == "" {
		t.Error("failing entry carries no error message")
	}
	if result.Results[2].Assignment == nil {
		t.Error("entry after a failure was not processed")
	}
}

func TestDeleteRole(t *testing.T) {
	svc, reg, bus := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))

	var deleted int
	countEvents(bus, events.TargetDeleted("lighting"), &deleted)

	ctx := context.Background()
	if _, err := svc.SetRole(ctx, "living", RoleInput{
		DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary, Priority: 1,
	}); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}

	if err := svc.DeleteRole(ctx, "living", "lamp-1", "main"); err != nil {
		t.Fatalf("DeleteRole() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted events = %d, want 1", deleted)
	}

	if err := svc.DeleteRole(ctx, "living", "lamp-1", "main"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("DeleteRole(absent) error = %v, want ErrAssignmentNotFound", err)
	}
	if deleted != 1 {
		t.Errorf("deleted events after absent delete = %d, want still 1", deleted)
	}
}

func TestTargetsInSpaceOrderingAndScope(t *testing.T) {
	svc, reg, _ := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-b", "living"))
	reg.UpsertDevice(lightDevice("lamp-a", "living"))

	// A speaker should not appear as a lighting target.
	speakerSpace := "living"
	reg.UpsertDevice(&directory.Device{
		ID: "amp-1", Category: directory.DeviceSpeaker, SpaceID: &speakerSpace, Online: true,
		Channels: []directory.Channel{{
			ID: "zone1", Category: directory.ChannelSpeaker,
			Properties: []directory.Property{
				{ID: "amp-vol", Category: directory.PropVolume, DataType: directory.TypeFloat, Permission: directory.PermissionReadWrite},
			},
		}},
	})

	targets, err := svc.TargetsInSpace(context.Background(), "living")
	if err != nil {
		t.Fatalf("TargetsInSpace() error = %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2 light channels", len(targets))
	}
	if targets[0].DeviceID != "lamp-a" || targets[1].DeviceID != "lamp-b" {
		t.Errorf("targets not ordered by device id: %q, %q", targets[0].DeviceID, targets[1].DeviceID)
	}
	if !targets[0].HasLevel {
		t.Error("light channel with brightness should report HasLevel")
	}
}

func TestInferDefaultRolesIsPure(t *testing.T) {
	svc, reg, bus := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))
	reg.UpsertDevice(lightDevice("lamp-2", "living"))

	var created int
	countEvents(bus, events.TargetCreated("lighting"), &created)

	ctx := context.Background()
	inputs, err := svc.InferDefaultRoles(ctx, "living")
	if err != nil {
		t.Fatalf("InferDefaultRoles() error = %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("got %d inputs, want 2", len(inputs))
	}
	if inputs[0].Role != capability.RolePrimary {
		t.Errorf("first inferred role = %q, want primary", inputs[0].Role)
	}
	if inputs[1].Role != capability.RoleAmbient {
		t.Errorf("second inferred role = %q, want ambient", inputs[1].Role)
	}
	if created != 0 {
		t.Error("inference emitted events; it must be pure")
	}

	// Same target set, same output.
	again, err := svc.InferDefaultRoles(ctx, "living")
	if err != nil {
		t.Fatalf("InferDefaultRoles() second call error = %v", err)
	}
	for i := range inputs {
		if inputs[i] != again[i] {
			t.Errorf("inference not idempotent at %d: %+v vs %+v", i, inputs[i], again[i])
		}
	}
}

func TestRoleMapKeys(t *testing.T) {
	svc, reg, _ := newLightingService(t)
	reg.UpsertDevice(lightDevice("lamp-1", "living"))

	ctx := context.Background()
	if _, err := svc.SetRole(ctx, "living", RoleInput{
		DeviceID: "lamp-1", ChannelID: "main", Role: capability.RolePrimary, Priority: 1,
	}); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}

	m, err := svc.RoleMap(ctx, "living")
	if err != nil {
		t.Fatalf("RoleMap() error = %v", err)
	}
	a, ok := m["lamp-1/main"]
	if !ok {
		t.Fatalf("role map missing channel-scoped key, got keys %v", mapKeys(m))
	}
	if a.Role != capability.RolePrimary {
		t.Errorf("role map entry role = %q, want primary", a.Role)
	}
}

func mapKeys(m map[string]Assignment) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
