package scene

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/platform"
)

// fakePlatform records processed updates and fails on demand.
type fakePlatform struct {
	typ       string
	processed []platform.Update
	failAll   bool
}

func (f *fakePlatform) Type() string { return f.typ }

func (f *fakePlatform) Process(ctx context.Context, u platform.Update) bool {
	return f.ProcessBatch(ctx, []platform.Update{u})
}

func (f *fakePlatform) ProcessBatch(_ context.Context, updates []platform.Update) bool {
	f.processed = append(f.processed, updates...)
	return !f.failAll
}

func sceneRegistry(spaceID string) *directory.Registry {
	reg := directory.NewRegistry()
	reg.UpsertSpace(directory.Space{ID: spaceID})
	reg.UpsertDevice(&directory.Device{
		ID: "lamp-1", Category: directory.DeviceLight, SpaceID: &spaceID, Online: true,
		Platform: "fake",
		Channels: []directory.Channel{{
			ID: "main", Category: directory.ChannelLight,
			Properties: []directory.Property{
				{ID: "lamp-1-on", Category: directory.PropOn, DataType: directory.TypeBool, Permission: directory.PermissionReadWrite},
				{ID: "lamp-1-bri", Category: directory.PropBrightness, DataType: directory.TypeFloat, Permission: directory.PermissionReadWrite},
				{ID: "lamp-1-temp", Category: directory.PropTemperature, DataType: directory.TypeFloat, Permission: directory.PermissionRead},
			},
		}},
	})
	return reg
}

func newExecutor(t *testing.T) (*Executor, *fakePlatform, *events.Bus) {
	t.Helper()
	platforms := platform.NewRegistry()
	fake := &fakePlatform{typ: "fake"}
	platforms.Register(fake)
	bus := events.NewBus()
	return NewExecutor(sceneRegistry("living"), platforms, bus), fake, bus
}

func TestExecuteNeverAborts(t *testing.T) {
	exec, fake, _ := newExecutor(t)

	results := exec.Execute(context.Background(), Ref{ID: "evening"}, []Action{
		{ID: "a1", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: true},
		{ID: "a2", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "no-such-prop", Value: 1},
		{ID: "a3", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-bri", Value: 80.0},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want one per action", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("actions around the failure were not evaluated independently: %+v", results)
	}
	if results[1].Success || results[1].Error == "" {
		t.Errorf("failing action = %+v, want success=false with an error", results[1])
	}
	if len(fake.processed) != 2 {
		t.Errorf("dispatched updates = %d, want 2", len(fake.processed))
	}
}

func TestExecuteChannelInference(t *testing.T) {
	exec, fake, _ := newExecutor(t)

	results := exec.Execute(context.Background(), Ref{ID: "s"}, []Action{
		{ID: "a1", DeviceID: "lamp-1", PropertyID: "lamp-1-bri", Value: 40.0},
	})

	if !results[0].Success {
		t.Fatalf("result = %+v, want success via inferred channel", results[0])
	}
	if fake.processed[0].ChannelID != "main" {
		t.Errorf("inferred channel = %q, want main", fake.processed[0].ChannelID)
	}
}

func TestExecuteRejectsReadOnlyAndBadValues(t *testing.T) {
	exec, fake, _ := newExecutor(t)

	results := exec.Execute(context.Background(), Ref{ID: "s"}, []Action{
		{ID: "ro", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-temp", Value: 20.0},
		{ID: "badval", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: "yes"},
		{ID: "nodev", DeviceID: "ghost", PropertyID: "x", Value: 1},
	})

	for _, r := range results {
		if r.Success {
			t.Errorf("action %s succeeded, want failure", r.ActionID)
		}
	}
	if len(fake.processed) != 0 {
		t.Errorf("invalid actions were dispatched: %d", len(fake.processed))
	}
}

func TestExecutePlatformRefusal(t *testing.T) {
	exec, fake, _ := newExecutor(t)
	fake.failAll = true

	results := exec.Execute(context.Background(), Ref{ID: "s"}, []Action{
		{ID: "a1", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: true},
	})

	if results[0].Success {
		t.Error("result success despite platform refusal")
	}
	if !strings.Contains(results[0].Error, "fake") {
		t.Errorf("error = %q, want platform named", results[0].Error)
	}
}

func TestExecutePublishesEventAndRecords(t *testing.T) {
	exec, _, bus := newExecutor(t)

	var got events.Event
	bus.Subscribe(events.KindSceneExecuted, func(e events.Event) { got = e })

	recorded := make(map[string]string)
	exec.SetAppliedRecorder(appliedFunc(func(spaceID, cap, mode string) {
		recorded[spaceID+"/"+cap] = mode
	}))

	exec.Execute(context.Background(), Ref{ID: "movie", SpaceID: "living", Capability: "lighting", Mode: "movie"}, []Action{
		{ID: "a1", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: false},
	})

	if got.Kind != events.KindSceneExecuted {
		t.Error("no scene_executed event published")
	}
	if recorded["living/lighting"] != "movie" {
		t.Errorf("applied records = %v, want movie recorded", recorded)
	}
}

func TestExecuteFailedSceneNotRecordedAsApplied(t *testing.T) {
	exec, fake, _ := newExecutor(t)
	fake.failAll = true

	recorded := 0
	exec.SetAppliedRecorder(appliedFunc(func(string, string, string) { recorded++ }))

	exec.Execute(context.Background(), Ref{ID: "movie", SpaceID: "living", Capability: "lighting", Mode: "movie"}, []Action{
		{ID: "a1", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: false},
	})

	if recorded != 0 {
		t.Error("failed scene recorded as the applied mode")
	}
}

func TestValidateActionsFailFast(t *testing.T) {
	exec, fake, _ := newExecutor(t)

	err := exec.ValidateActions(context.Background(), []Action{
		{ID: "a1", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: true},
		{ID: "a2", DeviceID: "lamp-1", ChannelID: "main", PropertyID: "lamp-1-on", Value: 42},
		{ID: "a3", DeviceID: "ghost", PropertyID: "x", Value: 1},
	})

	if err == nil {
		t.Fatal("ValidateActions() = nil, want first invalid action surfaced")
	}
	if !errors.Is(err, directory.ErrInvalidValue) {
		t.Errorf("error = %v, want the a2 value error, not the later a3 error", err)
	}
	if len(fake.processed) != 0 {
		t.Error("validation dispatched updates")
	}
}

// appliedFunc adapts a function to the AppliedRecorder interface.
type appliedFunc func(spaceID, capability, mode string)

func (f appliedFunc) RecordApplied(spaceID, capability, mode string) { f(spaceID, capability, mode) }
