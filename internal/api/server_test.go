package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atrium-home/atrium-core/internal/aggregate"
	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/infrastructure/config"
	"github.com/atrium-home/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-home/atrium-core/internal/roles"
)

// memRepo is an in-memory roles.Repository for handler tests.
type memRepo struct {
	rows map[string]roles.Assignment
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]roles.Assignment)}
}

func (m *memRepo) key(capName, spaceID, deviceID, channelID string) string {
	return capName + "|" + spaceID + "|" + deviceID + "|" + channelID
}

func (m *memRepo) Upsert(_ context.Context, a roles.Assignment) (*roles.UpsertOutcome, error) {
	k := m.key(a.Capability, a.SpaceID, a.DeviceID, a.ChannelID)
	existing, existed := m.rows[k]
	changed := !existed || existing.Role != a.Role || existing.Priority != a.Priority
	if existed {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = k
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = time.Now().UTC()
	if changed {
		m.rows[k] = a
	}
	return &roles.UpsertOutcome{Assignment: a, Existed: existed, Changed: changed}, nil
}

func (m *memRepo) Delete(_ context.Context, capName, spaceID, deviceID, channelID string) (bool, error) {
	k := m.key(capName, spaceID, deviceID, channelID)
	_, existed := m.rows[k]
	delete(m.rows, k)
	return existed, nil
}

func (m *memRepo) ListSpace(_ context.Context, capName, spaceID string) ([]roles.Assignment, error) {
	var out []roles.Assignment
	for _, a := range m.rows {
		if a.Capability == capName && a.SpaceID == spaceID {
			out = append(out, a)
		}
	}
	return out, nil
}

// testServer wires a Server against an in-memory registry with a single
// lighting device in space "living-room".
func testServer(t *testing.T) (*Server, *directory.Registry) {
	t.Helper()

	registry := directory.NewRegistry()
	registry.UpsertSpace(directory.Space{ID: "living-room", Name: "Living Room"})

	spaceID := "living-room"
	registry.UpsertDevice(&directory.Device{
		ID:       "lamp-1",
		Name:     "Floor Lamp",
		Category: directory.DeviceLight,
		SpaceID:  &spaceID,
		Online:   true,
		Platform: "rest",
		Channels: []directory.Channel{{
			ID:       "main",
			Category: directory.ChannelLight,
			Properties: []directory.Property{
				{ID: "p-on", Category: directory.PropOn, DataType: directory.TypeBool, Permission: directory.PermissionReadWrite, Value: true},
				{ID: "p-bri", Category: directory.PropBrightness, DataType: directory.TypeFloat, Permission: directory.PermissionReadWrite, Value: 60.0},
			},
		}},
	})

	bus := events.NewBus()
	desc := capability.ByName(capability.NameLighting)
	svc := roles.NewService(desc, registry, newMemRepo(), bus)
	agg := aggregate.NewAggregator(desc, registry, svc, nil, nil)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:      log,
		Directory:   registry,
		Roles:       map[string]*roles.Service{capability.NameLighting: svc},
		Aggregators: map[string]*aggregate.Aggregator{capability.NameLighting: agg},
		Bus:         bus,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv, registry
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestHandleGetStateUnknownCapability(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/spaces/living-room/state/heating", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetStateUnknownSpace(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/spaces/attic/state/lighting", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRoleLifecycleOverHTTP(t *testing.T) {
	srv, _ := testServer(t)

	// Assign the lamp channel as primary.
	rec := doRequest(t, srv, http.MethodPut, "/api/v1/spaces/living-room/roles/lighting/",
		`{"device_id":"lamp-1","channel_id":"main","role":"primary","priority":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set role status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var assignment roles.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &assignment); err != nil {
		t.Fatalf("decoding assignment: %v", err)
	}
	if assignment.Role != capability.RolePrimary {
		t.Errorf("assignment role = %q, want primary", assignment.Role)
	}

	// The role map now contains the target.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/spaces/living-room/roles/lighting/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("role map status = %d, want 200", rec.Code)
	}
	var roleMap map[string]roles.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &roleMap); err != nil {
		t.Fatalf("decoding role map: %v", err)
	}
	if _, ok := roleMap["lamp-1/main"]; !ok {
		t.Errorf("role map missing lamp-1/main: %v", roleMap)
	}

	// Aggregated state reflects the assigned member.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/spaces/living-room/state/lighting", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var state aggregate.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Summary.TotalMembers != 1 {
		t.Errorf("total members = %d, want 1", state.Summary.TotalMembers)
	}

	// Delete and verify it is gone.
	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/spaces/living-room/roles/lighting/lamp-1?channel_id=main", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/spaces/living-room/roles/lighting/lamp-1?channel_id=main", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandleSetRoleValidation(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown role", `{"device_id":"lamp-1","channel_id":"main","role":"captain","priority":1}`, http.StatusUnprocessableEntity},
		{"unknown device", `{"device_id":"ghost","channel_id":"main","role":"primary","priority":1}`, http.StatusNotFound},
		{"malformed body", `{not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPut, "/api/v1/spaces/living-room/roles/lighting/", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleGetTargets(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/spaces/living-room/roles/lighting/targets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("targets status = %d, want 200", rec.Code)
	}
	var targets []capability.Target
	if err := json.Unmarshal(rec.Body.Bytes(), &targets); err != nil {
		t.Fatalf("decoding targets: %v", err)
	}
	if len(targets) != 1 || targets[0].DeviceID != "lamp-1" {
		t.Errorf("unexpected targets: %+v", targets)
	}
}

func TestHubBroadcastFiltersBySubscription(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{}, log)

	subscribed := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{"lighting_state_changed": {}}}
	other := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{}}
	hub.Register(subscribed)
	hub.Register(other)

	hub.Broadcast("lighting_state_changed", map[string]any{"space_id": "living-room"})

	select {
	case data := <-subscribed.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding broadcast: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.EventType != "lighting_state_changed" {
			t.Errorf("unexpected message: %+v", msg)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("unsubscribed client received broadcast")
	default:
	}
}
