package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/atrium-home/atrium-core/internal/command"
	"github.com/atrium-home/atrium-core/internal/directory"
)

func restDevice(host string, port int) *directory.Device {
	return &directory.Device{
		ID:       "dev-1",
		Platform: TypeREST,
		Address:  map[string]any{"host": host, "port": float64(port)},
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	rest := NewRESTPlatform(command.NewChannel(time.Second), 1)
	reg.Register(rest)

	p, ok := reg.Get(&directory.Device{Platform: TypeREST})
	if !ok || p.Type() != TypeREST {
		t.Errorf("Get(rest device) = %v, %v", p, ok)
	}

	if _, ok := reg.Get(&directory.Device{Platform: "zwave"}); ok {
		t.Error("Get(unregistered platform) should report false")
	}
}

func TestRESTPlatformProcess(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	host := u.Hostname()
	port := u.Port()

	d := restDevice(host, atoiMust(t, port))
	d.Address["api_key"] = "secret"

	p := NewRESTPlatform(command.NewChannel(time.Second), 1)
	ok := p.Process(context.Background(), Update{
		Device:     d,
		ChannelID:  "main",
		PropertyID: "bri",
		Value:      75.0,
	})

	if !ok {
		t.Fatal("Process() = false, want success")
	}
	if gotPath != "/api/channels/main/properties/bri" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotBody["value"] != 75.0 {
		t.Errorf("body = %v, want value 75", gotBody)
	}
}

func TestRESTPlatformUnaddressableDevice(t *testing.T) {
	p := NewRESTPlatform(command.NewChannel(time.Second), 1)
	ok := p.Process(context.Background(), Update{
		Device: &directory.Device{ID: "dev-1", Platform: TypeREST, Address: map[string]any{}},
	})
	if ok {
		t.Error("Process() = true for a device without a host")
	}
}

func TestRESTPlatformBatchPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	d := restDevice(u.Hostname(), atoiMust(t, u.Port()))

	p := NewRESTPlatform(command.NewChannel(time.Second), 1)
	ok := p.ProcessBatch(context.Background(), []Update{
		{Device: d, ChannelID: "main", PropertyID: "good", Value: 1},
		{Device: d, ChannelID: "main", PropertyID: "bad", Value: 2},
	})
	if ok {
		t.Error("ProcessBatch() = true despite a rejected update")
	}
}

func TestHueStateTranslation(t *testing.T) {
	onProp := &directory.Property{Category: directory.PropOn}
	briProp := &directory.Property{Category: directory.PropBrightness}
	ctProp := &directory.Property{Category: directory.PropColorTemperature}

	tests := []struct {
		name    string
		update  Update
		want    map[string]any
		wantErr bool
	}{
		{
			name:   "on",
			update: Update{Property: onProp, Value: true},
			want:   map[string]any{"on": true},
		},
		{
			name:   "brightness percent to bridge scale",
			update: Update{Property: briProp, Value: 100.0},
			want:   map[string]any{"bri": 254},
		},
		{
			name:   "half brightness",
			update: Update{Property: briProp, Value: 50.0},
			want:   map[string]any{"bri": 127},
		},
		{
			name:   "kelvin to mireds",
			update: Update{Property: ctProp, Value: 2000.0},
			want:   map[string]any{"ct": 500},
		},
		{
			name:    "wrong value type",
			update:  Update{Property: onProp, Value: "yes"},
			wantErr: true,
		},
		{
			name:    "unsupported category",
			update:  Update{Property: &directory.Property{Category: directory.PropVolume}, Value: 1},
			wantErr: true,
		},
		{
			name:    "no property metadata",
			update:  Update{Value: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hueState(tt.update)
			if (err != nil) != tt.wantErr {
				t.Fatalf("hueState() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("state[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestMQTTPlatformPublishesCommand(t *testing.T) {
	pub := &fakePublisher{}
	p := NewMQTTPlatform(pub, 1)

	ok := p.Process(context.Background(), Update{
		Device:     &directory.Device{ID: "amp-01", Platform: TypeMQTT},
		ChannelID:  "zone1",
		PropertyID: "volume",
		Value:      30,
	})

	if !ok {
		t.Fatal("Process() = false, want success")
	}
	if len(pub.topics) != 1 || pub.topics[0] != "atrium/command/amp-01" {
		t.Errorf("published topics = %v", pub.topics)
	}

	var doc map[string]any
	if err := json.Unmarshal(pub.payloads[0], &doc); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if doc["property_id"] != "volume" || doc["channel_id"] != "zone1" {
		t.Errorf("payload = %v", doc)
	}
}

func atoiMust(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatalf("not a port: %q", s)
	}
	return n
}
