package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atrium-home/atrium-core/internal/aggregate"
	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/infrastructure/config"
	"github.com/atrium-home/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-home/atrium-core/internal/roles"
	"github.com/atrium-home/atrium-core/internal/scene"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Directory   directory.Directory
	Roles       map[string]*roles.Service
	Aggregators map[string]*aggregate.Aggregator
	Scenes      *scene.Executor
	Bus         *events.Bus
	Version     string
}

// Server is the HTTP API server for the Atrium core.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub
// that relays bus events to subscribed clients.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	directory   directory.Directory
	roles       map[string]*roles.Service
	aggregators map[string]*aggregate.Aggregator
	scenes      *scene.Executor
	bus         *events.Bus
	version     string
	server      *http.Server
	hub         *Hub
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}

	return &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		logger:      deps.Logger,
		directory:   deps.Directory,
		roles:       deps.Roles,
		aggregators: deps.Aggregators,
		scenes:      deps.Scenes,
		bus:         deps.Bus,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub, wires bus events into the
// hub, and launches the HTTP listener in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)
	s.relayBusEvents()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// relayBusEvents forwards every capability's state and target events, plus
// scene executions, to WebSocket clients subscribed to the matching channel.
func (s *Server) relayBusEvents() {
	relay := func(kind events.Kind) {
		s.bus.Subscribe(kind, func(evt events.Event) {
			s.hub.Broadcast(string(evt.Kind), evt.Payload)
		})
	}

	for _, desc := range capability.All() {
		relay(events.StateChanged(desc.Name))
		relay(events.TargetCreated(desc.Name))
		relay(events.TargetUpdated(desc.Name))
		relay(events.TargetDeleted(desc.Name))
	}
	relay(events.KindSceneExecuted)
	relay(events.KindDeviceUpdated)
	relay(events.KindDeviceRemoved)
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
