package web

import (
	"context"
	"embed"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/netcriptus/raiden-services/internal/app/store"
	"github.com/netcriptus/raiden-services/internal/domain"
)

//go:embed assets/index.html
var assets embed.FS

// SnapshotSource is the store view rendered by /api/series.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

// BaseURLTarget is the poll target that /api/base-url reads and replaces.
type BaseURLTarget interface {
	BaseURL() string
	SetBaseURL(u string)
}

// StatsSource reports poller health.
type StatsSource interface {
	Stats() domain.PollStats
}

// Deps are the collaborators the server renders. Metrics and Hub are optional.
type Deps struct {
	Store    SnapshotSource
	Target   BaseURLTarget
	Stats    StatsSource
	Hub      *Hub
	Metrics  http.Handler
	Interval time.Duration
}

// Server handles setting up an HTTP server and servicing HTTP requests.
type Server struct {
	lis       net.Listener
	server    *http.Server
	logWriter io.Writer
}

// NewServer opens a TCP listener on addr and returns an initialized Server.
func NewServer(addr string, deps Deps, opts ...ServerOption) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		lis:       lis,
		logWriter: os.Stdout,
	}
	for _, o := range opts {
		o(s)
	}

	s.server = &http.Server{
		Handler:           handlers.LoggingHandler(s.logWriter, NewRouter(deps)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// NewRouter builds the dashboard routes wrapped in CORS handling.
func NewRouter(deps Deps) http.Handler {
	router := mux.NewRouter()

	router.Handle("/", IndexShow()).Methods(http.MethodGet)
	router.Handle("/api/series", SeriesShow(deps.Store, deps.Interval)).Methods(http.MethodGet)
	router.Handle("/api/base-url", BaseURLShow(deps.Target)).Methods(http.MethodGet)
	router.Handle("/api/base-url", BaseURLUpdate(deps.Target)).Methods(http.MethodPut)
	router.Handle("/api/poll-stats", PollStatsShow(deps.Stats)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if deps.Hub != nil {
		router.Handle("/ws", deps.Hub).Methods(http.MethodGet)
	}
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics).Methods(http.MethodGet)
	}

	return handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPut}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)
}

// Addr returns the address that the listener is bound to.
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve serves the HTTP server on the servers Listener. This is a blocking
// method and returns http.ErrServerClosed after Stop.
func (s *Server) Serve() error {
	return s.server.Serve(s.lis)
}

// Stop will perform a graceful shutdown of the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// ServerOption is a function that can be passed to the server initializer to
// configure optional settings.
type ServerOption func(*Server)

// WithLogWriter will override the logger used for HTTP logs.
func WithLogWriter(w io.Writer) ServerOption {
	return func(s *Server) {
		s.logWriter = w
	}
}
