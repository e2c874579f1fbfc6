// Package httpapi provides the daemon's debug/metrics HTTP surface: a
// read-only JSON status snapshot, a Prometheus metrics endpoint, and a
// websocket relay of the Coordinator's emitted events. None of this is
// reachable by the core itself — internal/wm never imports net/http.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/frostplexx/yuki/internal/wm"
	"github.com/frostplexx/yuki/pkg/models"
)

// StatusSource supplies the live monitor/workspace tree the status endpoint
// serializes. *wm.Coordinator satisfies this.
type StatusSource interface {
	Monitors() []*wm.Monitor
}

// monitorStatus is the JSON shape for one monitor in the /debug/status
// response.
type monitorStatus struct {
	ID         models.MonitorID  `json:"id"`
	Frame      models.Rectangle  `json:"frame"`
	ActiveIdx  int               `json:"active_index"`
	Workspaces []workspaceStatus `json:"workspaces"`
}

type workspaceStatus struct {
	ID      models.WorkspaceID `json:"id"`
	Name    string             `json:"name"`
	Kind    wm.LayoutKind      `json:"layout_kind"`
	State   string             `json:"state"`
	Windows int                `json:"window_count"`
}

// Server wraps a gorilla/mux router exposing /healthz, /debug/status,
// /metrics, and /debug/events.
type Server struct {
	httpServer *http.Server
	log        *logrus.Entry

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan models.Event
	source  StatusSource
}

// New builds a debug server bound to addr, relaying events pushed through
// Broadcast. AttachSource must be called before /debug/status serves
// anything useful; the daemon calls it once the Coordinator exists.
func New(addr string, log *logrus.Entry) *Server {
	s := &Server{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]chan models.Event),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/debug/status", s.handleStatus).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/debug/events", s.handleEvents)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "yukid.debug"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// AttachSource sets the monitor/workspace snapshot source for
// /debug/status.
func (s *Server) AttachSource(source StatusSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// Start begins serving in the background. When serving ends, the returned
// channel receives nil after a clean Shutdown, or the listen error
// otherwise; the caller decides whether to log it or exit.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("httpapi.listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown gracefully stops the HTTP server and disconnects every websocket
// client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]chan models.Event)
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast relays ev to every connected /debug/events client. Never
// blocks: a client whose outgoing buffer is full is dropped.
func (s *Server) Broadcast(ev models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- ev:
		default:
			s.log.Warn("httpapi.events_client_slow_dropping")
			close(ch)
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()
	if source == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	mons := source.Monitors()
	out := make([]monitorStatus, 0, len(mons))
	for _, mon := range mons {
		wss := mon.Workspaces()
		wsOut := make([]workspaceStatus, 0, len(wss))
		for _, ws := range wss {
			wsOut = append(wsOut, workspaceStatus{
				ID:      ws.ID,
				Name:    ws.Name,
				Kind:    ws.RootKind(),
				State:   ws.State().String(),
				Windows: ws.WindowCount(),
			})
		}
		out = append(out, monitorStatus{
			ID:         mon.ID(),
			Frame:      mon.Frame(),
			ActiveIdx:  mon.ActiveIndex(),
			Workspaces: wsOut,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("httpapi.events_upgrade_failed")
		return
	}

	ch := make(chan models.Event, 64)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
