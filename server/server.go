package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gridplan/server/cell_views"
	"gridplan/server/fastview"
	"gridplan/server/root_view"

	"github.com/gorilla/mux"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves a single page of solver views, the websocket that keeps them live,
// and json endpoints for progress and the final policy.
// The page's ele-update stream is shared, so it is meant for one live viewer at a time.
type Server struct {
	addr     string
	tracker  *Tracker
	rootView *root_view.RootView
	router   *mux.Router
	logger   *slog.Logger
}

// NewServer builds the views over the snapshot chan and registers the routes.
// The views stop when ctx is cancelled.
func NewServer(
	ctx context.Context,
	addr string,
	tracker *Tracker,
	snapshots <-chan cell_views.Snapshot,
	logger *slog.Logger,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, tracker.world.Size(), snapshots)
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	server := &Server{
		addr:     addr,
		tracker:  tracker,
		rootView: rootView,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	server.router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	server.router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)
	server.router.HandleFunc("/status", server.serveStatus).Methods(http.MethodGet)
	server.router.HandleFunc("/policy", server.servePolicy).Methods(http.MethodGet)
	return server, nil
}

// Handler returns the server's router.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	httpServer := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: time.Second * 5,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		server.logger.Info("serving", slog.String("addr", server.addr))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-errs:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client via websocket until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		server.logger.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}

	if err = cli.Sync(); err != nil {
		server.logger.Warn("websocket client failed", slog.Any("err", err))
		return
	}
	server.logger.Debug("websocket client disconnected")
}

// Serve the index.html main page, rendered from the latest snapshot.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	frame := cell_views.Convert(server.tracker.Latest())
	if err := renderTemplate(w, server.rootView, frame); err != nil {
		server.logger.Error("render index", slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (server *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	server.writeJSON(w, http.StatusOK, server.tracker.Status())
}

// servePolicy responds 404 until the solve has converged.
func (server *Server) servePolicy(w http.ResponseWriter, r *http.Request) {
	policy, ok := server.tracker.Policy()
	if !ok {
		http.Error(w, "policy not available until the solve converges", http.StatusNotFound)
		return
	}
	server.writeJSON(w, http.StatusOK, policy)
}

func (server *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		server.logger.Warn("write response", slog.Any("err", err))
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
