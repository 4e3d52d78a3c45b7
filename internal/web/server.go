// Package web serves the workspace as a JSON API for browser and script clients.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"iml-cli/internal/catalog"
	"iml-cli/internal/editor"
	"iml-cli/internal/logging"
	"iml-cli/internal/store"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Store        store.Store
	ActorID      string
	DeletePolicy editor.DeletePolicy
	Catalog      *catalog.Catalog
	Log          logrus.FieldLogger
}

type Server struct {
	cfg Config
	log logrus.FieldLogger

	// mu serializes load-mutate-save cycles within this process; SQLite
	// handles writers from other processes.
	mu sync.Mutex
}

func NewServer(cfg Config) (*Server, error) {
	cfg.ActorID = strings.TrimSpace(cfg.ActorID)
	if strings.TrimSpace(cfg.Store.Dir) == "" {
		return nil, errors.New("web: store dir is empty")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.DeletePolicy == "" {
		cfg.DeletePolicy = editor.DeleteKeep
	}
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Server{cfg: cfg, log: log}, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/catalog", s.handleCatalogKinds).Methods(http.MethodGet)
	r.HandleFunc("/catalog/{kind}", s.handleCatalogOptions).Methods(http.MethodGet)

	r.HandleFunc("/projects", s.handleProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects/{projectId}", s.handleProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/{projectId}/lists", s.handleProjectLists).Methods(http.MethodGet)

	r.HandleFunc("/lists/{listId}", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/lists/{listId}/markdown", s.handleListMarkdown).Methods(http.MethodGet)
	r.HandleFunc("/lists/{listId}/submittal", s.handleSubmittal).Methods(http.MethodGet)
	r.HandleFunc("/lists/{listId}/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/lists/{listId}/events", s.handleListEvents).Methods(http.MethodGet)
	r.HandleFunc("/lists/{listId}/status", s.handleListStatus).Methods(http.MethodPut)
	r.HandleFunc("/lists/{listId}/sections", s.handleAddSections).Methods(http.MethodPost)
	r.HandleFunc("/lists/{listId}/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/lists/{listId}/sections/{section:[0-9]+}/items", s.handleAddParent).Methods(http.MethodPost)
	r.HandleFunc("/lists/{listId}/sections/{section:[0-9]+}/items/{item:[0-9]+}/children", s.handleAddChild).Methods(http.MethodPost)
	r.HandleFunc("/lists/{listId}/sections/{section:[0-9]+}/items/{item:[0-9]+}", s.handleEditItem).Methods(http.MethodPatch)
	r.HandleFunc("/lists/{listId}/sections/{section:[0-9]+}/items/{item:[0-9]+}", s.handleDeleteItem).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("no route: "+r.Method+" "+r.URL.Path))
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
			"took":   time.Since(start).String(),
		}).Debug("http")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, cfg Config) error {
	srv, err := NewServer(cfg)
	if err != nil {
		return err
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errors.New("web: addr is empty")
	}
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	srv.log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
