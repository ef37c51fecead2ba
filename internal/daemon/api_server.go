package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"fragmill/internal/api"
	"fragmill/internal/config"
	"fragmill/internal/dispatch"
	"fragmill/internal/fileutil"
	"fragmill/internal/history"
	"fragmill/internal/logging"
	"fragmill/internal/preflight"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/api/files", srv.handleFiles)
	mux.HandleFunc("/api/convert", srv.handleConvert)
	mux.HandleFunc("/api/convert-all", srv.handleConvertAll)
	mux.HandleFunc("/api/status", srv.handleStatusList)
	mux.HandleFunc("/api/status/", srv.handleStatusItem)
	mux.HandleFunc("/api/fragments", srv.handleFragments)
	mux.HandleFunc("/api/fragments/", srv.handleFragmentItem)
	mux.HandleFunc("/api/history", srv.handleHistory)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:   "ok",
		PID:      status.PID,
		Watching: status.Watching,
		InputDir: status.InputDir,
	})
}

func (s *apiServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	files, err := api.ListFiles(s.daemon.cfg.Paths.InputDir, s.daemon.cfg.Paths.OutputDir, s.daemon.dispatcher.Registry())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FileListResponse{Files: files})
}

func (s *apiServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	// The handler only queues; the worker pool runs the tool. Callers poll
	// /api/status/{filename} for the outcome.
	job, err := s.daemon.dispatcher.Enqueue(req.Filename, dispatch.Options{
		Force:      req.Force,
		OutputName: req.OutputName,
	})
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrNotRunning):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.FromJob(job))
}

func (s *apiServer) handleConvertAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	queued, err := s.daemon.dispatcher.EnqueueAll()
	if err != nil && !errors.Is(err, dispatch.ErrQueueFull) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if errors.Is(err, dispatch.ErrQueueFull) {
		// Partial acceptance still reports what was queued.
		s.logger.Warn("convert-all filled the queue", logging.Int("queued", len(queued)))
	}
	s.writeJSON(w, http.StatusAccepted, api.ConvertAllResponse{Queued: queued})
}

func (s *apiServer) handleStatusList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	sources, _ := fileutil.ListSources(s.daemon.cfg.Paths.InputDir)
	fragments, _ := api.ListFragments(s.daemon.cfg.Paths.OutputDir)

	checks := preflight.RunAll(s.daemon.cfg)
	checkPayloads := make([]api.CheckPayload, 0, len(checks))
	for _, check := range checks {
		checkPayloads = append(checkPayloads, api.CheckPayload{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}

	s.writeJSON(w, http.StatusOK, api.StatusSummaryResponse{
		Running:     status.Running,
		PID:         status.PID,
		Watching:    status.Watching,
		SourceFiles: len(sources),
		Fragments:   len(fragments),
		Jobs:        api.FromJobs(s.daemon.dispatcher.Registry().List()),
		Checks:      checkPayloads,
	})
}

func (s *apiServer) handleStatusItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filename := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if filename == "" || strings.Contains(filename, "/") {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	job, err := s.daemon.dispatcher.Status(filename)
	if err != nil {
		if errors.Is(err, dispatch.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromJob(job))
}

func (s *apiServer) handleFragments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fragments, err := api.ListFragments(s.daemon.cfg.Paths.OutputDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FragmentListResponse{Fragments: fragments})
}

func (s *apiServer) handleFragmentItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filename := strings.TrimPrefix(r.URL.Path, "/api/fragments/")
	if filename == "" || strings.Contains(filename, "/") {
		s.writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	fragment, ok := api.FindFragment(s.daemon.cfg.Paths.OutputDir, filename)
	if !ok {
		s.writeError(w, http.StatusNotFound, "fragment not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fragment.Filename))
	http.ServeFile(w, r, filepath.Join(s.daemon.cfg.Paths.OutputDir, fragment.Filename))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.store == nil {
		s.writeJSON(w, http.StatusOK, api.HistoryResponse{Attempts: nil})
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	var attempts []history.Attempt
	var err error
	if filename := strings.TrimSpace(query.Get("filename")); filename != "" {
		attempts, err = s.daemon.store.ForFile(r.Context(), filename, limit)
	} else {
		attempts, err = s.daemon.store.Recent(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Attempts: api.FromAttempts(attempts)})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
