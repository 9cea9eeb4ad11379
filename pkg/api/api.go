// Package api exposes template compilation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/neurodesk/vltemplate/pkg/ctxfile"
	"github.com/neurodesk/vltemplate/pkg/engine"
)

const CompilePath = "/api/compile"

type compileRequest struct {
	Code string          `json:"code"`
	Ctx  json.RawMessage `json:"ctx"`
}

type compileResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handler serves POST /api/compile.
type Handler struct {
	log          *slog.Logger
	maxBodyBytes int64
}

func NewHandler(log *slog.Logger, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, maxBodyBytes: maxBodyBytes}
}

// Routes returns a mux with the compile endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(CompilePath, h)
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reply(w, r, http.StatusMethodNotAllowed, compileResponse{Error: "method not allowed"})
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reply(w, r, http.StatusRequestEntityTooLarge, compileResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		h.reply(w, r, http.StatusBadRequest, compileResponse{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}

	ctx, err := ctxfile.Parse(req.Ctx)
	if err != nil {
		h.reply(w, r, http.StatusBadRequest, compileResponse{Error: fmt.Sprintf("decoding ctx: %v", err)})
		return
	}

	out, err := engine.Compile(req.Code, ctx, engine.WithLogger(h.log))
	if err != nil {
		h.reply(w, r, http.StatusInternalServerError, compileResponse{Error: engine.Describe(err)})
		return
	}
	h.reply(w, r, http.StatusOK, compileResponse{Code: out})
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, status int, body compileResponse) {
	level := slog.LevelInfo
	if status != http.StatusOK {
		level = slog.LevelWarn
	}
	h.log.Log(r.Context(), level, "compile request", "status", status, "remote", r.RemoteAddr, "error", body.Error)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("writing response", "error", err)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts the server down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serve(ctx, ln, handler, log)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", ln.Addr().String(), "path", CompilePath)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
