package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// ============================================================================
// HTTP Server
// ============================================================================
// Routes:
//   GET /ws                     state websocket (see state_ws.go)
//   GET /frame.png[?t=<ms>]     current frame, optionally sampled t ms ahead
//   GET /healthz                liveness
// ============================================================================

// frameSource is the part of the renderer the frame handler needs.
type frameSource interface {
	WritePNG(w io.Writer, at time.Time) error
}

// maxFrameOffsetMS caps how far ahead /frame.png may sample.
const maxFrameOffsetMS = 60_000

func newHTTPMux(ws http.Handler, frames frameSource, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	if ws != nil {
		mux.Handle("GET /ws", ws)
	}
	mux.Handle("GET /frame.png", frameHandler(frames, time.Now, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

func frameHandler(frames frameSource, now func() time.Time, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		at := now()
		if raw := r.URL.Query().Get("t"); raw != "" {
			ms, err := strconv.Atoi(raw)
			if err != nil || ms < 0 || ms > maxFrameOffsetMS {
				http.Error(w, fmt.Sprintf("t must be an integer in [0, %d]", maxFrameOffsetMS), http.StatusBadRequest)
				return
			}
			at = at.Add(time.Duration(ms) * time.Millisecond)
		}

		// Encode fully before writing headers so a failure can still return 500.
		var buf bytes.Buffer
		if err := frames.WritePNG(&buf, at); err != nil {
			logger.Error("frame render failed", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = buf.WriteTo(w)
	})
}

// runHTTPServer serves handler on port and shuts it down gracefully when ctx
// is canceled.
func runHTTPServer(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
