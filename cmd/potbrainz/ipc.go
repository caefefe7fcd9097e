package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"potbrainz/ipc"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// External clients (potctl, potwatch, scripts) send JSON events to the daemon.
//
// Protocol: line-delimited JSON, see package ipc.
// ============================================================================

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, events, logger)
	}
}

// handleIPCConnection handles a single IPC connection
func handleIPCConnection(conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		logger.Debug("IPC received", "line", line)

		response := ipc.Response{Status: ipc.StatusOK}
		ev, err := UnmarshalEvent([]byte(line))
		if err != nil {
			response = ipc.ErrorResponse("parse event: %v", err)
		} else {
			select {
			case events <- ev:
			default:
				response = ipc.ErrorResponse("event queue full")
			}
		}

		if encErr := encoder.Encode(response); encErr != nil {
			logger.Error("IPC failed to send response", "status", response.Status, "error", encErr)
			return
		}
	}

	logger.Debug("IPC connection closed")
}
