package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"potbrainz/ipc"
)

// ============================================================================
// potwatch - state websocket subscriber
// ============================================================================
// Default mode is a terminal gauge that mirrors the dial and can drive it
// with the mouse. -plain prints one line per frame instead.
// ============================================================================

// pongWait must exceed the daemon's ping period.
const pongWait = 60 * time.Second

func main() {
	var (
		wsURL      = flag.String("ws", "ws://127.0.0.1:3002/ws", "potbrainz state websocket URL")
		socketPath = flag.String("socket", ipc.DefaultSocketPath, "potbrainz IPC socket (for drag and turn input)")
		plain      = flag.Bool("plain", false, "Print frames as lines instead of the TUI")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", u, err)
	}
	defer conn.Close()

	if *plain {
		log.Printf("connected to %s (press Ctrl+C to exit)", u)
		if err := watch(ctx, conn, func(v any) { fmt.Println(formatPlain(v)) }); err != nil {
			log.Printf("connection closed: %v", err)
		}
		return
	}

	send := func(typ string, data any) error { return ipc.Send(*socketPath, typ, data) }
	p := tea.NewProgram(newModel(send), tea.WithAltScreen(), tea.WithMouseCellMotion())

	go func() {
		p.Send(connMsg{connected: true})
		err := watch(ctx, conn, func(v any) { p.Send(frameMsg{frame: v}) })
		p.Send(connMsg{connected: false, err: err})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running potwatch: %v\n", err)
		os.Exit(1)
	}
}

// watch reads frames from conn until it closes or ctx is canceled, handing
// each decoded frame to onFrame. Undecodable frames are skipped.
func watch(ctx context.Context, conn *websocket.Conn, onFrame func(any)) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errors.New("server closed the connection")
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := decodeFrame(raw)
		if err != nil {
			continue
		}
		onFrame(frame)
	}
}
