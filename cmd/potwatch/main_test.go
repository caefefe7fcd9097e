package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_DeliversDecodedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"state_init","data":{"value":0.1,"variant":"base"}}`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = c.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"value_changed","data":{"value":0.4,"angle":0.2}}`))
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var got []any
	err = watch(context.Background(), conn, func(v any) { got = append(got, v) })
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, stateInit{Value: 0.1, Variant: "base"}, got[0])
	assert.Equal(t, valueChanged{Value: 0.4, Angle: 0.2}, got[1])
}
