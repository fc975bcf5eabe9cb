package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bitchan/bitmessage/wire"
)

// TestWebSocketTransportHandshake dials a real WebSocket server (backed by
// WebSocketTransport.Handler) and confirms the dialing side establishes, which
// needs the server's version and verack frames to arrive whole through the
// wsStream adapter over gorilla/websocket.
func TestWebSocketTransportHandshake(t *testing.T) {
	services := servicesWith(wire.NodeNetwork)

	serverT := NewWebSocketTransport(0, []uint64{1}, 1, services, "test/1.0", nil)
	srv := httptest.NewServer(serverT.Handler())
	defer srv.Close()

	clientT := NewWebSocketTransport(0, []uint64{1}, 2, services, "test/1.0", nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := clientT.Connect(ctx, wsURL)
	require.NoError(t, err)

	established := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for len(established) < 1 {
		select {
		case e := <-clientT.Events():
			if e.Kind == EventEstablished {
				established["client"] = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for client to establish")
		}
	}
	require.True(t, established["client"])

	clientT.Close()
	serverT.Close()
}
