package bars

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"brestbar/app"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin page only sends refresh notifications, no state.
		return true
	},
}

var (
	liveMu      sync.Mutex
	liveClients = map[string]*websocket.Conn{}
)

// LiveHandler upgrades /bars/live requests to a websocket that receives a
// refresh event whenever the bar collection is replaced.
func LiveHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Log("bars", "Live upgrade failed: %v", err)
		return
	}

	id := uuid.New().String()

	liveMu.Lock()
	liveClients[id] = conn
	liveMu.Unlock()

	// Drain client messages until the connection drops.
	go func() {
		defer func() {
			liveMu.Lock()
			delete(liveClients, id)
			liveMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcastRefresh notifies connected clients that the collection changed.
// Clients that fail to receive are dropped.
func broadcastRefresh() {
	liveMu.Lock()
	defer liveMu.Unlock()

	for id, conn := range liveClients {
		if err := conn.WriteJSON(map[string]string{"event": "refresh"}); err != nil {
			conn.Close()
			delete(liveClients, id)
		}
	}
}
