package midi

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebsocketHandler accepts websocket connections whose binary messages carry raw
// MIDI bytes. Each connection gets its own Decoder writing into table; message
// boundaries need not match MIDI message boundaries. Text messages are ignored.
func WebsocketHandler(table *Table, cfg DecoderConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			glog.Warningf("midi: websocket upgrade from %s: %v", r.RemoteAddr, err)
			return
		}
		defer conn.Close()

		c := cfg
		c.Name = "ws:" + r.RemoteAddr
		dec := NewDecoder(table, &c)
		glog.Infof("midi: websocket client %s connected", r.RemoteAddr)

		for {
			typ, p, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					glog.Warningf("midi: websocket client %s: %v", r.RemoteAddr, err)
				}
				return
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			dec.Write(p)
		}
	})
}
