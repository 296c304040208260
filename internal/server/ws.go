package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/textmode/img2txt"
)

// framePayload is one converted frame pushed to websocket clients,
// CBOR-encoded as a binary message.
type framePayload struct {
	Index int      `cbor:"index"`
	Total int      `cbor:"total"`
	Rate  float64  `cbor:"fps"`
	Rows  []string `cbor:"rows"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.mu.Unlock()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.pingLoop(conn)

	// Drain the read side so pongs and close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.dropClient(conn)
}

func (s *Server) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		wmu, ok := s.clients[conn]
		s.mu.Unlock()
		if !ok {
			return
		}
		wmu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		wmu.Unlock()
		if err != nil {
			s.dropClient(conn)
			return
		}
	}
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// broadcastFrames pushes every frame of a converted sequence to all
// connected clients. Clients that fail a write are dropped.
func (s *Server) broadcastFrames(seq img2txt.FrameSequence) {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	conns := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, wmu := range s.clients {
		conns[conn] = wmu
	}
	s.mu.Unlock()

	for i, frame := range seq.Frames {
		payload, err := cbor.Marshal(framePayload{
			Index: i,
			Total: len(seq.Frames),
			Rate:  seq.Rate,
			Rows:  frame,
		})
		if err != nil {
			return
		}
		for conn, wmu := range conns {
			wmu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.BinaryMessage, payload)
			wmu.Unlock()
			if err != nil {
				delete(conns, conn)
				s.dropClient(conn)
			}
		}
	}
}
