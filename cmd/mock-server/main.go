// Command mock-server is a development stand-in for the companion
// server: it performs the handshake, echoes operator text back as a
// streamed reply, and can replay an MP3 file for audio exercises.
// It exists so the client can be driven end to end without the real
// backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/room4-2/OpenCompanion/frames"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64KB for audio chunks
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type mockServer struct {
	mp3 []byte // optional clip replayed after each text reply
}

func main() {
	port := flag.Int("port", 8000, "listen port")
	mp3Path := flag.String("audio", "", "MP3 file replayed after each reply")
	flag.Parse()

	srv := &mockServer{}
	if *mp3Path != "" {
		data, err := os.ReadFile(*mp3Path)
		if err != nil {
			log.Fatalf("Failed to read audio file: %v", err)
		}
		srv.mp3 = data
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", srv.handleWebSocket)

	log.Printf("🚀 Mock companion server starting on port %d", *port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%d/ws/<client-id>", *port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *mockServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimPrefix(r.URL.Path, "/ws/")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("✅ Client %s connected", clientID)

	// Handshake: greeting out, companion and mode selections in.
	if err := conn.WriteMessage(websocket.TextMessage,
		[]byte("Welcome! Pick a companion to talk to.")); err != nil {
		return
	}
	companion, err := readText(conn)
	if err != nil {
		log.Printf("Handshake aborted: %v", err)
		return
	}
	mode, err := readText(conn)
	if err != nil {
		log.Printf("Handshake aborted: %v", err)
		return
	}
	log.Printf("Client %s selected companion %q, mode %q", clientID, companion, mode)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Client %s disconnected: %v", clientID, err)
			return
		}

		switch messageType {
		case websocket.TextMessage:
			line := string(data)
			if strings.HasPrefix(line, "!interrupt ") {
				// Exercise the interrupt-and-announce path.
				payload := strings.TrimPrefix(line, "!interrupt ")
				if err := conn.WriteMessage(websocket.TextMessage,
					[]byte(frames.InterruptPrefix+payload)); err != nil {
					return
				}
				continue
			}
			if err := s.reply(conn, companion, line); err != nil {
				return
			}
		case websocket.BinaryMessage:
			log.Printf("Client %s sent %d bytes of audio", clientID, len(data))
			if err := s.reply(conn, companion, "I heard you."); err != nil {
				return
			}
		}
	}
}

// reply streams a canned response word by word, replays the optional
// clip, and closes the turn.
func (s *mockServer) reply(conn *websocket.Conn, companion, line string) error {
	text := fmt.Sprintf("%s says: %s", companion, line)
	for _, word := range strings.Fields(text) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(word+" ")); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	if s.mp3 != nil {
		if err := conn.WriteMessage(websocket.BinaryMessage, s.mp3); err != nil {
			return err
		}
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(frames.TurnEndMarker))
}

func readText(conn *websocket.Conn) (string, error) {
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if messageType != websocket.TextMessage {
		return "", fmt.Errorf("expected text message, got type %d", messageType)
	}
	return string(data), nil
}
