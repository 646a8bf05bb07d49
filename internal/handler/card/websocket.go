package card

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	cardmodel "github.com/Urbandonment/trophy-forge/internal/model/card"
	profilemodel "github.com/Urbandonment/trophy-forge/internal/model/profile"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const writeDeadline = 10 * time.Second

// liveFrame is one JSON progress frame pushed over the live capture socket.
// The final artifact follows as a single binary frame.
type liveFrame struct {
	Stage    string `json:"stage"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// handleLive upgrades the request and streams capture progress while the
// card renders, then pushes the PNG as one binary frame and closes.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := profilemodel.ValidateOnlineID(username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[card] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sendFrame := func(frame liveFrame) {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("[card] failed to push progress frame: %v", err)
		}
	}

	snapshot, err := h.profiles.Fetch(r.Context(), username)
	if err != nil {
		sendFrame(liveFrame{Stage: "error", Error: err.Error()})
		return
	}

	artifact, err := h.captures.Capture(r.Context(), snapshot, captureOptions(r), func(p cardmodel.Progress) {
		sendFrame(liveFrame{Stage: p.Stage, Detail: p.Detail})
	})
	if err != nil {
		sendFrame(liveFrame{Stage: "error", Error: "failed to render the trophy card"})
		return
	}

	sendFrame(liveFrame{Stage: cardmodel.StageDone, Filename: artifact.Filename})

	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteMessage(websocket.BinaryMessage, artifact.Data); err != nil {
		log.Printf("[card] failed to push artifact: %v", err)
		return
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
