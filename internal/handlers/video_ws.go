package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/snappy-loop/muse/internal/poller"
)

const videoWSReadLimit = 8 << 20 // frame uploads arrive base64-encoded inline

var videoWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// videoWSInMessage is the JSON shape sent from the client.
type videoWSInMessage struct {
	Text        string `json:"text"`
	FrameBase64 string `json:"frame_base64"`
	FrameMime   string `json:"frame_mime"`
}

// videoWSOutMessage is the JSON shape sent to the client.
type videoWSOutMessage struct {
	State       string `json:"state"`
	VideoBase64 string `json:"video_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

// VideoWS handles GET /v1/video/ws — WebSocket endpoint streaming poller
// state transitions while a video generation runs.
func (h *Handler) VideoWS(w http.ResponseWriter, r *http.Request) {
	conn, err := videoWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("video ws upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(videoWSReadLimit)
	conn.SetReadDeadline(time.Now().Add(30 * time.Minute))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		log.Debug().Err(err).Msg("video ws read")
		return
	}

	var in videoWSInMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		_ = writeWSJSON(conn, videoWSOutMessage{State: string(poller.StateFailed), Error: "invalid JSON: " + err.Error()})
		return
	}

	var frame *models.SourceImage
	if in.FrameBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(in.FrameBase64)
		if err != nil {
			_ = writeWSJSON(conn, videoWSOutMessage{State: string(poller.StateFailed), Error: "invalid frame_base64"})
			return
		}
		frame = &models.SourceImage{Data: data, MimeType: in.FrameMime}
	}

	// Terminal states are reported once, by the result frame below.
	onTransition := func(s poller.State) {
		if s == poller.StateSucceeded || s == poller.StateFailed {
			return
		}
		_ = writeWSJSON(conn, videoWSOutMessage{State: string(s)})
	}

	data, err := h.video.Generate(r.Context(), in.Text, frame, onTransition)
	if err != nil {
		_ = writeWSJSON(conn, videoWSOutMessage{State: string(poller.StateFailed), Error: userMessage(err)})
		return
	}

	_ = writeWSJSON(conn, videoWSOutMessage{
		State:       string(poller.StateSucceeded),
		VideoBase64: base64.StdEncoding.EncodeToString(data),
	})
}

func writeWSJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	return conn.WriteJSON(v)
}
