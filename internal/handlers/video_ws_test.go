package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/snappy-loop/muse/internal/orchestrator"
	"github.com/snappy-loop/muse/internal/poller"
)

// stubVideoBackend reports done after doneAfter polls.
type stubVideoBackend struct {
	doneAfter int
	polls     int
}

func (b *stubVideoBackend) SubmitVideo(ctx context.Context, prompt string, frame *models.SourceImage) (*models.OperationHandle, error) {
	return &models.OperationHandle{ID: "op-1"}, nil
}

func (b *stubVideoBackend) PollVideo(ctx context.Context, h *models.OperationHandle) (*models.OperationHandle, error) {
	b.polls++
	if b.polls < b.doneAfter {
		return &models.OperationHandle{ID: h.ID}, nil
	}
	return &models.OperationHandle{ID: h.ID, Done: true, ArtifactURI: "https://example.test/v.mp4"}, nil
}

func (b *stubVideoBackend) DownloadArtifact(ctx context.Context, uri string) ([]byte, error) {
	return []byte("mp4-bytes"), nil
}

func TestVideoWS_SingleTerminalMessage(t *testing.T) {
	creds := credential.NewStore("k")
	if err := creds.Select(""); err != nil {
		t.Fatalf("select: %v", err)
	}
	p := poller.New(&stubVideoBackend{doneAfter: 2}, creds,
		poller.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	video := orchestrator.NewVideo(p, creds)
	h := NewHandler(nil, nil, video, creds, nil, 4<<20)

	srv := httptest.NewServer(http.HandlerFunc(h.VideoWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	in := videoWSInMessage{
		Text:        "a fox runs across the ice",
		FrameBase64: base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		FrameMime:   "image/png",
	}
	if err := conn.WriteJSON(in); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msgs []videoWSOutMessage
	for {
		var m videoWSOutMessage
		if err := conn.ReadJSON(&m); err != nil {
			break // server closes the connection after the result frame
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		t.Fatal("no messages received")
	}

	terminal := 0
	for i, m := range msgs {
		if m.State == string(poller.StateSucceeded) || m.State == string(poller.StateFailed) {
			terminal++
			if i != len(msgs)-1 {
				t.Errorf("terminal state arrived at message %d of %d", i+1, len(msgs))
			}
		}
	}
	if terminal != 1 {
		t.Fatalf("terminal messages = %d, want exactly 1: %+v", terminal, msgs)
	}

	if msgs[0].State != string(poller.StateSubmitted) {
		t.Errorf("first state = %q, want %q", msgs[0].State, poller.StateSubmitted)
	}
	last := msgs[len(msgs)-1]
	if last.State != string(poller.StateSucceeded) {
		t.Errorf("final state = %q, want %q", last.State, poller.StateSucceeded)
	}
	data, err := base64.StdEncoding.DecodeString(last.VideoBase64)
	if err != nil || string(data) != "mp4-bytes" {
		t.Errorf("final payload = %q (err %v)", last.VideoBase64, err)
	}
}
