package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/audio"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/cue"
	"github.com/snappy-loop/muse/internal/kafka"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/snappy-loop/muse/internal/orchestrator"
)

// Handler contains all HTTP handlers
type Handler struct {
	speech *orchestrator.Speech
	images *orchestrator.Images
	video  *orchestrator.Video
	creds  *credential.Store
	events *kafka.Producer // optional; nil disables event publishing

	maxFrameBytes int64
}

// NewHandler creates a new handler
func NewHandler(
	speech *orchestrator.Speech,
	images *orchestrator.Images,
	video *orchestrator.Video,
	creds *credential.Store,
	events *kafka.Producer,
	maxFrameBytes int64,
) *Handler {
	return &Handler{
		speech:        speech,
		images:        images,
		video:         video,
		creds:         creds,
		events:        events,
		maxFrameBytes: maxFrameBytes,
	}
}

type generateRequest struct {
	Text string `json:"text"`
}

type audioInfo struct {
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	Samples         int     `json:"samples"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type speechResponse struct {
	RequestID      uuid.UUID `json:"request_id"`
	Rewritten      string    `json:"rewritten"`
	Narration      string    `json:"narration"`
	Cues           []cue.Cue `json:"cues"`
	OriginalAudio  audioInfo `json:"original_audio"`
	RewrittenAudio audioInfo `json:"rewritten_audio"`
	Playing        bool      `json:"playing"`
}

type artifactResponse struct {
	MimeType   string `json:"mime_type"`
	DataBase64 string `json:"data_base64"`
}

type imagesResponse struct {
	RequestID uuid.UUID          `json:"request_id"`
	Artifacts []artifactResponse `json:"artifacts"`
	Succeeded int                `json:"succeeded"`
	Attempted int                `json:"attempted"`
	Notice    string             `json:"notice,omitempty"`
}

// CreateSpeech handles POST /v1/speech
func (h *Handler) CreateSpeech(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	genReq := models.GenerationRequest{ID: uuid.New(), Modality: models.ModalitySpeech, PromptText: req.Text}
	result, err := h.speech.Generate(r.Context(), genReq.PromptText)
	if err != nil {
		log.Error().Err(err).Str("request_id", genReq.ID.String()).Msg("Speech generation failed")
		h.publishEvent(r, genReq, "failed", err.Error())
		writeJSONError(w, errorStatus(err), userMessage(err))
		return
	}

	h.publishEvent(r, genReq, "succeeded", "")
	writeJSON(w, http.StatusOK, speechResponse{
		RequestID:      genReq.ID,
		Rewritten:      result.Rewritten,
		Narration:      result.Narration,
		Cues:           result.Cues,
		OriginalAudio:  bufferInfo(result.OriginalAudio),
		RewrittenAudio: bufferInfo(result.RewrittenAudio),
		Playing:        true,
	})
}

// CreateImages handles POST /v1/images
func (h *Handler) CreateImages(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	genReq := models.GenerationRequest{ID: uuid.New(), Modality: models.ModalityImage, PromptText: req.Text}
	result, err := h.images.Generate(r.Context(), genReq.PromptText)
	if err != nil {
		log.Error().Err(err).Str("request_id", genReq.ID.String()).Msg("Image generation failed")
		h.publishEvent(r, genReq, "failed", err.Error())
		writeJSONError(w, errorStatus(err), userMessage(err))
		return
	}

	resp := imagesResponse{
		RequestID: genReq.ID,
		Artifacts: make([]artifactResponse, 0, len(result.Artifacts)),
		Succeeded: result.Succeeded,
		Attempted: result.Attempted,
	}
	for _, a := range result.Artifacts {
		resp.Artifacts = append(resp.Artifacts, artifactResponse{
			MimeType:   a.MimeType,
			DataBase64: base64.StdEncoding.EncodeToString(a.Data),
		})
	}

	outcome := "succeeded"
	if result.Partial() {
		// Non-fatal: surface a visible notice alongside the artifacts.
		resp.Notice = partialNotice(result.Succeeded, result.Attempted)
		outcome = "partial"
	}
	h.publishEvent(r, genReq, outcome, resp.Notice)
	writeJSON(w, http.StatusOK, resp)
}

// CreateVideo handles POST /v1/video (multipart: text field + frame file)
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	text, frame, err := h.parseVideoForm(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	genReq := models.GenerationRequest{ID: uuid.New(), Modality: models.ModalityVideo, PromptText: text, SourceImage: frame}
	data, err := h.video.Generate(r.Context(), genReq.PromptText, genReq.SourceImage, nil)
	if err != nil {
		log.Error().Err(err).Str("request_id", genReq.ID.String()).Msg("Video generation failed")
		h.publishEvent(r, genReq, "failed", err.Error())
		writeJSONError(w, errorStatus(err), userMessage(err))
		return
	}

	h.publishEvent(r, genReq, "succeeded", "")
	w.Header().Set("Content-Type", "video/mp4")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write video response")
	}
}

// SelectCredential handles POST /v1/credential — the explicit selection step
// gating the video pathway.
func (h *Handler) SelectCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.creds.Select(req.APIKey); err != nil {
		writeJSONError(w, errorStatus(err), userMessage(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) parseVideoForm(r *http.Request) (string, *models.SourceImage, error) {
	if err := r.ParseMultipartForm(h.maxFrameBytes + 64<<10); err != nil {
		return "", nil, errors.New("invalid multipart form")
	}
	text := r.FormValue("text")

	file, header, err := r.FormFile("frame")
	if err != nil {
		// Frame validation (required, type, size) is the orchestrator's
		// job; pass nil through so the error kind is consistent.
		return text, nil, nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFrameBytes+1))
	if err != nil {
		return "", nil, errors.New("failed to read frame upload")
	}
	return text, &models.SourceImage{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

func bufferInfo(buf *audio.SampleBuffer) audioInfo {
	return audioInfo{
		SampleRate:      buf.SampleRate,
		Channels:        buf.Channels,
		Samples:         len(buf.Samples),
		DurationSeconds: buf.Duration(),
	}
}

func (h *Handler) publishEvent(r *http.Request, req models.GenerationRequest, outcome, detail string) {
	if h.events == nil {
		return
	}
	event := kafka.GenerationEvent{RequestID: req.ID, Modality: req.Modality, Outcome: outcome, Detail: detail}
	if err := h.events.PublishGeneration(r.Context(), event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish generation event")
	}
}
