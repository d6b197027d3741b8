package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
	unifiedgenai "google.golang.org/genai"
)

// SubmitVideo starts a long-running video generation job and returns its
// handle. The starting frame, when present, seeds the first frame of the clip.
func (c *Client) SubmitVideo(ctx context.Context, prompt string, frame *models.SourceImage) (*models.OperationHandle, error) {
	if c.unifiedClient == nil {
		return nil, fmt.Errorf("unified genai client not initialized: %w", models.ErrConfiguration)
	}

	var image *unifiedgenai.Image
	if frame != nil {
		image = &unifiedgenai.Image{ImageBytes: frame.Data, MIMEType: frame.MimeType}
	}
	config := &unifiedgenai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     c.videoResolution,
		AspectRatio:    c.videoAspectRatio,
	}

	op, err := c.unifiedClient.Models.GenerateVideos(ctx, c.modelVideo, prompt, image, config)
	if err != nil {
		return nil, fmt.Errorf("video submit: %v: %w", err, models.ErrTransport)
	}

	c.opsMu.Lock()
	c.ops[op.Name] = op
	c.opsMu.Unlock()

	log.Info().
		Str("operation", op.Name).
		Str("model", c.modelVideo).
		Bool("has_frame", frame != nil).
		Msg("Video generation submitted")

	return handleFromOperation(op), nil
}

// PollVideo queries the job once and returns the updated handle.
func (c *Client) PollVideo(ctx context.Context, h *models.OperationHandle) (*models.OperationHandle, error) {
	c.opsMu.Lock()
	op, ok := c.ops[h.ID]
	c.opsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown operation %q: %w", h.ID, models.ErrTransport)
	}

	op, err := c.unifiedClient.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, fmt.Errorf("video poll: %v: %w", err, models.ErrTransport)
	}

	c.opsMu.Lock()
	if op.Done {
		delete(c.ops, h.ID)
	} else {
		c.ops[h.ID] = op
	}
	c.opsMu.Unlock()

	log.Debug().Str("operation", h.ID).Bool("done", op.Done).Msg("Video operation polled")
	return handleFromOperation(op), nil
}

// DownloadArtifact fetches the generated artifact, authenticating by
// appending the credential as a query parameter.
func (c *Client) DownloadArtifact(ctx context.Context, artifactURI string) ([]byte, error) {
	u, err := url.Parse(artifactURI)
	if err != nil {
		return nil, fmt.Errorf("artifact uri: %v: %w", err, models.ErrTransport)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("artifact request: %v: %w", err, models.ErrTransport)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("artifact download: %v: %w", err, models.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artifact download status %d: %w", resp.StatusCode, models.ErrTransport)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("artifact read: %v: %w", err, models.ErrTransport)
	}

	log.Info().
		Str("uri", artifactURI).
		Int("size_bytes", len(data)).
		Msg("Video artifact downloaded")
	return data, nil
}

// handleFromOperation translates an SDK operation into the neutral handle the
// poller state machine consumes.
func handleFromOperation(op *unifiedgenai.GenerateVideosOperation) *models.OperationHandle {
	h := &models.OperationHandle{ID: op.Name, Done: op.Done}
	if op.Error != nil {
		h.ErrorText = fmt.Sprintf("%v", op.Error["message"])
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0].Video; v != nil {
			h.ArtifactURI = v.URI
		}
	}
	return h
}
