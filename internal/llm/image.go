package llm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
)

// GenerateImage generates one image from a prompt with strict IMAGE modality.
// A response without an inline blob is an error the fan-out layer counts as
// an individual failure.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*models.Artifact, error) {
	if c.genaiClient == nil {
		return nil, fmt.Errorf("genai client not initialized: %w", models.ErrConfiguration)
	}

	log.Debug().
		Str("prompt_preview", prompt[:minInt(80, len(prompt))]).
		Msg("Generating image")

	model := c.genaiClient.GenerativeModel(c.modelImage)
	// Strict modality: request native image output
	setResponseModality(model, []string{"IMAGE"})

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("image call: %v: %w", err, models.ErrTransport)
	}

	logGeminiResponse("GenerateImage", fmt.Sprintf("candidates=%d", len(resp.Candidates)))
	for i, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for j, part := range cand.Content.Parts {
			blob, ok := part.(genai.Blob)
			if !ok || len(blob.Data) == 0 {
				continue
			}
			mimeType := blob.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			log.Info().
				Str("caller", "GenerateImage").
				Int64("image_size_bytes", int64(len(blob.Data))).
				Str("mime_type", mimeType).
				Int("candidate", i).
				Int("part", j).
				Msg("Gemini response (image blob)")
			return &models.Artifact{Data: blob.Data, MimeType: mimeType}, nil
		}
	}

	log.Warn().
		Str("model", c.modelImage).
		Int("candidates", len(resp.Candidates)).
		Msg("No image blob in Gemini response")
	return nil, fmt.Errorf("no image blob in response: %w", models.ErrFailed)
}

// setResponseModality sets model.ResponseModality when the genai SDK exposes it.
// Uses reflection so it no-ops on older SDKs that don't have the field.
func setResponseModality(model *genai.GenerativeModel, modalities []string) {
	v := reflect.ValueOf(model).Elem()
	f := v.FieldByName("ResponseModality")
	if !f.IsValid() || !f.CanSet() {
		log.Debug().Msg("ResponseModality not available on GenerativeModel")
		return
	}
	if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
		f.Set(reflect.ValueOf(modalities))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
