package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
	unifiedgenai "google.golang.org/genai"
)

// GenerateSpeech synthesizes speech for the given text with the fixed
// configured voice. Returns the raw PCM payload base64-encoded, plus its
// MIME type (audio/L16;rate=24000 per the TTS contract), for the decoder.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (string, string, error) {
	if c.unifiedClient == nil {
		return "", "", fmt.Errorf("unified genai client not initialized: %w", models.ErrConfiguration)
	}

	log.Debug().
		Str("model", c.modelTTS).
		Str("voice", c.ttsVoice).
		Int("text_length", len(text)).
		Msg("Generating speech")

	contents := []*unifiedgenai.Content{
		{
			Role: "user",
			Parts: []*unifiedgenai.Part{
				unifiedgenai.NewPartFromText(text),
			},
		},
	}

	temp := float32(1.0)
	config := &unifiedgenai.GenerateContentConfig{
		Temperature:        &temp,
		ResponseModalities: []string{"audio"},
		SpeechConfig: &unifiedgenai.SpeechConfig{
			VoiceConfig: &unifiedgenai.VoiceConfig{
				PrebuiltVoiceConfig: &unifiedgenai.PrebuiltVoiceConfig{
					VoiceName: c.ttsVoice,
				},
			},
		},
	}

	// Collect audio data from streaming response
	var audioBuffer bytes.Buffer
	var lastMimeType string

	for resp, err := range c.unifiedClient.Models.GenerateContentStream(ctx, c.modelTTS, contents, config) {
		if err != nil {
			return "", "", fmt.Errorf("TTS stream: %v: %w", err, models.ErrTransport)
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		cand := resp.Candidates[0]
		if cand.Content == nil || cand.Content.Parts == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				audioBuffer.Write(part.InlineData.Data)
				if part.InlineData.MIMEType != "" {
					lastMimeType = part.InlineData.MIMEType
				}
			}
		}
	}

	if audioBuffer.Len() == 0 {
		return "", "", fmt.Errorf("TTS returned no audio data: %w", models.ErrFailed)
	}
	if lastMimeType == "" {
		lastMimeType = "audio/L16;rate=24000"
	}

	log.Info().
		Str("caller", "GenerateSpeech").
		Int("audio_size_bytes", audioBuffer.Len()).
		Str("voice", c.ttsVoice).
		Str("mime_type", lastMimeType).
		Msg("TTS audio generated")

	return base64.StdEncoding.EncodeToString(audioBuffer.Bytes()), lastMimeType, nil
}
