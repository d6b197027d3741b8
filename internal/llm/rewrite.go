package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// Rewrite sends a themed rewrite prompt and returns the generated text.
func (c *Client) Rewrite(ctx context.Context, prompt string) (string, error) {
	if c.llmText == nil {
		return "", fmt.Errorf("text model not initialized: %w", models.ErrConfiguration)
	}

	log.Debug().Int("prompt_length", len(prompt)).Msg("Generating rewrite")

	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}
	opts := []llms.CallOption{
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(1024),
	}

	resp, err := c.llmText.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("rewrite call: %v: %w", err, models.ErrTransport)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rewrite returned no choices: %w", models.ErrFailed)
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	logGeminiResponse("Rewrite", text)
	if text == "" {
		return "", fmt.Errorf("rewrite returned empty text: %w", models.ErrFailed)
	}
	return text, nil
}
