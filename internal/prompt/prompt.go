package prompt

import (
	"fmt"
	"strings"

	"github.com/snappy-loop/muse/internal/models"
)

// Fixed stylistic templates per modality. Prompt wording is deliberately not
// configurable; the user text is the only variable part.
const (
	speechTemplate = `Rewrite the following text as a short, vivid story told aloud by a warm narrator. Keep it under two minutes of speech. After any paragraph that deserves an illustration, insert a line of the exact form "[IMAGE n]" (n counting up from 1) followed by a single line describing that illustration. Return only the story text.

Text:
%s`

	imageTemplate = `A richly detailed storybook illustration, soft painterly light, of: %s`

	videoTemplate = `A short cinematic clip with gentle camera motion and warm natural light, showing: %s`
)

// Speech wraps user text in the speech-rewrite template.
func Speech(text string) (string, error) {
	return build(speechTemplate, text)
}

// Image wraps user text in the image-generation template.
func Image(text string) (string, error) {
	return build(imageTemplate, text)
}

// Video wraps user text in the video-generation template.
func Video(text string) (string, error) {
	return build(videoTemplate, text)
}

func build(template, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("prompt text is empty: %w", models.ErrValidation)
	}
	return fmt.Sprintf(template, text), nil
}
