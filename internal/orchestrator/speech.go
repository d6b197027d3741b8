package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/audio"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/cue"
	"github.com/snappy-loop/muse/internal/prompt"
)

// SpeechBackend is the slice of the LLM client the speech pipeline uses.
type SpeechBackend interface {
	Rewrite(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, text string) (encoded string, mimeType string, err error)
}

// SpeechResult is what one speech generation produces. Cues, when non-empty,
// enable the image pipeline; the caller consumes them explicitly.
type SpeechResult struct {
	Rewritten      string    // rewritten text with cue markers retained
	Narration      string    // rewritten text with all cue markup removed
	Cues           []cue.Cue // ordered image cues extracted from the rewrite
	OriginalAudio  *audio.SampleBuffer
	RewrittenAudio *audio.SampleBuffer
}

// Speech composes the rewrite call, cue extraction, the two concurrent
// speech syntheses, decoding and playback.
type Speech struct {
	backend  SpeechBackend
	creds    *credential.Store
	playback *audio.PlaybackController
}

// NewSpeech creates the speech orchestrator.
func NewSpeech(backend SpeechBackend, creds *credential.Store, playback *audio.PlaybackController) *Speech {
	return &Speech{backend: backend, creds: creds, playback: playback}
}

// Generate runs the full speech pipeline for the user text. Failure of
// either audio request aborts the whole operation: no partial audio result
// is kept and a single aggregated error is returned.
func (o *Speech) Generate(ctx context.Context, text string) (*SpeechResult, error) {
	if _, err := o.creds.Key(); err != nil {
		return nil, err
	}
	themed, err := prompt.Speech(text)
	if err != nil {
		return nil, err
	}

	rewritten, err := o.backend.Rewrite(ctx, themed)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	cues := cue.ExtractPrompts(rewritten)
	narration := cue.StripBoth(rewritten)
	log.Info().
		Int("cues", len(cues)).
		Int("narration_length", len(narration)).
		Msg("Rewrite complete")

	// Fan out both speech syntheses before awaiting either.
	type synthesis struct {
		encoded  string
		mimeType string
		err      error
	}
	inputs := []string{text, narration}
	outcomes := make([]synthesis, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			encoded, mimeType, err := o.backend.GenerateSpeech(ctx, input)
			outcomes[i] = synthesis{encoded: encoded, mimeType: mimeType, err: err}
		}(i, input)
	}
	wg.Wait()

	var synthErrs []error
	for _, out := range outcomes {
		if out.err != nil {
			synthErrs = append(synthErrs, out.err)
		}
	}
	if len(synthErrs) > 0 {
		return nil, fmt.Errorf("speech synthesis: %w", errors.Join(synthErrs...))
	}

	originalBuf, err := audio.Decode(outcomes[0].encoded)
	if err != nil {
		return nil, fmt.Errorf("original audio: %w", err)
	}
	rewrittenBuf, err := audio.Decode(outcomes[1].encoded)
	if err != nil {
		return nil, fmt.Errorf("rewritten audio: %w", err)
	}

	if err := o.playback.Play(rewrittenBuf); err != nil {
		log.Warn().Err(err).Msg("Playback of rewritten audio failed")
	}

	return &SpeechResult{
		Rewritten:      rewritten,
		Narration:      narration,
		Cues:           cues,
		OriginalAudio:  originalBuf,
		RewrittenAudio: rewrittenBuf,
	}, nil
}
