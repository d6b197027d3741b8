package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/snappy-loop/muse/internal/poller"
	"github.com/snappy-loop/muse/internal/prompt"
)

// Starting-frame constraints, checked before any network call.
const MaxFrameBytes = 4 * 1024 * 1024

var allowedFrameTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// Video gates the long-running video pipeline: explicit credential selection
// required, one operation in flight at a time.
type Video struct {
	poller *poller.Poller
	creds  *credential.Store

	mu   sync.Mutex
	busy bool
}

// NewVideo creates the video orchestrator.
func NewVideo(p *poller.Poller, creds *credential.Store) *Video {
	return &Video{poller: p, creds: creds}
}

// Generate validates input, then drives one submission to a terminal state.
// onTransition, when non-nil, observes poller state changes. Re-entrant
// calls while an operation is polling are rejected here, before submission.
func (o *Video) Generate(ctx context.Context, text string, frame *models.SourceImage, onTransition func(poller.State)) ([]byte, error) {
	if !o.creds.Selected() {
		return nil, fmt.Errorf("video requires explicit credential selection: %w", models.ErrConfiguration)
	}
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	themed, err := prompt.Video(text)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, fmt.Errorf("a video generation is already in progress: %w", models.ErrValidation)
	}
	o.busy = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	return o.poller.Run(ctx, themed, frame, onTransition)
}

func validateFrame(frame *models.SourceImage) error {
	if frame == nil || len(frame.Data) == 0 {
		return fmt.Errorf("starting frame is required: %w", models.ErrValidation)
	}
	if !allowedFrameTypes[frame.MimeType] {
		return fmt.Errorf("starting frame must be PNG or JPEG, got %q: %w", frame.MimeType, models.ErrValidation)
	}
	if int64(len(frame.Data)) > MaxFrameBytes {
		return fmt.Errorf("starting frame exceeds %d bytes: %w", MaxFrameBytes, models.ErrValidation)
	}
	return nil
}
