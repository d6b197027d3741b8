package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
)

// DefaultInterval is the fixed wait between poll cycles.
const DefaultInterval = 10 * time.Second

// notFoundPattern in a failure text means the service never knew the
// credential; distinct from a generic transport failure and forces
// re-selection.
const notFoundPattern = "Requested entity was not found"

// State is one poller state. Succeeded and Failed are terminal.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Backend drives the long-running video job.
type Backend interface {
	SubmitVideo(ctx context.Context, prompt string, frame *models.SourceImage) (*models.OperationHandle, error)
	PollVideo(ctx context.Context, h *models.OperationHandle) (*models.OperationHandle, error)
	DownloadArtifact(ctx context.Context, uri string) ([]byte, error)
}

// SleepFunc waits out the poll interval. Injectable so tests run without
// real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller drives one long-running job to a terminal state. It never retries a
// failed operation; retry is an explicit new Run by the caller.
type Poller struct {
	backend  Backend
	creds    *credential.Store
	interval time.Duration
	sleep    SleepFunc
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the fixed poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithSleep overrides the sleep function.
func WithSleep(sleep SleepFunc) Option {
	return func(p *Poller) { p.sleep = sleep }
}

// New creates a poller over the given backend and credential store.
func New(backend Backend, creds *credential.Store, opts ...Option) *Poller {
	p := &Poller{
		backend:  backend,
		creds:    creds,
		interval: DefaultInterval,
		sleep:    defaultSleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run submits the job, polls it until terminal, then downloads the artifact.
// onTransition, when non-nil, observes every state change in order.
func (p *Poller) Run(ctx context.Context, prompt string, frame *models.SourceImage, onTransition func(State)) ([]byte, error) {
	notify := func(s State) {
		if onTransition != nil {
			onTransition(s)
		}
	}

	handle, err := p.backend.SubmitVideo(ctx, prompt, frame)
	if err != nil {
		notify(StateFailed)
		return nil, p.classify(err)
	}
	notify(StateSubmitted)

	polls := 0
	for !handle.Done {
		notify(StatePolling)
		if err := p.sleep(ctx, p.interval); err != nil {
			notify(StateFailed)
			return nil, fmt.Errorf("poll wait: %v: %w", err, models.ErrTransport)
		}
		handle, err = p.backend.PollVideo(ctx, handle)
		if err != nil {
			notify(StateFailed)
			return nil, p.classify(err)
		}
		polls++
	}

	if handle.ArtifactURI == "" {
		notify(StateFailed)
		log.Warn().
			Str("operation", handle.ID).
			Str("error_text", handle.ErrorText).
			Int("polls", polls).
			Msg("Video operation finished without artifact")
		return nil, p.classifyText(handle.ErrorText)
	}

	notify(StateSucceeded)
	log.Info().
		Str("operation", handle.ID).
		Int("polls", polls).
		Msg("Video operation succeeded")

	data, err := p.backend.DownloadArtifact(ctx, handle.ArtifactURI)
	if err != nil {
		return nil, p.classify(fmt.Errorf("artifact download: %w", err))
	}
	return data, nil
}

// classify inspects a submit/poll error: a not-found pattern means the
// credential itself was rejected and must be re-selected.
func (p *Poller) classify(err error) error {
	if errors.Is(err, models.ErrCredentialInvalid) || strings.Contains(err.Error(), notFoundPattern) {
		p.creds.Invalidate()
		return fmt.Errorf("video operation: %v: %w", err, models.ErrCredentialInvalid)
	}
	if errors.Is(err, models.ErrTransport) {
		return err
	}
	return fmt.Errorf("video operation: %v: %w", err, models.ErrTransport)
}

func (p *Poller) classifyText(errorText string) error {
	if strings.Contains(errorText, notFoundPattern) {
		p.creds.Invalidate()
		return fmt.Errorf("video operation: %s: %w", errorText, models.ErrCredentialInvalid)
	}
	if errorText == "" {
		errorText = "operation finished without artifact"
	}
	return fmt.Errorf("video operation: %s: %w", errorText, models.ErrTransport)
}
