package audio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Output is one allocated audio output resource. Close blocks until the
// resource is fully torn down.
type Output interface {
	Start(buf *SampleBuffer) error
	Close() error
}

// OutputFactory allocates an output at the given sample rate. Injectable so
// tests can observe resource lifecycle and embedders can plug a real device.
type OutputFactory func(sampleRate int) (Output, error)

// PlaybackController owns at most one active audio output. Play tears down
// the previous output, waits for the teardown to complete, then allocates a
// fresh output at the buffer's sample rate. No other component constructs
// outputs.
type PlaybackController struct {
	mu        sync.Mutex
	newOutput OutputFactory
	active    Output
}

// NewPlaybackController creates a controller in the idle state. A nil
// factory gets a no-op output, for headless deployments.
func NewPlaybackController(factory OutputFactory) *PlaybackController {
	if factory == nil {
		factory = func(int) (Output, error) { return nopOutput{}, nil }
	}
	return &PlaybackController{newOutput: factory}
}

// Play schedules the buffer on a freshly allocated output. If an output is
// already active its teardown is awaited first, so the caller never observes
// two live outputs.
func (p *PlaybackController) Play(buf *SampleBuffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		if err := p.active.Close(); err != nil {
			log.Warn().Err(err).Msg("Teardown of previous audio output failed")
		}
		p.active = nil
	}

	out, err := p.newOutput(buf.SampleRate)
	if err != nil {
		return fmt.Errorf("allocate audio output: %w", err)
	}
	if err := out.Start(buf); err != nil {
		_ = out.Close()
		return fmt.Errorf("start playback: %w", err)
	}

	p.active = out
	log.Debug().
		Int("sample_rate", buf.SampleRate).
		Int("samples", len(buf.Samples)).
		Msg("Playback started")
	return nil
}

// Stop tears down the active output. No effect while idle.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return
	}
	if err := p.active.Close(); err != nil {
		log.Warn().Err(err).Msg("Teardown of audio output failed")
	}
	p.active = nil
}

// Playing reports whether an output is currently active.
func (p *PlaybackController) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

type nopOutput struct{}

func (nopOutput) Start(*SampleBuffer) error { return nil }
func (nopOutput) Close() error              { return nil }
