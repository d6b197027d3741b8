package audio

import (
	"fmt"
	"testing"
)

// fakeOutput records its lifecycle so tests can assert teardown ordering.
type fakeOutput struct {
	id      int
	rate    int
	started bool
	closed  bool
	log     *[]string
}

func (f *fakeOutput) Start(buf *SampleBuffer) error {
	f.started = true
	*f.log = append(*f.log, eventf("start", f.id))
	return nil
}

func (f *fakeOutput) Close() error {
	f.closed = true
	*f.log = append(*f.log, eventf("close", f.id))
	return nil
}

func eventf(kind string, id int) string {
	return fmt.Sprintf("%s %d", kind, id)
}

func newFakeFactory(outputs *[]*fakeOutput, events *[]string) OutputFactory {
	return func(rate int) (Output, error) {
		out := &fakeOutput{id: len(*outputs), rate: rate, log: events}
		*outputs = append(*outputs, out)
		return out, nil
	}
}

func TestPlay_AllocatesAtBufferRate(t *testing.T) {
	var outputs []*fakeOutput
	var events []string
	p := NewPlaybackController(newFakeFactory(&outputs, &events))

	buf := &SampleBuffer{SampleRate: 24000, Channels: 1, Samples: []float64{0}}
	if err := p.Play(buf); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(outputs) != 1 || outputs[0].rate != 24000 || !outputs[0].started {
		t.Errorf("expected one started output at 24000 Hz, got %+v", outputs)
	}
	if !p.Playing() {
		t.Error("controller should be playing")
	}
}

func TestPlay_TearsDownPreviousBeforeAllocating(t *testing.T) {
	var outputs []*fakeOutput
	var events []string
	p := NewPlaybackController(newFakeFactory(&outputs, &events))

	buf := &SampleBuffer{SampleRate: 24000, Channels: 1, Samples: []float64{0}}
	if err := p.Play(buf); err != nil {
		t.Fatalf("play A: %v", err)
	}
	if err := p.Play(buf); err != nil {
		t.Fatalf("play B: %v", err)
	}

	// Exactly one active output: A closed, B started, in that order.
	want := []string{eventf("start", 0), eventf("close", 0), eventf("start", 1)}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if !outputs[0].closed {
		t.Error("output A leaked: never closed")
	}
	if outputs[1].closed {
		t.Error("output B should still be active")
	}
}

func TestStop_IdleIsNoOp(t *testing.T) {
	var outputs []*fakeOutput
	var events []string
	p := NewPlaybackController(newFakeFactory(&outputs, &events))

	p.Stop() // idle: nothing to do
	if len(events) != 0 {
		t.Errorf("unexpected events: %v", events)
	}

	buf := &SampleBuffer{SampleRate: 24000, Channels: 1, Samples: []float64{0}}
	if err := p.Play(buf); err != nil {
		t.Fatalf("play: %v", err)
	}
	p.Stop()
	if p.Playing() {
		t.Error("controller should be idle after Stop")
	}
	p.Stop() // second stop is a no-op
	if !outputs[0].closed {
		t.Error("output not closed by Stop")
	}
}
