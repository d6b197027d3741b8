package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/snappy-loop/muse/internal/audio"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
)

func encodePCM(samples []int16) string {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// fakeSpeechBackend serves a scripted rewrite and per-input PCM payloads.
type fakeSpeechBackend struct {
	rewrite     string
	rewriteErr  error
	speechErrOn string // input substring that triggers a synthesis failure

	rewriteCalls atomic.Int32
	speechCalls  atomic.Int32
}

func (b *fakeSpeechBackend) Rewrite(ctx context.Context, prompt string) (string, error) {
	b.rewriteCalls.Add(1)
	if b.rewriteErr != nil {
		return "", b.rewriteErr
	}
	return b.rewrite, nil
}

func (b *fakeSpeechBackend) GenerateSpeech(ctx context.Context, text string) (string, string, error) {
	b.speechCalls.Add(1)
	if b.speechErrOn != "" && strings.Contains(text, b.speechErrOn) {
		return "", "", errors.New("synthesis refused")
	}
	// Payload length encodes which input this was, so tests can tell the
	// buffers apart.
	samples := make([]int16, len(text)+2)
	return encodePCM(samples), "audio/L16;rate=24000", nil
}

// recordingOutput remembers the last buffer started.
type recordingOutput struct {
	last **audio.SampleBuffer
}

func (r recordingOutput) Start(buf *audio.SampleBuffer) error { *r.last = buf; return nil }
func (r recordingOutput) Close() error                       { return nil }

func newSpeechUnderTest(backend *fakeSpeechBackend, key string) (*Speech, **audio.SampleBuffer) {
	var played *audio.SampleBuffer
	playback := audio.NewPlaybackController(func(int) (audio.Output, error) {
		return recordingOutput{last: &played}, nil
	})
	return NewSpeech(backend, credential.NewStore(key), playback), &played
}

const rewriteWithCues = `A fox crossed the river.
[IMAGE 1]
A red fox on blue ice
And then it slept.`

func TestSpeechGenerate_FullPipeline(t *testing.T) {
	backend := &fakeSpeechBackend{rewrite: rewriteWithCues}
	speech, played := newSpeechUnderTest(backend, "k")

	result, err := speech.Generate(context.Background(), "the fox story")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got := backend.speechCalls.Load(); got != 2 {
		t.Errorf("speech calls = %d, want 2", got)
	}
	if len(result.Cues) != 1 || result.Cues[0].Prompt != "A red fox on blue ice" {
		t.Errorf("cues = %+v", result.Cues)
	}
	if strings.Contains(result.Narration, "[IMAGE") || strings.Contains(result.Narration, "blue ice") {
		t.Errorf("narration still contains cue markup:\n%s", result.Narration)
	}
	if result.OriginalAudio == nil || result.RewrittenAudio == nil {
		t.Fatal("both decoded buffers must be stored")
	}
	// Buffer lengths are input-length derived in the fake: they must differ.
	if len(result.OriginalAudio.Samples) == len(result.RewrittenAudio.Samples) {
		t.Error("original and rewritten buffers should come from different inputs")
	}
	if *played != result.RewrittenAudio {
		t.Error("the rewritten-style buffer must be the one played")
	}
}

func TestSpeechGenerate_NoCues(t *testing.T) {
	backend := &fakeSpeechBackend{rewrite: "Plain prose with no markers at all."}
	speech, _ := newSpeechUnderTest(backend, "k")

	result, err := speech.Generate(context.Background(), "some text")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Cues) != 0 {
		t.Errorf("cues = %+v, want none", result.Cues)
	}
	if result.Narration != backend.rewrite {
		t.Errorf("narration should be the untouched rewrite:\n%s", result.Narration)
	}
}

func TestSpeechGenerate_MissingCredential(t *testing.T) {
	backend := &fakeSpeechBackend{rewrite: "anything"}
	speech, _ := newSpeechUnderTest(backend, "")

	_, err := speech.Generate(context.Background(), "some text")
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if backend.rewriteCalls.Load() != 0 || backend.speechCalls.Load() != 0 {
		t.Error("no network call may be issued without a credential")
	}
}

func TestSpeechGenerate_EmptyInput(t *testing.T) {
	backend := &fakeSpeechBackend{rewrite: "anything"}
	speech, _ := newSpeechUnderTest(backend, "k")

	_, err := speech.Generate(context.Background(), "   \n ")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if backend.rewriteCalls.Load() != 0 {
		t.Error("validation must fail before any network call")
	}
}

func TestSpeechGenerate_OneSynthesisFailureAbortsAll(t *testing.T) {
	// The fake fails only the narration-side request; the original-text
	// request succeeds. The whole operation must still abort.
	backend := &fakeSpeechBackend{rewrite: rewriteWithCues, speechErrOn: "slept"}
	speech, played := newSpeechUnderTest(backend, "k")

	result, err := speech.Generate(context.Background(), "unrelated original input")
	if err == nil {
		t.Fatal("expected aggregated synthesis error")
	}
	if result != nil {
		t.Error("no partial audio result may be stored")
	}
	if got := backend.speechCalls.Load(); got != 2 {
		t.Errorf("both requests must settle before aborting, calls = %d", got)
	}
	if *played != nil {
		t.Error("nothing may be played on failure")
	}
}
