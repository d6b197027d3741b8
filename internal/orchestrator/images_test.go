package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
)

type countingImageBackend struct {
	calls      atomic.Int32
	lastPrompt atomic.Pointer[string]
}

func (b *countingImageBackend) GenerateImage(ctx context.Context, prompt string) (*models.Artifact, error) {
	b.calls.Add(1)
	b.lastPrompt.Store(&prompt)
	return &models.Artifact{Data: []byte("img"), MimeType: "image/png"}, nil
}

func TestImagesGenerate_ThemedFanOut(t *testing.T) {
	backend := &countingImageBackend{}
	images := NewImages(backend, credential.NewStore("k"), 5)

	result, err := images.Generate(context.Background(), "a lighthouse")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if backend.calls.Load() != 5 {
		t.Errorf("calls = %d, want 5", backend.calls.Load())
	}
	if result.Succeeded != 5 || result.Partial() {
		t.Errorf("result = %+v", result)
	}
	if p := backend.lastPrompt.Load(); p == nil || !strings.Contains(*p, "a lighthouse") {
		t.Errorf("prompt not themed around user text: %v", p)
	}
}

func TestImagesGenerate_MissingCredential(t *testing.T) {
	backend := &countingImageBackend{}
	images := NewImages(backend, credential.NewStore(""), 5)

	_, err := images.Generate(context.Background(), "a lighthouse")
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if backend.calls.Load() != 0 {
		t.Error("no network call may be issued without a credential")
	}
}

func TestImagesGenerate_EmptyText(t *testing.T) {
	backend := &countingImageBackend{}
	images := NewImages(backend, credential.NewStore("k"), 5)

	if _, err := images.Generate(context.Background(), "  "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}
