package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/models"
	"github.com/snappy-loop/muse/internal/poller"
)

// fakeVideoBackend settles immediately; release, when set, blocks submission
// so the re-entrancy test can hold an operation open.
type fakeVideoBackend struct {
	release chan struct{}
	submits atomic.Int32
}

func (b *fakeVideoBackend) SubmitVideo(ctx context.Context, prompt string, frame *models.SourceImage) (*models.OperationHandle, error) {
	b.submits.Add(1)
	if b.release != nil {
		<-b.release
	}
	return &models.OperationHandle{ID: "op", Done: true, ArtifactURI: "https://example.test/v.mp4"}, nil
}

func (b *fakeVideoBackend) PollVideo(ctx context.Context, h *models.OperationHandle) (*models.OperationHandle, error) {
	return h, nil
}

func (b *fakeVideoBackend) DownloadArtifact(ctx context.Context, uri string) ([]byte, error) {
	return []byte("video"), nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func pngFrame(size int) *models.SourceImage {
	return &models.SourceImage{Data: make([]byte, size), MimeType: "image/png"}
}

func newVideoUnderTest(backend *fakeVideoBackend, selected bool) (*Video, *credential.Store) {
	creds := credential.NewStore("k")
	if selected {
		_ = creds.Select("")
	}
	p := poller.New(backend, creds, poller.WithSleep(noSleep))
	return NewVideo(p, creds), creds
}

func TestVideoGenerate_RequiresSelection(t *testing.T) {
	backend := &fakeVideoBackend{}
	video, _ := newVideoUnderTest(backend, false)

	_, err := video.Generate(context.Background(), "a storm", pngFrame(10), nil)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if backend.submits.Load() != 0 {
		t.Error("no submission may happen before credential selection")
	}
}

func TestVideoGenerate_FrameValidation(t *testing.T) {
	tests := []struct {
		name  string
		frame *models.SourceImage
	}{
		{"missing frame", nil},
		{"empty frame", &models.SourceImage{MimeType: "image/png"}},
		{"wrong mime type", &models.SourceImage{Data: []byte{1}, MimeType: "image/gif"}},
		{"oversized frame", pngFrame(MaxFrameBytes + 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeVideoBackend{}
			video, _ := newVideoUnderTest(backend, true)

			_, err := video.Generate(context.Background(), "a storm", tt.frame, nil)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if backend.submits.Load() != 0 {
				t.Error("invalid input must be rejected before any network call")
			}
		})
	}
}

func TestVideoGenerate_Success(t *testing.T) {
	backend := &fakeVideoBackend{}
	video, _ := newVideoUnderTest(backend, true)

	data, err := video.Generate(context.Background(), "a storm", pngFrame(64), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(data) != "video" {
		t.Errorf("artifact = %q", data)
	}
}

func TestVideoGenerate_RejectsReentrantSubmission(t *testing.T) {
	backend := &fakeVideoBackend{release: make(chan struct{})}
	video, _ := newVideoUnderTest(backend, true)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = video.Generate(context.Background(), "a storm", pngFrame(8), nil)
	}()

	// Wait for the first operation to reach the backend, then try again.
	for backend.submits.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	_, err := video.Generate(context.Background(), "another storm", pngFrame(8), nil)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("re-entrant submission error = %v, want ErrValidation", err)
	}

	close(backend.release)
	wg.Wait()
	if backend.submits.Load() != 1 {
		t.Errorf("submits = %d, want 1", backend.submits.Load())
	}
}
