package orchestrator

import (
	"context"

	"github.com/snappy-loop/muse/internal/batch"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/prompt"
)

// Images runs the themed image batch: one user text, a fixed fan-out of
// identical requests, partial results surfaced rather than discarded.
type Images struct {
	backend batch.Generator
	creds   *credential.Store
	fanOut  int
}

// NewImages creates the image orchestrator. fanOut below 1 falls back to the
// batch default.
func NewImages(backend batch.Generator, creds *credential.Store, fanOut int) *Images {
	if fanOut < 1 {
		fanOut = batch.DefaultFanOut
	}
	return &Images{backend: backend, creds: creds, fanOut: fanOut}
}

// Generate wraps the text in the image template and executes the fan-out.
func (o *Images) Generate(ctx context.Context, text string) (*batch.Result, error) {
	if _, err := o.creds.Key(); err != nil {
		return nil, err
	}
	themed, err := prompt.Image(text)
	if err != nil {
		return nil, err
	}
	return batch.Execute(ctx, o.backend, themed, o.fanOut)
}
