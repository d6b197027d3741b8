package models

import "errors"

// Error kinds for the generation pipelines. Callers wrap these with
// fmt.Errorf("...: %w", kind) and map them to user-facing messages at the
// API boundary with errors.Is.
var (
	// ErrConfiguration: credential missing or not selected. Checked before
	// any network call is issued.
	ErrConfiguration = errors.New("credential not configured")

	// ErrValidation: empty prompt, missing required file, oversized file.
	ErrValidation = errors.New("invalid input")

	// ErrFailed: a required generation step produced no usable result.
	ErrFailed = errors.New("generation failed")

	// ErrNoArtifacts: a batch fan-out settled with zero successes.
	ErrNoArtifacts = errors.New("no artifacts produced")

	// ErrTransport: network failure or non-OK response.
	ErrTransport = errors.New("transport error")

	// ErrCredentialInvalid: the service rejected the stored credential.
	// Forces credential re-selection before the next submission.
	ErrCredentialInvalid = errors.New("credential rejected")

	// ErrDecode: malformed binary audio payload.
	ErrDecode = errors.New("audio payload malformed")
)
