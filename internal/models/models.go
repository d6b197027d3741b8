package models

import "github.com/google/uuid"

// Modality selects a generation path.
type Modality string

const (
	ModalitySpeech Modality = "speech"
	ModalityImage  Modality = "image"
	ModalityVideo  Modality = "video"
)

// GenerationRequest describes a single outbound generation call.
// Immutable once issued.
type GenerationRequest struct {
	ID          uuid.UUID
	Modality    Modality
	PromptText  string
	SourceImage *SourceImage
}

// SourceImage is a starting frame for video generation.
type SourceImage struct {
	Data     []byte
	MimeType string
}

// Artifact is one binary payload returned by a generation call.
type Artifact struct {
	Data     []byte
	MimeType string
}

// OperationHandle tracks a long-running generation job. It is updated only
// by polling and transitions to Done exactly once.
type OperationHandle struct {
	ID          string
	Done        bool
	ArtifactURI string
	ErrorText   string
}
