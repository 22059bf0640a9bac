package models

import "time"

// ArtifactType selects how artifact content is interpreted.
type ArtifactType string

const (
	ArtifactTypeImage    ArtifactType = "IMAGE"     // base64 image data or a blob storage URL
	ArtifactTypeLog      ArtifactType = "LOG"       // plain text
	ArtifactTypeJSONData ArtifactType = "JSON_DATA" // a JSON document
)

// Valid reports whether t is one of the known artifact types.
func (t ArtifactType) Valid() bool {
	switch t {
	case ArtifactTypeImage, ArtifactTypeLog, ArtifactTypeJSONData:
		return true
	default:
		return false
	}
}

// Artifact is evidence attached to a step. Content is immutable after
// creation except for the single backfill that replaces a file-upload
// placeholder with the blob storage URL.
type Artifact struct {
	ID          string       `json:"id"`
	StepID      string       `json:"step_id"`
	Type        ArtifactType `json:"type"`
	Description string       `json:"description,omitempty"`
	Content     string       `json:"content"`
	LoggedAt    time.Time    `json:"logged_at"`
}
