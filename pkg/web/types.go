// Package web provides the HTTP handlers and SSE endpoints of the execution
// tracking API.
package web

// RegisterStepRequest is the request body for registering a step under an
// execution.
type RegisterStepRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// LogArtifactRequest is the request body for logging an inline artifact.
type LogArtifactRequest struct {
	Type        string `json:"type"        validate:"required,oneof=IMAGE LOG JSON_DATA"`
	Description string `json:"description"`
	Content     string `json:"content"`
}
