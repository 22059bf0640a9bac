package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/services"
	"github.com/gustavoteixeirah/debugattor/pkg/storage"
)

type APIHandlers struct {
	executionService *services.Execution
	stepService      *services.Step
	artifactService  *services.Artifact
	blobs            storage.BlobStore
	validator        *validator.Validate
}

func NewAPIHandlers(
	executionService *services.Execution,
	stepService *services.Step,
	artifactService *services.Artifact,
	blobs storage.BlobStore,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		executionService: executionService,
		stepService:      stepService,
		artifactService:  artifactService,
		blobs:            blobs,
		validator:        validator,
	}
}

func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	execution, err := h.executionService.Start(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	limit := 0
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid offset parameter")
		}

		offset = parsed
	}

	executions, err := h.executionService.List(c.Context(), limit, offset)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id, err := executionID(c)
	if err != nil {
		return badRequest(c, "Invalid execution ID")
	}

	execution, err := h.executionService.GetByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CompleteExecution(c fiber.Ctx) error {
	id, err := executionID(c)
	if err != nil {
		return badRequest(c, "Invalid execution ID")
	}

	err = h.executionService.Complete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) FailExecution(c fiber.Ctx) error {
	id, err := executionID(c)
	if err != nil {
		return badRequest(c, "Invalid execution ID")
	}

	err = h.executionService.Fail(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DeleteExecution(c fiber.Ctx) error {
	id, err := executionID(c)
	if err != nil {
		return badRequest(c, "Invalid execution ID")
	}

	deleted, err := h.executionService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if !deleted {
		return notFound(c, "execution not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RegisterStep(c fiber.Ctx) error {
	id, err := executionID(c)
	if err != nil {
		return badRequest(c, "Invalid execution ID")
	}

	var req RegisterStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.stepService.Register(c.Context(), id, req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) CompleteStep(c fiber.Ctx) error {
	id, err := stepID(c)
	if err != nil {
		return badRequest(c, "Invalid step ID")
	}

	err = h.stepService.Complete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) FailStep(c fiber.Ctx) error {
	id, err := stepID(c)
	if err != nil {
		return badRequest(c, "Invalid step ID")
	}

	err = h.stepService.Fail(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) LogArtifact(c fiber.Ctx) error {
	id, err := stepID(c)
	if err != nil {
		return badRequest(c, "Invalid step ID")
	}

	var req LogArtifactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	artifact, err := h.artifactService.Log(c.Context(), id,
		models.ArtifactType(req.Type), req.Description, req.Content)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(artifact)
}

// UploadArtifact logs a file artifact: multipart fields "type", "description"
// and "file". The response artifact's content is the blob URL.
func (h *APIHandlers) UploadArtifact(c fiber.Ctx) error {
	id, err := stepID(c)
	if err != nil {
		return badRequest(c, "Invalid step ID")
	}

	artifactType := models.ArtifactType(c.FormValue("type"))
	if !artifactType.Valid() {
		return badRequest(c, "Invalid artifact type")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing file upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Unreadable file upload")
	}
	defer file.Close()

	artifact, err := h.artifactService.LogFile(c.Context(), id, artifactType,
		c.FormValue("description"), fileHeader.Filename,
		fileHeader.Header.Get(fiber.HeaderContentType), file, fileHeader.Size)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(artifact)
}

// DownloadFile streams a stored blob back to the client.
func (h *APIHandlers) DownloadFile(c fiber.Ctx) error {
	objectName := c.Params("objectName")
	if objectName == "" {
		return badRequest(c, "Object name is required")
	}

	reader, err := h.blobs.Get(c.Context(), objectName)
	if err != nil {
		return notFound(c, "file not found")
	}

	return c.SendStream(reader)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.executionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Debugattor API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Debugattor API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func executionID(c fiber.Ctx) (string, error) {
	id := c.Params("id")

	return id, uuid.Validate(id)
}

func stepID(c fiber.Ctx) (string, error) {
	id := c.Params("stepId")

	return id, uuid.Validate(id)
}
