package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/validate"
	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

type SyncHandler struct {
	syncUseCase progress.SyncUseCase
	validator   validate.Validator
}

func NewSyncHandler(
	SyncUseCase progress.SyncUseCase,
	Validator validate.Validator,
) *SyncHandler {
	handler := &SyncHandler{SyncUseCase, Validator}
	return handler
}

type ProgressRequest struct {
	UserID      string `json:"userId" validate:"required"`
	LessonID    string `json:"lessonId" validate:"required"`
	IsCompleted bool   `json:"isCompleted"`
	Position    int    `json:"position" validate:"gte=0"`
}

type NoteRequest struct {
	UserID   string `json:"userId" validate:"required"`
	LessonID string `json:"lessonId" validate:"required"`
	Content  string `json:"content"`
}

type writeResponse struct {
	Success bool `json:"success"`
}

// HandleGetSync return the full per-user state in one payload. An
// unknown user gets empty maps and a 200
func (sh *SyncHandler) HandleGetSync(c echo.Context) (err error) {
	su := sh.syncUseCase
	userID := c.Param("userId")

	if err := sh.validator.Empty("userId", userID); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", err))
	}

	sync, err := su.GetSync(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sync)
}

// HandleUpdateProgress upsert one progress row
func (sh *SyncHandler) HandleUpdateProgress(c echo.Context) (err error) {
	su := sh.syncUseCase
	body := new(ProgressRequest)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse body"))
	}

	// validation
	if err := sh.validator.Struct(body); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", err))
	}

	if err := su.UpsertProgress(c.Request().Context(), body.UserID, body.LessonID, body.IsCompleted, body.Position); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, writeResponse{Success: true})
}

// HandleSaveNote upsert one note row, empty content is a valid note
func (sh *SyncHandler) HandleSaveNote(c echo.Context) (err error) {
	su := sh.syncUseCase
	body := new(NoteRequest)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTStandardError(http.StatusBadRequest, "Failed to parse body"))
	}

	// validation
	if err := sh.validator.Struct(body); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", err))
	}

	if err := su.UpsertNote(c.Request().Context(), body.UserID, body.LessonID, body.Content); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, writeResponse{Success: true})
}
