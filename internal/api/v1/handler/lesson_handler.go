package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// LessonHandler handles per-lesson endpoints: completion and publish
// flag changes.
type LessonHandler struct {
	contentService  service.ContentService
	progressService service.ProgressService
	validate        *validator.Validate
}

// NewLessonHandler creates a new LessonHandler
func NewLessonHandler(contentService service.ContentService, progressService service.ProgressService, validate *validator.Validate) *LessonHandler {
	return &LessonHandler{
		contentService:  contentService,
		progressService: progressService,
		validate:        validate,
	}
}

// RegisterRoutes mounts lesson routes
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/lessons/", authMw(http.HandlerFunc(h.handleLesson)))
}

func (h *LessonHandler) handleLesson(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/lessons/")
	lessonID, sub, _ := strings.Cut(rest, "/")
	if lessonID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "complete" && r.Method == http.MethodPost:
		h.completeLesson(w, r, lessonID)
	case sub == "" && r.Method == http.MethodPatch:
		h.updatePublishFlag(w, r, lessonID)
	default:
		http.NotFound(w, r)
	}
}

// completeLesson godoc
// @Summary Mark a lesson as completed by the authenticated user
// @Description Completion is monotonic; completing an already-completed lesson is a no-op.
// @Tags engagement
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} handler.errorBody
// @Router /lessons/{lessonId}/complete [post]
func (h *LessonHandler) completeLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.progressService.MarkComplete(r.Context(), userID, lessonID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updatePublishFlag godoc
// @Summary Toggle a lesson's publish flag
// @Tags content
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param lesson body dto.LessonPublishDTO true "Publish flag"
// @Success 200 {object} dto.LessonResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 404 {object} handler.errorBody
// @Router /lessons/{lessonId} [patch]
func (h *LessonHandler) updatePublishFlag(w http.ResponseWriter, r *http.Request, lessonID string) {
	var req dto.LessonPublishDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	lesson, err := h.contentService.SetLessonPublished(r.Context(), lessonID, *req.IsPublished)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLessonResponseDTO(lesson))
}
