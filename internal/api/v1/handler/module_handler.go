package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

// ModuleHandler handles lesson management under a module.
type ModuleHandler struct {
	contentService service.ContentService
	validate       *validator.Validate
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(contentService service.ContentService, validate *validator.Validate) *ModuleHandler {
	return &ModuleHandler{contentService: contentService, validate: validate}
}

// RegisterRoutes mounts module routes
func (h *ModuleHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/modules/", authMw(http.HandlerFunc(h.handleModule)))
}

func (h *ModuleHandler) handleModule(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/modules/")
	moduleID, sub, _ := strings.Cut(rest, "/")
	if moduleID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "lessons" && r.Method == http.MethodPost:
		h.createLesson(w, r, moduleID)
	case sub == "lessons" && r.Method == http.MethodGet:
		h.listLessons(w, r, moduleID)
	case sub == "lessons/reorder" && r.Method == http.MethodPost:
		h.reorderLessons(w, r, moduleID)
	default:
		http.NotFound(w, r)
	}
}

// createLesson godoc
// @Summary Add a lesson to a module
// @Description Creates an unpublished lesson at the end of the module.
// @Tags content
// @Accept json
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param lesson body dto.LessonCreateDTO true "Lesson creation request"
// @Success 201 {object} dto.LessonResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 404 {object} handler.errorBody
// @Router /modules/{moduleId}/lessons [post]
func (h *ModuleHandler) createLesson(w http.ResponseWriter, r *http.Request, moduleID string) {
	var req dto.LessonCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	lesson, err := h.contentService.CreateLesson(r.Context(), moduleID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewLessonResponseDTO(lesson))
}

// listLessons godoc
// @Summary List a module's lessons in position order
// @Tags content
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {array} dto.LessonResponseDTO
// @Failure 404 {object} handler.errorBody
// @Router /modules/{moduleId}/lessons [get]
func (h *ModuleHandler) listLessons(w http.ResponseWriter, r *http.Request, moduleID string) {
	lessons, err := h.contentService.GetLessonsByModuleID(r.Context(), moduleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLessonResponseDTOs(lessons))
}

// reorderLessons godoc
// @Summary Reorder a module's lessons
// @Description Accepts the complete lesson order and reassigns positions 1..n.
// @Tags content
// @Accept json
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param order body dto.LessonReorderDTO true "Full lesson order"
// @Success 200 {array} dto.LessonResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 404 {object} handler.errorBody
// @Router /modules/{moduleId}/lessons/reorder [post]
func (h *ModuleHandler) reorderLessons(w http.ResponseWriter, r *http.Request, moduleID string) {
	var req dto.LessonReorderDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	lessons, err := h.contentService.ReorderLessons(r.Context(), moduleID, req.LessonIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLessonResponseDTOs(lessons))
}
