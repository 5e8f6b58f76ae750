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

// CourseHandler handles course-related endpoints: lifecycle transitions,
// content tree, enrollment, ratings, progress and analytics.
type CourseHandler struct {
	lifecycleService  service.LifecycleService
	contentService    service.ContentService
	enrollmentService service.EnrollmentService
	progressService   service.ProgressService
	analyticsService  service.AnalyticsService
	exportService     service.ExportService
	validate          *validator.Validate
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(
	lifecycleService service.LifecycleService,
	contentService service.ContentService,
	enrollmentService service.EnrollmentService,
	progressService service.ProgressService,
	analyticsService service.AnalyticsService,
	exportService service.ExportService,
	validate *validator.Validate,
) *CourseHandler {
	return &CourseHandler{
		lifecycleService:  lifecycleService,
		contentService:    contentService,
		enrollmentService: enrollmentService,
		progressService:   progressService,
		analyticsService:  analyticsService,
		exportService:     exportService,
		validate:          validate,
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", authMw(http.HandlerFunc(h.createCourse)))
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	if rest == "" || rest == r.URL.Path {
		http.NotFound(w, r)
		return
	}
	courseID, sub, _ := strings.Cut(rest, "/")
	if courseID == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.getCourse(w, r, courseID)
	case sub == "" && r.Method == http.MethodPatch:
		h.updateCourse(w, r, courseID)
	case sub == "submit" && r.Method == http.MethodPost:
		h.submitCourse(w, r, courseID)
	case sub == "review" && r.Method == http.MethodPost:
		h.reviewCourse(w, r, courseID)
	case sub == "events" && r.Method == http.MethodGet:
		h.listEvents(w, r, courseID)
	case sub == "modules" && r.Method == http.MethodPost:
		h.createModule(w, r, courseID)
	case sub == "modules" && r.Method == http.MethodGet:
		h.listModules(w, r, courseID)
	case sub == "enroll" && r.Method == http.MethodPost:
		h.enroll(w, r, courseID)
	case sub == "rating" && r.Method == http.MethodPut:
		h.rateCourse(w, r, courseID)
	case sub == "progress" && r.Method == http.MethodGet:
		h.getProgress(w, r, courseID)
	case sub == "analytics" && r.Method == http.MethodGet:
		h.getAnalytics(w, r, courseID)
	case sub == "analytics/export" && r.Method == http.MethodPost:
		h.exportAnalytics(w, r, courseID)
	default:
		http.NotFound(w, r)
	}
}

// createCourse godoc
// @Summary Create a new course
// @Description Creates a new draft course owned by the authenticated instructor.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/courses" {
		http.NotFound(w, r)
		return
	}
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	course := &model.Course{
		InstructorID: userID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		PriceCents:   req.PriceCents,
		ContentType:  req.ContentType,
		ThumbnailURL: req.ThumbnailURL,
	}
	created, err := h.lifecycleService.CreateCourse(r.Context(), course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewCourseResponseDTO(created))
}

// getCourse godoc
// @Summary Get a course
// @Description Retrieves a course by its ID.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	course, err := h.lifecycleService.GetCourseByID(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponseDTO(course))
}

// updateCourse godoc
// @Summary Update a course
// @Description Applies a partial edit. Changing a major field (title, description, category, level, price) on a published course demotes it back to review.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param course body dto.CourseUpdateDTO true "Course update request"
// @Success 200 {object} dto.UpdateCourseResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 404 {object} handler.errorBody
// @Failure 409 {object} handler.errorBody
// @Router /courses/{courseId} [patch]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	updated, requiresReapproval, err := h.lifecycleService.ApplyEdit(r.Context(), courseID, userID, req.ToEdit())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UpdateCourseResponseDTO{
		Course:             dto.NewCourseResponseDTO(updated),
		RequiresReapproval: requiresReapproval,
	})
}

// submitCourse godoc
// @Summary Submit a course for review
// @Description Moves a draft or rejected course to pending_review. Requires at least one module and one lesson with content.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 409 {object} handler.errorBody
// @Router /courses/{courseId}/submit [post]
func (h *CourseHandler) submitCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	course, err := h.lifecycleService.Submit(r.Context(), courseID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponseDTO(course))
}

// reviewCourse godoc
// @Summary Review a pending course
// @Description Records an approve/reject/request_changes decision. Reject and request_changes require a reason of at least 10 characters.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param review body dto.ReviewRequestDTO true "Review decision"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 409 {object} handler.errorBody
// @Router /courses/{courseId}/review [post]
func (h *CourseHandler) reviewCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	course, err := h.lifecycleService.Review(r.Context(), courseID, userID, model.ReviewDecision(req.Decision), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponseDTO(course))
}

// listEvents godoc
// @Summary List a course's audit trail
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} dto.CourseEventDTO
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/events [get]
func (h *CourseHandler) listEvents(w http.ResponseWriter, r *http.Request, courseID string) {
	events, err := h.lifecycleService.ListEvents(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.CourseEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, dto.NewCourseEventDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// createModule godoc
// @Summary Add a module to a course
// @Tags content
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param module body dto.ModuleCreateDTO true "Module creation request"
// @Success 201 {object} dto.ModuleResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/modules [post]
func (h *CourseHandler) createModule(w http.ResponseWriter, r *http.Request, courseID string) {
	var req dto.ModuleCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	module, err := h.contentService.CreateModule(r.Context(), courseID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewModuleResponseDTO(module))
}

// listModules godoc
// @Summary List a course's modules in position order
// @Tags content
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} dto.ModuleResponseDTO
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/modules [get]
func (h *CourseHandler) listModules(w http.ResponseWriter, r *http.Request, courseID string) {
	modules, err := h.contentService.GetModulesByCourseID(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.ModuleResponseDTO, 0, len(modules))
	for i := range modules {
		out = append(out, dto.NewModuleResponseDTO(&modules[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// enroll godoc
// @Summary Enroll the authenticated user in a published course
// @Tags engagement
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 201 {object} dto.EnrollmentResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 409 {object} handler.errorBody
// @Router /courses/{courseId}/enroll [post]
func (h *CourseHandler) enroll(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	enrollment, err := h.enrollmentService.Enroll(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewEnrollmentResponseDTO(enrollment))
}

// rateCourse godoc
// @Summary Rate a course
// @Description Creates or replaces the authenticated user's rating for the course. Requires enrollment.
// @Tags engagement
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param rating body dto.RatingCreateDTO true "Rating request"
// @Success 200 {object} dto.RatingResponseDTO
// @Failure 400 {object} handler.errorBody
// @Failure 403 {object} handler.errorBody
// @Router /courses/{courseId}/rating [put]
func (h *CourseHandler) rateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.RatingCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("invalid JSON payload: "+err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, model.NewValidationError("validation failed: "+err.Error()))
		return
	}
	rating, err := h.enrollmentService.RateCourse(r.Context(), userID, courseID, req.Rating, req.Review)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRatingResponseDTO(rating))
}

// getProgress godoc
// @Summary Get the authenticated user's progress in a course
// @Description Progress is derived from completion facts over the currently published lessons.
// @Tags engagement
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.ProgressResponseDTO
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/progress [get]
func (h *CourseHandler) getProgress(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	if _, err := h.lifecycleService.GetCourseByID(r.Context(), courseID); err != nil {
		writeError(w, err)
		return
	}
	progress, err := h.progressService.GetUserCourseProgress(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProgressResponseDTO(courseID, userID, progress))
}

// getAnalytics godoc
// @Summary Get a course's analytics
// @Description Returns the enrollment trend, engagement funnel, rating summary and aggregate metrics.
// @Tags analytics
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} model.CourseAnalytics
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/analytics [get]
func (h *CourseHandler) getAnalytics(w http.ResponseWriter, r *http.Request, courseID string) {
	analytics, err := h.analyticsService.GetCourseAnalytics(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// exportAnalytics godoc
// @Summary Export a course's analytics snapshot to object storage
// @Tags analytics
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 201 {object} dto.ExportResponseDTO
// @Failure 404 {object} handler.errorBody
// @Router /courses/{courseId}/analytics/export [post]
func (h *CourseHandler) exportAnalytics(w http.ResponseWriter, r *http.Request, courseID string) {
	analytics, err := h.analyticsService.GetCourseAnalytics(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	key, url, err := h.exportService.ExportAnalytics(r.Context(), analytics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ExportResponseDTO{
		Key:         key,
		DownloadURL: url,
		GeneratedAt: analytics.GeneratedAt,
	})
}
