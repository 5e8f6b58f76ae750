package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// fakeCourseRepo mirrors the transactional CAS semantics of the real
// repository in memory: a transition only applies when the status
// precondition holds, otherwise ErrStatusConflict.
type fakeCourseRepo struct {
	courses  map[string]*model.Course
	events   []model.CourseEvent
	enqueued []string // course ids with a pending cascade job
}

func newFakeCourseRepo(courses ...*model.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[string]*model.Course)}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (r *fakeCourseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	c.Status = model.CourseStatusDraft
	c.IsPublished = false
	r.courses[c.ID] = c
	return nil
}

func (r *fakeCourseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	c, ok := r.courses[courseID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCourseRepo) SubmitForReview(ctx context.Context, courseID, actorID string, from []model.CourseStatus) error {
	c, ok := r.courses[courseID]
	if !ok {
		return repository.ErrStatusConflict
	}
	legal := false
	for _, s := range from {
		if c.Status == s {
			legal = true
			break
		}
	}
	if !legal {
		return repository.ErrStatusConflict
	}
	c.Status = model.CourseStatusPendingReview
	c.RejectionReason = nil
	r.events = append(r.events, model.CourseEvent{CourseID: courseID, ActorID: actorID, EventType: model.CourseEventSubmitted})
	return nil
}

func (r *fakeCourseRepo) ApproveCourse(ctx context.Context, courseID, reviewerID, cascadeQueue string) error {
	c, ok := r.courses[courseID]
	if !ok || c.Status != model.CourseStatusPendingReview {
		return repository.ErrStatusConflict
	}
	now := time.Now()
	c.Status = model.CourseStatusPublished
	c.IsPublished = true
	c.ReviewedBy = &reviewerID
	c.ReviewedAt = &now
	c.PublishedAt = &now
	r.events = append(r.events, model.CourseEvent{CourseID: courseID, ActorID: reviewerID, EventType: model.CourseEventApproved})
	r.enqueued = append(r.enqueued, courseID)
	return nil
}

func (r *fakeCourseRepo) RejectCourse(ctx context.Context, courseID, reviewerID, reason string, to model.CourseStatus) error {
	c, ok := r.courses[courseID]
	if !ok || c.Status != model.CourseStatusPendingReview {
		return repository.ErrStatusConflict
	}
	now := time.Now()
	c.Status = to
	c.RejectionReason = &reason
	c.ReviewedBy = &reviewerID
	c.ReviewedAt = &now
	eventType := model.CourseEventRejected
	if to == model.CourseStatusNeedsChanges {
		eventType = model.CourseEventChangesRequested
	}
	r.events = append(r.events, model.CourseEvent{CourseID: courseID, ActorID: reviewerID, EventType: eventType})
	return nil
}

func (r *fakeCourseRepo) UpdateCourseContent(ctx context.Context, c *model.Course, demote bool, actorID string) error {
	stored, ok := r.courses[c.ID]
	if !ok {
		return repository.ErrStatusConflict
	}
	if demote {
		if stored.Status != model.CourseStatusPublished {
			return repository.ErrStatusConflict
		}
		c.Status = model.CourseStatusPendingReview
		c.IsPublished = false
		r.events = append(r.events, model.CourseEvent{CourseID: c.ID, ActorID: actorID, EventType: model.CourseEventEditDemoted})
	}
	copied := *c
	r.courses[c.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) ListEventsByCourseID(ctx context.Context, courseID string) ([]model.CourseEvent, error) {
	var out []model.CourseEvent
	for _, e := range r.events {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeModuleRepo struct {
	count int
}

func (r *fakeModuleRepo) CreateModule(ctx context.Context, m *model.Module) error { return nil }
func (r *fakeModuleRepo) GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error) {
	return nil, nil
}
func (r *fakeModuleRepo) GetModulesByCourseID(ctx context.Context, courseID string) ([]model.Module, error) {
	return nil, nil
}
func (r *fakeModuleRepo) CountModulesByCourseID(ctx context.Context, courseID string) (int, error) {
	return r.count, nil
}

type fakeLessonRepo struct {
	submittable int
	lessons     []model.Lesson
}

func (r *fakeLessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error { return nil }
func (r *fakeLessonRepo) GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	for i := range r.lessons {
		if r.lessons[i].ID == lessonID {
			return &r.lessons[i], nil
		}
	}
	return nil, nil
}
func (r *fakeLessonRepo) GetLessonsByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	return r.lessons, nil
}
func (r *fakeLessonRepo) GetLessonsByCourseID(ctx context.Context, courseID string, publishedOnly bool) ([]model.Lesson, error) {
	if !publishedOnly {
		return r.lessons, nil
	}
	var out []model.Lesson
	for _, l := range r.lessons {
		if l.IsPublished {
			out = append(out, l)
		}
	}
	return out, nil
}
func (r *fakeLessonRepo) CountSubmittableLessons(ctx context.Context, courseID string) (int, error) {
	return r.submittable, nil
}
func (r *fakeLessonRepo) SetLessonPublished(ctx context.Context, lessonID string, published bool) error {
	return nil
}
func (r *fakeLessonRepo) ResequenceLessons(ctx context.Context, moduleID string, orderedIDs []string) error {
	return nil
}

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	p.published = append(p.published, topic)
	return "msg-1", nil
}

func draftCourse(id string) *model.Course {
	return &model.Course{
		ID:           id,
		InstructorID: "instructor-1",
		Title:        "Go Basics",
		Description:  "Intro course",
		Category:     "programming",
		Level:        "beginner",
		PriceCents:   4900,
		Status:       model.CourseStatusDraft,
	}
}

func newTestLifecycleService(courses *fakeCourseRepo, modules *fakeModuleRepo, lessons *fakeLessonRepo) (LifecycleService, *fakePublisher) {
	pub := &fakePublisher{}
	svc := NewLifecycleService(courses, modules, lessons, pub, "course_lifecycle_events", "lesson_publish_queue", zerolog.Nop())
	return svc, pub
}

func TestSubmitDraftCourse(t *testing.T) {
	courses := newFakeCourseRepo(draftCourse("c1"))
	svc, pub := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 3})

	course, err := svc.Submit(context.Background(), "c1", "instructor-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if course.Status != model.CourseStatusPendingReview {
		t.Fatalf("status = %s, want %s", course.Status, model.CourseStatusPendingReview)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.published))
	}
}

func TestSubmitEmptyCourseRejected(t *testing.T) {
	courses := newFakeCourseRepo(draftCourse("c1"))
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 0}, &fakeLessonRepo{submittable: 0})

	_, err := svc.Submit(context.Background(), "c1", "instructor-1")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// The course must not have moved.
	c, _ := courses.GetCourseByID(context.Background(), "c1")
	if c.Status != model.CourseStatusDraft {
		t.Fatalf("status = %s, want draft", c.Status)
	}
}

func TestSubmitCourseWithoutLessonContentRejected(t *testing.T) {
	courses := newFakeCourseRepo(draftCourse("c1"))
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 2}, &fakeLessonRepo{submittable: 0})

	_, err := svc.Submit(context.Background(), "c1", "instructor-1")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitPublishedCourseConflicts(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPublished
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	_, err := svc.Submit(context.Background(), "c1", "instructor-1")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestSubmitUnknownCourseNotFound(t *testing.T) {
	svc, _ := newTestLifecycleService(newFakeCourseRepo(), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})
	_, err := svc.Submit(context.Background(), "missing", "instructor-1")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResubmitAfterRejection(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusNeedsChanges
	reason := "needs a capstone project"
	course.RejectionReason = &reason
	courses := newFakeCourseRepo(course)
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	updated, err := svc.Submit(context.Background(), "c1", "instructor-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if updated.Status != model.CourseStatusPendingReview {
		t.Fatalf("status = %s, want pending_review", updated.Status)
	}
	if updated.RejectionReason != nil {
		t.Fatal("resubmission should clear the previous rejection reason")
	}
}

func TestApproveCoursePublishesAndEnqueuesCascade(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	courses := newFakeCourseRepo(course)
	svc, pub := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	updated, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionApprove, "")
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if updated.Status != model.CourseStatusPublished || !updated.IsPublished {
		t.Fatalf("course not published: %+v", updated)
	}
	if updated.PublishedAt == nil || updated.ReviewedBy == nil {
		t.Fatal("approval must record reviewer and publish time")
	}
	if len(courses.enqueued) != 1 || courses.enqueued[0] != "c1" {
		t.Fatalf("cascade enqueue = %v, want [c1]", courses.enqueued)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.published))
	}
}

func TestRejectRequiresSubstantialReason(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	_, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionReject, "too short")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for short reason, got %v", err)
	}
	_, err = svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionReject, "   padded    ")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("whitespace must not count toward the reason length, got %v", err)
	}
	// 4 runes but 12 bytes; the minimum counts characters, not bytes.
	_, err = svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionReject, "内容不足")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("multi-byte reason under the minimum must be rejected, got %v", err)
	}
}

func TestRejectStoresReason(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	updated, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionReject, "missing practical exercises in module two")
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if updated.Status != model.CourseStatusRejected {
		t.Fatalf("status = %s, want rejected", updated.Status)
	}
	if updated.RejectionReason == nil || *updated.RejectionReason != "missing practical exercises in module two" {
		t.Fatalf("rejection reason not stored: %v", updated.RejectionReason)
	}
}

func TestRequestChangesKeepsCourseSubmittable(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	updated, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionRequestChanges, "please expand the summary sections")
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if updated.Status != model.CourseStatusNeedsChanges {
		t.Fatalf("status = %s, want needs_changes", updated.Status)
	}
	if !updated.Status.CanSubmit() {
		t.Fatal("needs_changes course must be resubmittable")
	}
}

func TestDoubleReviewConflicts(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	if _, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecisionApprove, ""); err != nil {
		t.Fatalf("first review failed: %v", err)
	}
	_, err := svc.Review(context.Background(), "c1", "reviewer-2", model.ReviewDecisionReject, "changed my mind about this one")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("second review should conflict, got %v", err)
	}
}

func TestReviewUnknownDecision(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPendingReview
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	_, err := svc.Review(context.Background(), "c1", "reviewer-1", model.ReviewDecision("escalate"), "")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEditMajorFieldDemotesPublishedCourse(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPublished
	course.IsPublished = true
	courses := newFakeCourseRepo(course)
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	price := int64(9900)
	updated, requiresReapproval, err := svc.ApplyEdit(context.Background(), "c1", "instructor-1", model.CourseEdit{PriceCents: &price})
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}
	if !requiresReapproval {
		t.Fatal("price change should require re-approval")
	}
	if updated.Status != model.CourseStatusPendingReview || updated.IsPublished {
		t.Fatalf("course should be demoted to review: %+v", updated)
	}
	if updated.PriceCents != 9900 {
		t.Fatalf("edit not applied, price = %d", updated.PriceCents)
	}
}

func TestEditMinorFieldKeepsCoursePublished(t *testing.T) {
	course := draftCourse("c1")
	course.Status = model.CourseStatusPublished
	course.IsPublished = true
	svc, _ := newTestLifecycleService(newFakeCourseRepo(course), &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	thumb := "https://cdn.example.com/new-thumb.png"
	updated, requiresReapproval, err := svc.ApplyEdit(context.Background(), "c1", "instructor-1", model.CourseEdit{ThumbnailURL: &thumb})
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}
	if requiresReapproval {
		t.Fatal("thumbnail change should not require re-approval")
	}
	if updated.Status != model.CourseStatusPublished || !updated.IsPublished {
		t.Fatalf("course should stay published: %+v", updated)
	}
}

func TestEditMajorFieldOnDraftStaysDraft(t *testing.T) {
	courses := newFakeCourseRepo(draftCourse("c1"))
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	title := "Go Fundamentals"
	updated, requiresReapproval, err := svc.ApplyEdit(context.Background(), "c1", "instructor-1", model.CourseEdit{Title: &title})
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}
	// The diff is major, but a draft has nothing to demote.
	if !requiresReapproval {
		t.Fatal("title change is a major-field change")
	}
	if updated.Status != model.CourseStatusDraft {
		t.Fatalf("status = %s, want draft", updated.Status)
	}
}

func TestListEventsRecordsTrail(t *testing.T) {
	courses := newFakeCourseRepo(draftCourse("c1"))
	svc, _ := newTestLifecycleService(courses, &fakeModuleRepo{count: 1}, &fakeLessonRepo{submittable: 1})

	ctx := context.Background()
	if _, err := svc.Submit(ctx, "c1", "instructor-1"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := svc.Review(ctx, "c1", "reviewer-1", model.ReviewDecisionApprove, ""); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	events, err := svc.ListEvents(ctx, "c1")
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].EventType != model.CourseEventSubmitted || events[1].EventType != model.CourseEventApproved {
		t.Fatalf("unexpected event trail: %+v", events)
	}
}
