package service

import (
	"strconv"
	"testing"

	"app/internal/model"
)

func lessonSet(ids ...string) []model.Lesson {
	lessons := make([]model.Lesson, 0, len(ids))
	for i, id := range ids {
		lessons = append(lessons, model.Lesson{ID: id, Title: "Lesson " + id, Position: i + 1, IsPublished: true})
	}
	return lessons
}

func completedFacts(userID string, lessonIDs ...string) []model.CompletionFact {
	facts := make([]model.CompletionFact, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		facts = append(facts, model.CompletionFact{UserID: userID, LessonID: id, Completed: true})
	}
	return facts
}

func TestBuildCourseProgressNoLessons(t *testing.T) {
	p := BuildCourseProgress(nil, completedFacts("u1", "l1"))
	if p.Percentage != 0 {
		t.Fatalf("percentage = %d, want 0", p.Percentage)
	}
	if p.Status != model.ProgressStatusNotStarted {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusNotStarted)
	}
}

func TestBuildCourseProgressNotStarted(t *testing.T) {
	p := BuildCourseProgress(lessonSet("l1", "l2"), nil)
	if p.CompletedCount != 0 || p.TotalCount != 2 || p.Percentage != 0 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p.Status != model.ProgressStatusNotStarted {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusNotStarted)
	}
}

func TestBuildCourseProgressInProgressRounding(t *testing.T) {
	// 1 of 3 completed rounds to 33, 2 of 3 to 67.
	p := BuildCourseProgress(lessonSet("l1", "l2", "l3"), completedFacts("u1", "l1"))
	if p.Percentage != 33 {
		t.Fatalf("percentage = %d, want 33", p.Percentage)
	}
	p = BuildCourseProgress(lessonSet("l1", "l2", "l3"), completedFacts("u1", "l1", "l2"))
	if p.Percentage != 67 {
		t.Fatalf("percentage = %d, want 67", p.Percentage)
	}
	if p.Status != model.ProgressStatusInProgress {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusInProgress)
	}
}

func TestBuildCourseProgressStatusFollowsRoundedPercentage(t *testing.T) {
	// With 300 lessons, 1 completion rounds to 0% and 299 to 100%; the
	// status must agree with the rounded percentage in both cases.
	ids := make([]string, 300)
	for i := range ids {
		ids[i] = "l" + strconv.Itoa(i)
	}
	published := lessonSet(ids...)

	p := BuildCourseProgress(published, completedFacts("u1", ids[0]))
	if p.Percentage != 0 {
		t.Fatalf("percentage = %d, want 0", p.Percentage)
	}
	if p.Status != model.ProgressStatusNotStarted {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusNotStarted)
	}

	p = BuildCourseProgress(published, completedFacts("u1", ids[:299]...))
	if p.Percentage != 100 {
		t.Fatalf("percentage = %d, want 100", p.Percentage)
	}
	if p.Status != model.ProgressStatusCompleted {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusCompleted)
	}
}

func TestBuildCourseProgressCompleted(t *testing.T) {
	p := BuildCourseProgress(lessonSet("l1", "l2"), completedFacts("u1", "l1", "l2"))
	if p.Percentage != 100 || p.Status != model.ProgressStatusCompleted {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestBuildCourseProgressIgnoresUnpublishedFacts(t *testing.T) {
	// A fact for a lesson outside the published set must not count.
	published := lessonSet("l1", "l2")
	facts := completedFacts("u1", "l1", "l99")
	p := BuildCourseProgress(published, facts)
	if p.CompletedCount != 1 {
		t.Fatalf("completed = %d, want 1", p.CompletedCount)
	}
	if p.Status != model.ProgressStatusInProgress {
		t.Fatalf("status = %s, want %s", p.Status, model.ProgressStatusInProgress)
	}
}

func TestBuildCourseProgressIgnoresIncompleteFacts(t *testing.T) {
	facts := []model.CompletionFact{{UserID: "u1", LessonID: "l1", Completed: false}}
	p := BuildCourseProgress(lessonSet("l1"), facts)
	if p.CompletedCount != 0 || p.Status != model.ProgressStatusNotStarted {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestPartitionFactsByUser(t *testing.T) {
	facts := append(completedFacts("u1", "l1", "l2"), completedFacts("u2", "l1")...)
	byUser := PartitionFactsByUser(facts)
	if len(byUser) != 2 {
		t.Fatalf("users = %d, want 2", len(byUser))
	}
	if len(byUser["u1"]) != 2 || len(byUser["u2"]) != 1 {
		t.Fatalf("unexpected partition: u1=%d u2=%d", len(byUser["u1"]), len(byUser["u2"]))
	}
	if byUser["u3"] != nil {
		t.Fatal("missing user should map to nil slice")
	}
}
