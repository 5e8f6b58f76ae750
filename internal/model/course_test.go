package model

import "testing"

func TestCourseStatusCanSubmit(t *testing.T) {
	cases := []struct {
		status CourseStatus
		want   bool
	}{
		{CourseStatusDraft, true},
		{CourseStatusRejected, true},
		{CourseStatusNeedsChanges, true},
		{CourseStatusPendingReview, false},
		{CourseStatusPublished, false},
	}
	for _, c := range cases {
		if got := c.status.CanSubmit(); got != c.want {
			t.Fatalf("CanSubmit(%s) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestCourseStatusCanReview(t *testing.T) {
	if !CourseStatusPendingReview.CanReview() {
		t.Fatal("pending_review should be reviewable")
	}
	for _, s := range []CourseStatus{CourseStatusDraft, CourseStatusPublished, CourseStatusRejected, CourseStatusNeedsChanges} {
		if s.CanReview() {
			t.Fatalf("status %s should not be reviewable", s)
		}
	}
}

func TestCourseStatusIsValid(t *testing.T) {
	if CourseStatus("archived").IsValid() {
		t.Fatal("unknown status should not be valid")
	}
	if !CourseStatusNeedsChanges.IsValid() {
		t.Fatal("needs_changes should be valid")
	}
}

func TestRequiresReapprovalMajorFieldChange(t *testing.T) {
	course := &Course{
		Title:       "Go Basics",
		Description: "Intro course",
		Category:    "programming",
		Level:       "beginner",
		PriceCents:  4900,
	}

	// Price is a major field.
	next := *course
	next.PriceCents = 9900
	if !RequiresReapproval(course.Major(), next.Major()) {
		t.Fatal("price change should require re-approval")
	}

	// Title is a major field.
	next = *course
	next.Title = "Go Fundamentals"
	if !RequiresReapproval(course.Major(), next.Major()) {
		t.Fatal("title change should require re-approval")
	}
}

func TestRequiresReapprovalMinorFieldChange(t *testing.T) {
	course := &Course{Title: "Go Basics", Category: "programming", Level: "beginner"}

	next := *course
	next.ThumbnailURL = "https://cdn.example.com/new-thumb.png"
	next.ContentType = "video"
	if RequiresReapproval(course.Major(), next.Major()) {
		t.Fatal("thumbnail and content type changes should not require re-approval")
	}

	if RequiresReapproval(course.Major(), course.Major()) {
		t.Fatal("identical snapshot should not require re-approval")
	}
}

func TestCourseEditApply(t *testing.T) {
	course := &Course{
		Title:       "Go Basics",
		Description: "Intro",
		Category:    "programming",
		Level:       "beginner",
		PriceCents:  4900,
	}

	title := "Advanced Go"
	price := int64(9900)
	edit := CourseEdit{Title: &title, PriceCents: &price}
	edit.Apply(course)

	if course.Title != "Advanced Go" {
		t.Fatalf("title = %q, want %q", course.Title, "Advanced Go")
	}
	if course.PriceCents != 9900 {
		t.Fatalf("price = %d, want 9900", course.PriceCents)
	}
	// Untouched fields stay as they were.
	if course.Description != "Intro" || course.Level != "beginner" {
		t.Fatal("nil edit fields must leave the course unchanged")
	}
}
