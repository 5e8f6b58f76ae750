package model

import "time"

// TrendPoint is one calendar-month bucket of enrollments. Months with
// zero enrollments are still present so trend charts have no gaps.
type TrendPoint struct {
	Month string `json:"month"` // formatted 2006-01
	Count int    `json:"count"`
}

// FunnelStage is one lesson of the engagement funnel, in course order.
type FunnelStage struct {
	LessonID       string `json:"lesson_id"`
	Title          string `json:"title"`
	CompletedCount int    `json:"completed_count"`
	CompletionRate int    `json:"completion_rate"`
	DropOffRate    int    `json:"drop_off_rate"`
}

// RatingSummary aggregates the ratings of a course.
type RatingSummary struct {
	Average   float64 `json:"average"` // rounded to one decimal
	Total     int     `json:"total"`
	Histogram [5]int  `json:"histogram"` // counts for ratings 1..5
}

// CourseMetrics are the headline numbers shown on the instructor
// dashboard next to the detailed views.
type CourseMetrics struct {
	TotalStudents     int `json:"total_students"`
	CompletedStudents int `json:"completed_students"`
	AverageProgress   int `json:"average_progress"`
	// SkippedRatings counts malformed rating rows that were ignored
	// during aggregation, exposed so bad data is observable.
	SkippedRatings int `json:"skipped_ratings"`
}

// CourseAnalytics is the full analytics view of a course, recomputed
// from raw facts on demand.
type CourseAnalytics struct {
	CourseID         string        `json:"course_id"`
	GeneratedAt      time.Time     `json:"generated_at"`
	EnrollmentTrends []TrendPoint  `json:"enrollment_trends"`
	EngagementFunnel []FunnelStage `json:"engagement_funnel"`
	RatingSummary    RatingSummary `json:"rating_summary"`
	Metrics          CourseMetrics `json:"metrics"`
}
