package service

import (
	"context"
	"math"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// AnalyticsService aggregates enrollment, completion and rating data
// into per-course analytics. Everything is computed from the raw facts
// at request time; there is no materialized rollup to drift out of sync.
type AnalyticsService interface {
	GetCourseAnalytics(ctx context.Context, courseID string) (*model.CourseAnalytics, error)
}

type analyticsService struct {
	courses     repository.CourseRepository
	lessons     repository.LessonRepository
	enrollments repository.EnrollmentRepository
	completions repository.CompletionRepository
	ratings     repository.RatingRepository
	trendWindow int
	logger      zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService. trendWindowMonths
// controls how many trailing months the enrollment trend covers.
func NewAnalyticsService(
	courses repository.CourseRepository,
	lessons repository.LessonRepository,
	enrollments repository.EnrollmentRepository,
	completions repository.CompletionRepository,
	ratings repository.RatingRepository,
	trendWindowMonths int,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		courses:     courses,
		lessons:     lessons,
		enrollments: enrollments,
		completions: completions,
		ratings:     ratings,
		trendWindow: trendWindowMonths,
		logger:      logger.With().Str("service", "AnalyticsService").Logger(),
	}
}

func (s *analyticsService) GetCourseAnalytics(ctx context.Context, courseID string) (*model.CourseAnalytics, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewNotFoundError("course not found")
	}

	enrollments, err := s.enrollments.GetEnrollmentsByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	published, err := s.lessons.GetLessonsByCourseID(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	facts, err := s.completions.GetFactsByLessonIDs(ctx, lessonIDs(published))
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.GetRatingsByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	byUser := PartitionFactsByUser(facts)
	totalStudents := len(enrollments)
	completedStudents := 0
	progressSum := 0
	for _, e := range enrollments {
		p := BuildCourseProgress(published, byUser[e.UserID])
		progressSum += p.Percentage
		if p.Status == model.ProgressStatusCompleted {
			completedStudents++
		}
	}
	averageProgress := 0
	if totalStudents > 0 {
		averageProgress = int(math.Round(float64(progressSum) / float64(totalStudents)))
	}

	summary, skipped := SummarizeRatings(ratings)
	if skipped > 0 {
		s.logger.Warn().
			Str("course_id", courseID).
			Int("skipped", skipped).
			Msg("Skipped out-of-range rating values during aggregation")
	}

	// Trend buckets follow the server's local calendar; GeneratedAt is
	// reported in UTC like every other timestamp in the API.
	now := time.Now()
	return &model.CourseAnalytics{
		CourseID:         courseID,
		GeneratedAt:      now.UTC(),
		EnrollmentTrends: EnrollmentTrends(enrollments, now, s.trendWindow),
		EngagementFunnel: EngagementFunnel(published, facts, totalStudents),
		RatingSummary:    summary,
		Metrics: model.CourseMetrics{
			TotalStudents:     totalStudents,
			CompletedStudents: completedStudents,
			AverageProgress:   averageProgress,
			SkippedRatings:    skipped,
		},
	}, nil
}

// EnrollmentTrends buckets enrollments into the trailing windowMonths
// calendar months ending at now's month. Calendar months are taken in
// now's location, so an enrollment near midnight lands in the month the
// caller's clock says it happened in. Every month in the window is
// present, zero-filled, in chronological order, so a flat or empty chart
// renders the same shape as a busy one.
func EnrollmentTrends(enrollments []model.Enrollment, now time.Time, windowMonths int) []model.TrendPoint {
	if windowMonths <= 0 {
		return []model.TrendPoint{}
	}

	loc := now.Location()
	counts := make(map[string]int, windowMonths)
	for _, e := range enrollments {
		counts[e.EnrolledAt.In(loc).Format("2006-01")]++
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).
		AddDate(0, -(windowMonths - 1), 0)
	points := make([]model.TrendPoint, 0, windowMonths)
	for i := 0; i < windowMonths; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		points = append(points, model.TrendPoint{Month: month, Count: counts[month]})
	}
	return points
}

// EngagementFunnel reports, per published lesson in course order, how
// many enrolled students completed it and where they drop off. Drop-off
// between two stages is clamped at zero: late joiners who skip early
// lessons can make a later stage larger than an earlier one, and that
// must not surface as a negative drop.
func EngagementFunnel(published []model.Lesson, facts []model.CompletionFact, totalStudents int) []model.FunnelStage {
	completedByLesson := make(map[string]int, len(published))
	for _, f := range facts {
		if f.Completed {
			completedByLesson[f.LessonID]++
		}
	}

	stages := make([]model.FunnelStage, 0, len(published))
	prev := totalStudents
	for i, l := range published {
		completed := completedByLesson[l.ID]
		stage := model.FunnelStage{
			LessonID:       l.ID,
			Title:          l.Title,
			CompletedCount: completed,
		}
		if totalStudents > 0 {
			stage.CompletionRate = int(math.Round(float64(completed) / float64(totalStudents) * 100))
		}
		if i > 0 && prev > 0 {
			drop := float64(prev-completed) / float64(prev) * 100
			stage.DropOffRate = int(math.Round(math.Max(drop, 0)))
		}
		prev = completed
		stages = append(stages, stage)
	}
	return stages
}

// SummarizeRatings averages the 1..5 star ratings to one decimal and
// builds the star histogram. Values outside 1..5 are skipped and
// counted, never fatal: one bad row must not take down the whole
// analytics response.
func SummarizeRatings(ratings []model.Rating) (model.RatingSummary, int) {
	var summary model.RatingSummary
	skipped := 0
	sum := 0
	for _, rt := range ratings {
		if rt.Rating < 1 || rt.Rating > 5 {
			skipped++
			continue
		}
		summary.Histogram[rt.Rating-1]++
		summary.Total++
		sum += rt.Rating
	}
	if summary.Total > 0 {
		summary.Average = math.Round(float64(sum)/float64(summary.Total)*10) / 10
	}
	return summary, skipped
}
