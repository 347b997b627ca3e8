// Package rating maintains the derived rating of doctor profiles.
package rating

import (
	"context"
	"fmt"
	"math"

	"healthcare-booking-server/internal/models"
)

// ReviewSource lists reviews of a doctor with a given status.
type ReviewSource interface {
	ListByDoctor(ctx context.Context, doctorID string, status models.ReviewStatus) ([]models.Review, error)
}

// RatingSink persists the aggregate on the doctor profile.
type RatingSink interface {
	UpdateRating(ctx context.Context, id string, rating float64, totalReviews int) error
}

// Compute returns the mean rounded to one decimal and the count.
// An empty input yields 0, 0.
func Compute(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}

// Aggregator recomputes DoctorProfile.rating and totalReviews from approved reviews.
type Aggregator struct {
	reviews ReviewSource
	doctors RatingSink
}

// NewAggregator creates an Aggregator.
func NewAggregator(reviews ReviewSource, doctors RatingSink) *Aggregator {
	return &Aggregator{reviews: reviews, doctors: doctors}
}

// Recompute rewrites the aggregate of doctorID. It depends only on the
// current set of approved reviews, so repeated calls converge.
func (a *Aggregator) Recompute(ctx context.Context, doctorID string) (float64, int, error) {
	approved, err := a.reviews.ListByDoctor(ctx, doctorID, models.ReviewApproved)
	if err != nil {
		return 0, 0, fmt.Errorf("list approved reviews: %w", err)
	}
	ratings := make([]int, 0, len(approved))
	for _, r := range approved {
		ratings = append(ratings, r.Rating)
	}
	avg, total := Compute(ratings)
	if err := a.doctors.UpdateRating(ctx, doctorID, avg, total); err != nil {
		return 0, 0, fmt.Errorf("update doctor rating: %w", err)
	}
	return avg, total, nil
}
