package paper

import (
	"math"
	"time"
)

// reviewPower widens the wait between reviews: a paper reviewed on schedule
// waits the square of its previous gap.
const reviewPower = 2.0

// IsReviewable reports whether the paper is due: no next review is
// scheduled, or the scheduled time has passed.
func (m *Meta) IsReviewable(now time.Time) bool {
	return m.NextReview == nil || m.NextReview.Before(now)
}

// nextReviewDate computes the upcoming review time from the current
// (last, next) pair. The branch structure is deliberate: any half-set pair
// collapses to a one-day wait, and only a fully-set pair with a gap over one
// day triggers the widening backoff.
func (m *Meta) nextReviewDate(now time.Time) time.Time {
	waitDays := 1
	if m.LastReview != nil && m.NextReview != nil {
		gap := int(m.NextReview.Sub(*m.LastReview).Hours() / 24)
		if gap > 1 {
			waitDays = int(math.Floor(math.Pow(float64(gap), reviewPower)))
		} else {
			waitDays = 2
		}
	}
	return now.AddDate(0, 0, waitDays)
}

// UpdateReview records a review happening now: the old next-review time
// becomes the last review, and a new next-review time is scheduled.
func (m *Meta) UpdateReview(now time.Time) {
	next := m.nextReviewDate(now)
	m.LastReview = m.NextReview
	m.NextReview = &next
}
