// Package synth fabricates the deterministic review corpus for a product.
//
// Every review consumes draws from the product's generator in a fixed order:
// fake flag, rating and text (and confidence), first name, last name, age in
// days. Changing that order changes every review for every product.
package synth

import (
	"fmt"
	"time"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/prng"
)

// Corpus shape.
const (
	MinReviews   = 20
	reviewSpread = 80 // count = MinReviews + floor(r*reviewSpread)
	fakeRate     = 0.25
	maxAgeDays   = 365
)

// DateLayout is the calendar-date format of Review.Date.
const DateLayout = "2006-01-02"

var positiveTemplates = []string{
	"Great product! Highly recommend it.",
	"Excellent quality and fast delivery.",
	"Perfect for my needs. Very satisfied.",
	"Good value for money. Works as expected.",
	"Amazing product! Exceeded my expectations.",
}

var negativeTemplates = []string{
	"Poor quality. Not worth the money.",
	"Disappointed with this purchase.",
	"Product broke after a few days.",
	"Not as described. Returning it.",
	"Terrible experience. Avoid this product.",
}

var fakeTemplates = []string{
	"Amazing! Best product ever! 5 stars!",
	"Incredible quality! Must buy!",
	"Perfect! Amazing! Wonderful!",
	"Best purchase ever made!",
	"Outstanding product! Highly recommended!",
}

var firstNames = []string{"John", "Jane", "Mike", "Sarah", "David", "Lisa", "Chris", "Emma"}

var lastNames = []string{"Smith", "Johnson", "Brown", "Davis", "Wilson", "Miller", "Taylor", "Anderson"}

// ratingLadder holds cumulative thresholds for genuine ratings 1..4;
// a draw at or above the last threshold is a 5.
var ratingLadder = []float64{0.05, 0.13, 0.28, 0.63}

// Synthesize returns the review corpus for productID. Everything except the
// calendar dates is a pure function of productID; dates count back from now.
func Synthesize(productID string, now time.Time) []domain.Review {
	g := prng.NewFromString(productID)

	count := g.Intn(reviewSpread) + MinReviews
	reviews := make([]domain.Review, 0, count)

	for i := 0; i < count; i++ {
		isFake := g.Float64() < fakeRate

		var (
			rating     int
			text       string
			confidence float64
		)
		if isFake {
			rating = g.Intn(2) + 4
			text = fakeTemplates[g.Intn(len(fakeTemplates))]
			confidence = 0.7 + float64(g.Float64()*0.3)
		} else {
			rating = genuineRating(g)
			if rating >= 4 {
				text = positiveTemplates[g.Intn(len(positiveTemplates))]
			} else {
				text = negativeTemplates[g.Intn(len(negativeTemplates))]
			}
			confidence = g.Float64() * 0.3
		}

		author := reviewerName(g)
		daysAgo := g.Intn(maxAgeDays)

		reviews = append(reviews, domain.Review{
			ID:         fmt.Sprintf("review_%d", i),
			Rating:     rating,
			Text:       text,
			Author:     author,
			Date:       now.UTC().AddDate(0, 0, -daysAgo).Format(DateLayout),
			IsFake:     isFake,
			Confidence: confidence,
		})
	}

	return reviews
}

func genuineRating(g *prng.Generator) int {
	r := g.Float64()
	for i, threshold := range ratingLadder {
		if r < threshold {
			return i + 1
		}
	}
	return 5
}

func reviewerName(g *prng.Generator) string {
	first := firstNames[g.Intn(len(firstNames))]
	last := lastNames[g.Intn(len(lastNames))]
	return fmt.Sprintf("%s %s.", first, last[:1])
}
