package scoring

import (
	"fmt"
	"math"

	"trustlens/review-api/internal/domain"
)

// Classification thresholds.
const (
	flagConfidence = 0.5  // a review above this confidence counts as fake
	fiveStarShare  = 70.0 // % of 5-star ratings that raises a pattern
)

// Classification summarises how many reviews in a corpus look fabricated.
type Classification struct {
	FakeCount        int
	FakePercentage   float64 // 0-100, rounded to 2 dp
	PatternsDetected []string
}

// IsFlagged reports whether r counts as fake: labelled fake, or carrying a
// confidence above 0.5.
func IsFlagged(r domain.Review) bool {
	return r.IsFake || r.Confidence > flagConfidence
}

// Classify counts flagged reviews and lists the detected patterns.
// An empty corpus yields zero counts and no patterns.
func Classify(reviews []domain.Review) Classification {
	c := Classification{PatternsDetected: []string{}}
	if len(reviews) == 0 {
		return c
	}

	var fiveStar int
	for _, r := range reviews {
		if IsFlagged(r) {
			c.FakeCount++
		}
		if r.Rating == 5 {
			fiveStar++
		}
	}

	total := float64(len(reviews))
	c.FakePercentage = round2(float64(c.FakeCount) / total * 100)

	if c.FakeCount > 0 {
		c.PatternsDetected = append(c.PatternsDetected,
			fmt.Sprintf("%d potentially fake reviews detected", c.FakeCount))
	}
	if float64(fiveStar)/total*100 > fiveStarShare {
		c.PatternsDetected = append(c.PatternsDetected, "Unusually high percentage of 5-star ratings")
	}
	return c
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round1(x float64) float64 { return math.Round(x*10) / 10 }
