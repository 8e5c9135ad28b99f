package scoring

import "trustlens/review-api/internal/domain"

// Trust score bounds.
const (
	MinTrustScore = 1.0
	MaxTrustScore = 10.0

	fakePenalty = 3.0 // points lost at 100% fake
)

// isGenuine selects the reviews the score is built from. It is stricter than
// the inverse of IsFlagged: a confidence of exactly 0.5 is neither.
func isGenuine(r domain.Review) bool {
	return !r.IsFake && r.Confidence < flagConfidence
}

// Score returns the trust score for a corpus: the genuine average rating
// mapped onto 0-10, minus up to three points for the fake percentage,
// clamped to [1,10]. A corpus without genuine reviews scores exactly 1.
func Score(reviews []domain.Review, fakePercentage float64) float64 {
	sum, n := genuineSum(reviews)
	if n == 0 {
		return MinTrustScore
	}

	avg := float64(sum) / float64(n)
	// Explicit conversions keep each product rounded before the subtraction,
	// so no fused multiply-add changes the last bit.
	base := float64(avg / 5 * 10)
	penalty := float64(fakePercentage / 100 * fakePenalty)

	return clamp(base-penalty, MinTrustScore, MaxTrustScore)
}

// StarDistribution counts reviews per rating. Keys 1 through 5 are always present.
func StarDistribution(reviews []domain.Review) domain.StarDistribution {
	d := domain.StarDistribution{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range reviews {
		d[r.Rating]++
	}
	return d
}

// GenuineAverage is the mean rating of genuine reviews to one decimal place,
// or 0 when there are none.
func GenuineAverage(reviews []domain.Review) float64 {
	sum, n := genuineSum(reviews)
	if n == 0 {
		return 0
	}
	return round1(float64(sum) / float64(n))
}

func genuineSum(reviews []domain.Review) (sum, n int) {
	for _, r := range reviews {
		if isGenuine(r) {
			sum += r.Rating
			n++
		}
	}
	return sum, n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
