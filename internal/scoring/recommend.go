package scoring

import "trustlens/review-api/internal/domain"

// Recommend maps a trust score and fake percentage onto a tier. Tiers are
// checked strictest first and both bounds of a tier must hold.
func Recommend(trustScore, fakePercentage float64) domain.Recommendation {
	switch {
	case trustScore >= domain.SafeMinTrust && fakePercentage < domain.SafeMaxFake:
		return domain.Recommendation{
			Text:   "Recommended to buy",
			Level:  domain.LevelSafe,
			Reason: "High trust score with low fake review percentage",
		}
	case trustScore >= domain.WarningMinTrust && fakePercentage < domain.WarningMaxFake:
		return domain.Recommendation{
			Text:   "Proceed with caution",
			Level:  domain.LevelWarning,
			Reason: "Moderate trust score or some fake reviews detected",
		}
	default:
		return domain.Recommendation{
			Text:   "Not recommended",
			Level:  domain.LevelDanger,
			Reason: "Low trust score or high percentage of fake reviews",
		}
	}
}
