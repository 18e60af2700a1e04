package risk

// Tier is the clinical risk band of a prediction
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierFor bands a probability: above 0.7 high, above 0.3 medium, otherwise low.
// Both cuts are strict, so exactly 0.7 is still medium and exactly 0.3 is low.
func TierFor(probability float64) Tier {
	switch {
	case probability > 0.7:
		return TierHigh
	case probability > 0.3:
		return TierMedium
	default:
		return TierLow
	}
}

// Recommendation is the guidance block attached to a risk tier
type Recommendation struct {
	Tier     Tier   `json:"tier"`
	Headline string `json:"headline"`
	Markdown string `json:"markdown"`
}

var recommendations = map[Tier]Recommendation{
	TierHigh: {
		Tier:     TierHigh,
		Headline: "High risk: immediate clinical intervention recommended",
		Markdown: "⚠️ **High risk: immediate clinical intervention recommended**\n" +
			"- Weekly follow-up monitoring\n" +
			"- Physical therapy intervention is necessary\n" +
			"- Comprehensive assessment of complications\n" +
			"- Multidisciplinary team management\n" +
			"- Emergency nutritional support\n",
	},
	TierMedium: {
		Tier:     TierMedium,
		Headline: "Medium risk: It is recommended to regularly monitor",
		Markdown: "⚠️ **Medium risk: It is recommended to regularly monitor**\n" +
			"- Assess every 3-6 months\n" +
			"- Suggest moderate exercise plan\n" +
			"- Basic Nutritional Assessment\n" +
			"- Fall prevention education\n" +
			"- Regular functional assessment\n",
	},
	TierLow: {
		Tier:     TierLow,
		Headline: "Low risk: Recommended for routine health management",
		Markdown: "✅ **Low risk: Recommended for routine health management**\n" +
			"- Annual physical examination\n" +
			"- Maintain a healthy lifestyle\n" +
			"- Preventive Health Guidance\n" +
			"- Moderate physical activity\n" +
			"- Balanced nutritional intake\n",
	},
}

// RecommendationFor returns the guidance block for a tier
func RecommendationFor(tier Tier) Recommendation {
	return recommendations[tier]
}
