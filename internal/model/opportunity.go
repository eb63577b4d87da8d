package model

// OpportunityTier classifies how open a channel's niche still looks.
type OpportunityTier string

// OpportunityTier values, from most to least promising.
const (
	TierGreatOpportunity OpportunityTier = "GreatOpportunity"
	TierGoodOpportunity  OpportunityTier = "GoodOpportunity"
	TierSaturated        OpportunityTier = "Saturated"
)

// Tiers lists every tier in descending order of opportunity.
var Tiers = []OpportunityTier{TierGreatOpportunity, TierGoodOpportunity, TierSaturated}

// Valid reports whether t is one of the known tiers.
func (t OpportunityTier) Valid() bool {
	switch t {
	case TierGreatOpportunity, TierGoodOpportunity, TierSaturated:
		return true
	}
	return false
}

// Promising reports whether the tier is worth surfacing in the promising view.
func (t OpportunityTier) Promising() bool {
	return t == TierGreatOpportunity || t == TierGoodOpportunity
}

// Label returns a human readable label.
func (t OpportunityTier) Label() string {
	switch t {
	case TierGreatOpportunity:
		return "Great opportunity"
	case TierGoodOpportunity:
		return "Good opportunity"
	default:
		return "Saturated"
	}
}

// ScoredResult is a video joined with its channel, scored and classified.
type ScoredResult struct {
	Video   VideoRecord     `json:"video"`
	Channel ChannelRecord   `json:"channel"`
	Score   float64         `json:"score"`
	Tier    OpportunityTier `json:"tier"`
}
