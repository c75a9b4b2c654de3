package models

import "time"

// DefaultProductCount is used when a trend request leaves product_count unset.
const DefaultProductCount = 3

// TrendRequest asks the trend agent for product ideas in a market.
//
// IncludeTrends is accepted so existing clients keep validating, but no
// search-interest source is wired: TrendResult.TrendsData stays null
// whatever its value.
type TrendRequest struct {
	Category        string `json:"category,omitempty" validate:"max=200"`
	TargetCountry   string `json:"target_country" validate:"required,max=100"`
	BudgetRange     string `json:"budget_range,omitempty" validate:"max=100"`
	TargetAudience  string `json:"target_audience,omitempty" validate:"max=500"`
	AdditionalNotes string `json:"additional_notes,omitempty" validate:"max=2000"`
	IncludeTrends   *bool  `json:"include_trends,omitempty"`
	ProductCount    int    `json:"product_count" validate:"min=1,max=5"`
	Language        string `json:"language"`
}

// ApplyDefaults fills optional fields. Call before validation.
func (r *TrendRequest) ApplyDefaults() {
	if r.ProductCount == 0 {
		r.ProductCount = DefaultProductCount
	}
	if r.IncludeTrends == nil {
		include := true
		r.IncludeTrends = &include
	}
	r.Language = NormalizeLanguage(r.Language)
}

// ProductSuggestion is a single product idea.
type ProductSuggestion struct {
	ProductIdea           string   `json:"product_idea"`
	Description           string   `json:"description"`
	RecommendedPriceRange string   `json:"recommended_price_range"`
	TargetAudience        string   `json:"target_audience"`
	CompetitionScore      int      `json:"competition_score"`
	TrendScore            int      `json:"trend_score"`
	ProfitMarginEstimate  string   `json:"profit_margin_estimate"`
	MarketOpportunity     string   `json:"market_opportunity"`
	RisksAndChallenges    string   `json:"risks_and_challenges"`
	MarketingSuggestions  string   `json:"marketing_suggestions"`
	EcommercePlatforms    []string `json:"ecommerce_platforms"`
	EstimatedDemand       string   `json:"estimated_demand"`
}

// TrendAnalysis is the narrative part of a trend result.
type TrendAnalysis struct {
	CategoryAnalysis     string `json:"category_analysis"`
	MarketTrends         string `json:"market_trends"`
	SeasonalFactors      string `json:"seasonal_factors"`
	CompetitiveLandscape string `json:"competitive_landscape"`
	AIRecommendations    string `json:"ai_recommendations"`
}

// TrendsData carries search-interest data. It is never populated today
// but kept so stored documents keep a stable shape.
type TrendsData struct {
	Keyword    string `json:"keyword"`
	TrendScore int    `json:"trend_score"`
}

// TrendResult is the trend agent's output.
type TrendResult struct {
	Products      []ProductSuggestion `json:"products"`
	TrendsData    *TrendsData         `json:"trends_data"`
	TrendAnalysis TrendAnalysis       `json:"trend_analysis"`
	Summary       string              `json:"summary"`
	NextSteps     []string            `json:"next_steps"`
	CreatedAt     time.Time           `json:"created_at"`
}
