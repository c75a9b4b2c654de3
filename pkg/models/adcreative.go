package models

// ImageGenerationFailed replaces image_url when the image could not be
// generated or stored. The text part of the campaign is still returned.
const ImageGenerationFailed = "generation_failed"

// Audience describes who an ad campaign targets.
type Audience struct {
	Age       string   `json:"age" validate:"required,max=50"`
	Interests []string `json:"interests" validate:"required,min=1,max=20,dive,required,max=100"`
}

// AdCreativeRequest asks for a full ad campaign.
type AdCreativeRequest struct {
	Language           string   `json:"lang"`
	ProductName        string   `json:"product_name" validate:"required,max=300"`
	ProductDescription string   `json:"product_description" validate:"required,max=5000"`
	Platform           string   `json:"platform" validate:"required,max=100"`
	Goal               string   `json:"goal" validate:"required,max=100"`
	Audience           Audience `json:"audience" validate:"required"`
}

// ApplyDefaults normalizes the language.
func (r *AdCreativeRequest) ApplyDefaults() {
	r.Language = NormalizeLanguage(r.Language)
}

type Headlines struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type AdKeyword struct {
	Keyword      string `json:"keyword"`
	TrendLevel   string `json:"trend_level"`
	SearchVolume string `json:"search_volume"`
}

type AdPerformance struct {
	CTREstimate         string `json:"ctr_estimate"`
	AdScore             int    `json:"ad_score"`
	ConversionPotential string `json:"conversion_potential"`
	EstimatedReach      string `json:"estimated_reach"`
	CostPerClick        string `json:"cost_per_click"`
	ROASPotential       string `json:"roas_potential"`
}

type BudgetRecommendations struct {
	DailyBudget      string `json:"daily_budget"`
	CampaignDuration string `json:"campaign_duration"`
	BudgetAllocation string `json:"budget_allocation"`
}

// AdCreativeResult is the ad-creative agent's output.
type AdCreativeResult struct {
	Headlines             Headlines             `json:"headlines"`
	AdTexts               []string              `json:"ad_texts"`
	CTAs                  []string              `json:"ctas"`
	Keywords              []AdKeyword           `json:"keywords"`
	Performance           AdPerformance         `json:"performance"`
	Insights              []string              `json:"insights"`
	PlatformTips          []string              `json:"platform_tips"`
	ABTesting             []string              `json:"ab_testing"`
	BudgetRecommendations BudgetRecommendations `json:"budget_recommendations"`
	CampaignTimeline      []string              `json:"campaign_timeline"`
	NextSteps             []string              `json:"next_steps"`
	ImageURL              string                `json:"image_url"`
}
