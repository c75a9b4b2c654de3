package models

// ManualSEORequest asks for SEO copy for a product described by the user.
type ManualSEORequest struct {
	ProductName        string `json:"product_name" validate:"required,max=300"`
	ProductDescription string `json:"product_description" validate:"required,max=5000"`
	TargetKeywords     string `json:"target_keywords,omitempty" validate:"max=1000"`
	Language           string `json:"language"`
}

// ApplyDefaults normalizes the language.
func (r *ManualSEORequest) ApplyDefaults() {
	r.Language = NormalizeLanguage(r.Language)
}

// URLSEORequest asks for an audit of a live product page.
type URLSEORequest struct {
	URL      string `json:"url" validate:"required,http_url,max=2048"`
	Language string `json:"language"`
}

// ApplyDefaults normalizes the language.
func (r *URLSEORequest) ApplyDefaults() {
	r.Language = NormalizeLanguage(r.Language)
}

// SEOResult is the manual SEO analysis output.
type SEOResult struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	SEODescription  string   `json:"seo_description"`
	Recommendations []string `json:"recommendations"`
	Score           int      `json:"score"`
}

// PageContent is what was extracted from an audited page.
type PageContent struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ContentLength int      `json:"content_length"`
	Content       string   `json:"-"`
	Reviews       []string `json:"-"`
	Features      []string `json:"-"`
	Prices        []string `json:"-"`
}

// URLSEOResult is the page audit output. The nested sections are free-form
// and only checked for presence.
type URLSEOResult struct {
	URL                 string         `json:"url"`
	ContentInfo         PageContent    `json:"content_info"`
	ProductAnalysis     map[string]any `json:"product_analysis"`
	SEOOptimization     map[string]any `json:"seo_optimization"`
	UserExperience      map[string]any `json:"user_experience"`
	TechnicalSEO        map[string]any `json:"technical_seo"`
	CompetitiveAnalysis map[string]any `json:"competitive_analysis"`
	ImpactAnalysis      map[string]any `json:"impact_analysis"`
	SegmentScores       map[string]any `json:"segment_scores"`
	ActionItems         map[string]any `json:"action_items"`
	SEOScore            int            `json:"seo_score"`
}
