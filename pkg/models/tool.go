// Package models contains domain types for gipoly-engine.
package models

import "strings"

// ToolKind identifies one of the marketing tools.
type ToolKind string

const (
	ToolTrendAgent    ToolKind = "trend_agent"
	ToolSEOStrategist ToolKind = "seo_strategist"
	ToolAdCreative    ToolKind = "ad_creative"
)

// AllTools lists every tool in a stable order.
var AllTools = []ToolKind{ToolTrendAgent, ToolSEOStrategist, ToolAdCreative}

// toolSlugs maps URL path segments onto tools.
var toolSlugs = map[string]ToolKind{
	"trend-agent":    ToolTrendAgent,
	"seo-strategist": ToolSEOStrategist,
	"adcreative":     ToolAdCreative,
}

// Slug returns the URL path segment for the tool.
func (t ToolKind) Slug() string {
	for slug, tool := range toolSlugs {
		if tool == t {
			return slug
		}
	}
	return ""
}

// IsValid reports whether t is a known tool.
func (t ToolKind) IsValid() bool {
	switch t {
	case ToolTrendAgent, ToolSEOStrategist, ToolAdCreative:
		return true
	}
	return false
}

// ParseToolSlug resolves a URL path segment ("trend-agent", "seo-strategist", "adcreative").
func ParseToolSlug(slug string) (ToolKind, bool) {
	tool, ok := toolSlugs[strings.ToLower(slug)]
	return tool, ok
}

// Analysis types stored alongside each record.
const (
	AnalysisTypeSuggest  = "suggest"
	AnalysisTypeManual   = "manual"
	AnalysisTypeURL      = "url"
	AnalysisTypeCampaign = "campaign"
)

// Supported response languages.
const (
	LanguageEnglish = "en"
	LanguageTurkish = "tr"
)

// NormalizeLanguage maps any language tag onto a supported language.
// Anything other than Turkish renders in English.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == LanguageTurkish || strings.HasPrefix(lang, LanguageTurkish+"-") {
		return LanguageTurkish
	}
	return LanguageEnglish
}
