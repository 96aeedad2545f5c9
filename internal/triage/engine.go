// Package triage classifies a free-form incident description into a
// severity code, a primary responding force, and recommended resources
// (spec.md §4.2). The rules layer is always available and deterministic;
// an optional cloud layer (see cloud.go) is tried first when configured and
// never allowed to make the engine itself fail.
package triage

import (
	"context"
	"regexp"
	"strings"

	"github.com/caba911/dispatch/internal/errs"
	"github.com/caba911/dispatch/internal/models"
)

// Source records which layer produced a Result.
type Source string

const (
	SourceCloud    Source = "cloud"
	SourceLocal    Source = "local"
	SourceFallback Source = "fallback"
)

// Resource is one recommended unit of response.
type Resource struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Detail string `json:"detail,omitempty"`
}

// Result is the engine's classification output.
type Result struct {
	Code                 models.Code
	Score                int
	Type                 models.ForceName
	Reasons              []string
	AINarrative          string
	RecommendedResources []Resource
	Source               Source
}

// Provider selects which layer backs classification.
type Provider string

const (
	ProviderRules Provider = "rules"
	ProviderCloud Provider = "cloud"
)

// CloudClassifier is implemented by an external LLM adapter (see cloud.go).
// Any error from Classify causes a silent fallback to the rules layer.
type CloudClassifier interface {
	Classify(ctx context.Context, description string) (Result, error)
}

// Engine is the triage entry point.
type Engine struct {
	provider Provider
	cloud    CloudClassifier
}

// NewEngine builds an Engine. When provider is ProviderCloud, cloud must be
// non-nil and configured (have credentials) or NewEngine returns
// MisconfiguredProvider -- the only error this package ever raises, and
// only at construction time (spec.md §4.2 "Fails with MisconfiguredProvider
// only when the provider is explicitly selected and its credentials are
// absent").
func NewEngine(provider Provider, cloud CloudClassifier) (*Engine, error) {
	if provider == ProviderCloud {
		if cloud == nil {
			return nil, errs.MisconfiguredProvider("cloud triage provider selected but no client configured")
		}
		if configured, ok := cloud.(interface{ Configured() bool }); ok && !configured.Configured() {
			return nil, errs.MisconfiguredProvider("cloud triage provider selected but credentials are absent")
		}
	}
	return &Engine{provider: provider, cloud: cloud}, nil
}

// Classify never returns an error: cloud failures fall back to the rules
// layer silently (spec.md §4.2, §7).
func (e *Engine) Classify(ctx context.Context, description string) Result {
	if e.provider == ProviderCloud && e.cloud != nil {
		if result, err := e.cloud.Classify(ctx, description); err == nil {
			result.Source = SourceCloud
			return result
		}
	}
	result := classifyRules(description)
	result.Source = SourceLocal
	return result
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalize(text string) string {
	t := strings.ToLower(text)
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// classifyRules implements the always-available rules layer.
func classifyRules(description string) Result {
	if strings.TrimSpace(description) == "" {
		return Result{
			Code:                 models.CodeGreen,
			Score:                1,
			Type:                 models.ForcePolice,
			Reasons:              []string{"empty description: default minor case"},
			RecommendedResources: recommendedResources(models.ForcePolice, 1),
		}
	}

	txt := normalize(description)
	score := 0
	reasons := []string{}
	typeScores := map[models.ForceName]int{}

	for _, dict := range allDictionaries {
		for _, pw := range dict {
			if strings.Contains(txt, pw.phrase) {
				score += pw.weight
				reasons = append(reasons, pw.phrase)
				if pw.typ != "" {
					typeScores[pw.typ] += pw.weight
				}
			}
		}
	}

	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no keyword matches: default minor case")
	}

	primaryType := argmaxType(typeScores)

	// Traffic with score > 40 indicates a major collision -- reclassify as
	// fire (spec.md §4.2).
	if primaryType == models.ForceTraffic && score > 40 {
		primaryType = models.ForceFire
		reasons = append(reasons, "traffic incident above threshold reclassified as fire (major collision)")
	}

	var code models.Code
	switch {
	case score >= 60:
		code = models.CodeRed
	case score >= 25:
		code = models.CodeYellow
	default:
		code = models.CodeGreen
	}

	return Result{
		Code:                 code,
		Score:                score,
		Type:                 primaryType,
		Reasons:              reasons,
		RecommendedResources: recommendedResources(primaryType, score),
	}
}

func argmaxType(scores map[models.ForceName]int) models.ForceName {
	best := models.ForcePolice
	bestScore := -1
	// Deterministic order so ties resolve the same way every run.
	order := []models.ForceName{models.ForceMedical, models.ForceFire, models.ForcePolice, models.ForceTraffic}
	for _, t := range order {
		if s, ok := scores[t]; ok && s > bestScore {
			bestScore = s
			best = t
		}
	}
	return best
}

func recommendedResources(primary models.ForceName, score int) []Resource {
	switch primary {
	case models.ForceFire:
		res := []Resource{{Type: "fire_engine", Count: 1}}
		if score >= 60 {
			res = append(res, Resource{Type: "ambulance", Count: 1, Detail: "standby for casualties"})
		}
		return res
	case models.ForceMedical:
		count := 1
		if score >= 60 {
			count = 2
		}
		return []Resource{{Type: "ambulance", Count: count}}
	case models.ForceTraffic:
		return []Resource{{Type: "patrol", Count: 1, Detail: "traffic control"}}
	default:
		return []Resource{{Type: "patrol", Count: 1}}
	}
}
