package task

import (
	"github.com/randalmurphal/llmkit/model"
)

// Kind identifies the model call a workflow stage makes. It decides which
// model tier the call runs on.
type Kind string

const (
	// Strict judgement needs reasoning
	Review Kind = "review"

	// Retrieval and writing run on the default tier
	Analyze    Kind = "analyze"
	Strategize Kind = "strategize"
	Draft      Kind = "draft"

	// Question generation is short and formulaic
	Interview Kind = "interview"
)

// Kinds returns every kind in workflow order.
func Kinds() []Kind {
	return []Kind{Analyze, Strategize, Draft, Review, Interview}
}

// DefaultModelMap maps kinds to Claude models.
var DefaultModelMap = map[Kind]model.ModelName{
	Analyze:    model.ModelSonnet,
	Strategize: model.ModelSonnet,
	Draft:      model.ModelSonnet,
	Review:     model.ModelOpus,
	Interview:  model.ModelHaiku,
}

// geminiTierModels maps tiers to Gemini models.
var geminiTierModels = map[model.Tier]string{
	model.TierThinking: "gemini-2.5-pro",
	model.TierDefault:  "gemini-2.5-flash",
	model.TierFast:     "gemini-2.5-flash-lite",
}

// TierFor returns the model tier for a kind.
func TierFor(k Kind) model.Tier {
	switch k {
	case Review:
		return model.TierThinking
	case Interview:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewSelector creates an llmkit selector that routes kinds by tier.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if k, ok := task.(Kind); ok {
				return TierFor(k)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// Provider names an LLM backend.
type Provider string

// Supported providers.
const (
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
)

// Router picks the model name for each kind on one provider. Overrides win
// over the tier defaults.
type Router struct {
	provider  Provider
	overrides map[Kind]string
	selector  *model.Selector
}

// NewRouter creates a router for provider. Empty override values are ignored.
func NewRouter(provider Provider, overrides map[Kind]string) *Router {
	r := &Router{provider: provider, overrides: map[Kind]string{}}
	var opts []model.SelectorOption
	for k, m := range overrides {
		if m == "" {
			continue
		}
		r.overrides[k] = m
		if provider == ProviderClaude {
			opts = append(opts, model.WithTaskOverride(k, model.ModelName(m)))
		}
	}
	r.selector = NewSelector(opts...)
	return r
}

// Provider returns the router's provider.
func (r *Router) Provider() Provider {
	return r.provider
}

// ModelFor returns the model name a call of kind k should use.
func (r *Router) ModelFor(k Kind) string {
	if r.provider == ProviderGemini {
		if m, ok := r.overrides[k]; ok {
			return m
		}
		return geminiTierModels[TierFor(k)]
	}
	return string(r.selector.Select(k))
}
