package card

import "slices"

const (
	DefaultDeck  = "English::AI Words"
	DefaultModel = "AI Word (R)"
	DefaultTag   = "ai-generated"
)

// RunContext is the configuration shared by every word of one invocation.
// It is passed by value and never modified by the workers.
type RunContext struct {
	Deck          string
	Model         string
	Tags          []string
	IncludeImages bool
	Force         bool
}

// NewRunContext builds a RunContext, falling back to the defaults for an
// empty deck or model and always carrying the default tag.
func NewRunContext(deck, model string, tags []string, includeImages, force bool) RunContext {
	if deck == "" {
		deck = DefaultDeck
	}
	if model == "" {
		model = DefaultModel
	}
	return RunContext{
		Deck:          deck,
		Model:         model,
		Tags:          NormalizeTags(append([]string{DefaultTag}, tags...)),
		IncludeImages: includeImages,
		Force:         force,
	}
}

// WithImages returns a copy with the image flag overridden, used for
// per-word answers in interactive mode.
func (rc RunContext) WithImages(include bool) RunContext {
	rc.Tags = slices.Clone(rc.Tags)
	rc.IncludeImages = include
	return rc
}
