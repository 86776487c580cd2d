package renderer

import (
	"github.com/ember-gfx/ember-go/engine/report"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithReporter routes the renderer's usage and link errors to a custom
// reporter instead of the standard log.
//
// Parameters:
//   - rep: the reporter to receive error messages
//
// Returns:
//   - RendererBuilderOption: a function that applies the reporter option to a renderer
func WithReporter(rep report.Reporter) RendererBuilderOption {
	return func(r *renderer) {
		if rep != nil {
			r.reporter = rep
		}
	}
}
