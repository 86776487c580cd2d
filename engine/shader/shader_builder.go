package shader

import (
	"github.com/ember-gfx/ember-go/engine/report"
)

// ShaderBuilderOption is a functional option for configuring a shader.
type ShaderBuilderOption func(*shader)

// WithAttributes declares the vertex inputs, in the order vertex data is
// laid out. Only valid on vertex shaders.
//
// Parameters:
//   - attributes: the vertex inputs to declare
//
// Returns:
//   - ShaderBuilderOption: the option to apply
func WithAttributes(attributes ...Attribute) ShaderBuilderOption {
	return func(s *shader) {
		s.attributes = append(s.attributes, attributes...)
	}
}

// WithUniforms declares the user constants, in the order their values pack
// into the constants buffer.
//
// Parameters:
//   - uniforms: the uniforms to declare
//
// Returns:
//   - ShaderBuilderOption: the option to apply
func WithUniforms(uniforms ...Uniform) ShaderBuilderOption {
	return func(s *shader) {
		s.uniforms = append(s.uniforms, uniforms...)
	}
}

// WithTextures declares the sampler inputs, in texture unit order.
//
// Parameters:
//   - textures: the texture samplers to declare
//
// Returns:
//   - ShaderBuilderOption: the option to apply
func WithTextures(textures ...Texture) ShaderBuilderOption {
	return func(s *shader) {
		s.textures = append(s.textures, textures...)
	}
}

// WithReporter routes the shader's compile and usage errors to the given
// reporter instead of the process log.
//
// Parameters:
//   - r: the reporter to receive errors
//
// Returns:
//   - ShaderBuilderOption: the option to apply
func WithReporter(r report.Reporter) ShaderBuilderOption {
	return func(s *shader) {
		if r != nil {
			s.reporter = r
		}
	}
}
