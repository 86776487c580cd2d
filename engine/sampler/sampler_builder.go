package sampler

// SamplerBuilderOption is a functional option for configuring a sampler.
type SamplerBuilderOption func(*sampler)

// WithMinFilter sets the minification filter.
//
// Parameters:
//   - f: the filter to apply when the texture is sampled below native size
//
// Returns:
//   - SamplerBuilderOption: the option to apply
func WithMinFilter(f Filter) SamplerBuilderOption {
	return func(s *sampler) {
		s.minFilter = f
	}
}

// WithMagFilter sets the magnification filter. Mip filters are not valid for
// magnification and fall back to FilterLinear.
//
// Parameters:
//   - f: the filter to apply when the texture is sampled above native size
//
// Returns:
//   - SamplerBuilderOption: the option to apply
func WithMagFilter(f Filter) SamplerBuilderOption {
	return func(s *sampler) {
		if f.UsesMipmaps() {
			f = FilterLinear
		}
		s.magFilter = f
	}
}

// WithWrapS sets the horizontal wrap mode.
//
// Parameters:
//   - w: the wrap mode for the S coordinate
//
// Returns:
//   - SamplerBuilderOption: the option to apply
func WithWrapS(w Wrap) SamplerBuilderOption {
	return func(s *sampler) {
		s.wrapS = w
	}
}

// WithWrapT sets the vertical wrap mode.
//
// Parameters:
//   - w: the wrap mode for the T coordinate
//
// Returns:
//   - SamplerBuilderOption: the option to apply
func WithWrapT(w Wrap) SamplerBuilderOption {
	return func(s *sampler) {
		s.wrapT = w
	}
}
