package sampler

// Filter selects how texels are sampled when a texture is minified or
// magnified.
type Filter int

const (
	// FilterNearest samples the single nearest texel.
	FilterNearest Filter = iota

	// FilterLinear blends the four nearest texels.
	FilterLinear

	// FilterLinearMipLinear blends between the two nearest mip levels with
	// linear sampling in each. Valid for minification only.
	FilterLinearMipLinear

	// FilterLinearMipNearest samples the nearest mip level with linear
	// sampling. Valid for minification only.
	FilterLinearMipNearest
)

// UsesMipmaps reports whether the filter reads from mip levels beyond the
// base level.
func (f Filter) UsesMipmaps() bool {
	return f == FilterLinearMipLinear || f == FilterLinearMipNearest
}

// Wrap selects how texture coordinates outside [0, 1] are resolved.
type Wrap int

const (
	// WrapClamp clamps coordinates to the edge texel.
	WrapClamp Wrap = iota

	// WrapRepeat tiles the texture.
	WrapRepeat

	// WrapMirroredRepeat tiles the texture, mirroring every other tile.
	WrapMirroredRepeat
)

// sampler is the implementation of the Sampler interface.
type sampler struct {
	// minFilter is applied when the texture is sampled below native size.
	minFilter Filter
	// magFilter is applied when the texture is sampled above native size.
	magFilter Filter
	// wrapS resolves out-of-range horizontal coordinates.
	wrapS Wrap
	// wrapT resolves out-of-range vertical coordinates.
	wrapT Wrap
}

// Sampler describes the filter and wrap state applied to a texture unit when
// a texture allocation is bound at draw time.
type Sampler interface {
	// MinFilter returns the minification filter.
	//
	// Returns:
	//   - Filter: the minification filter
	MinFilter() Filter

	// MagFilter returns the magnification filter.
	//
	// Returns:
	//   - Filter: the magnification filter
	MagFilter() Filter

	// WrapS returns the horizontal wrap mode.
	//
	// Returns:
	//   - Wrap: the horizontal wrap mode
	WrapS() Wrap

	// WrapT returns the vertical wrap mode.
	//
	// Returns:
	//   - Wrap: the vertical wrap mode
	WrapT() Wrap
}

var _ Sampler = &sampler{}

// NewSampler creates a Sampler with the specified options applied. Defaults
// are nearest filtering in both directions and clamped coordinates.
//
// Parameters:
//   - options: functional options to configure the sampler
//
// Returns:
//   - Sampler: the configured sampler
func NewSampler(options ...SamplerBuilderOption) Sampler {
	s := &sampler{
		minFilter: FilterNearest,
		magFilter: FilterNearest,
		wrapS:     WrapClamp,
		wrapT:     WrapClamp,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Default returns the shared default sampler (nearest filtering, clamped
// coordinates). Used wherever a texture is bound without an explicit sampler.
//
// Returns:
//   - Sampler: the default sampler
func Default() Sampler {
	return defaultSampler
}

var defaultSampler = NewSampler()

func (s *sampler) MinFilter() Filter {
	return s.minFilter
}

func (s *sampler) MagFilter() Filter {
	return s.magFilter
}

func (s *sampler) WrapS() Wrap {
	return s.wrapS
}

func (s *sampler) WrapT() Wrap {
	return s.wrapT
}
