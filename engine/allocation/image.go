package allocation

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/ember-gfx/ember-go/engine/report"
	xdraw "golang.org/x/image/draw"
)

// FromImage creates a two-dimensional RGBA texture allocation from a decoded
// image. Pixels are converted to packed RGBA bytes and the allocation is
// left deferred so the first sync uploads them.
//
// Parameters:
//   - img: the source image
//   - usage: the consumption mask, typically script and texture usage
//   - options: functional options to configure the allocation
//
// Returns:
//   - Allocation: the new allocation holding the image pixels
func FromImage(img image.Image, usage Usage, options ...AllocationBuilderOption) Allocation {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return fromRGBA(rgba, usage, options...)
}

// FromImageScaled creates a two-dimensional RGBA texture allocation from a
// decoded image, rescaled to the given dimensions with bilinear filtering.
//
// Parameters:
//   - img: the source image
//   - width: the target width in pixels
//   - height: the target height in pixels
//   - usage: the consumption mask
//   - options: functional options to configure the allocation
//
// Returns:
//   - Allocation: the new allocation holding the rescaled pixels
func FromImageScaled(img image.Image, width, height int, usage Usage, options ...AllocationBuilderOption) Allocation {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return fromRGBA(dst, usage, options...)
}

// FromPixels creates a two-dimensional RGBA texture allocation from raw
// packed RGBA bytes. Panics when the pixel data does not match the
// dimensions.
//
// Parameters:
//   - pix: the packed RGBA bytes, 4 per pixel in row-major order
//   - width: the image width in pixels
//   - height: the image height in pixels
//   - usage: the consumption mask
//   - options: functional options to configure the allocation
//
// Returns:
//   - Allocation: the new allocation holding the pixels
func FromPixels(pix []byte, width, height int, usage Usage, options ...AllocationBuilderOption) Allocation {
	t := NewType(ElementRGBA8888, width, WithDimY(height))
	options = append(options, WithInitialData(pix))
	return NewAllocation(t, usage, options...)
}

// LoadImage decodes a PNG or JPEG file into a texture allocation.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - path: the image file to load
//   - usage: the consumption mask
//   - options: functional options to configure the allocation
//
// Returns:
//   - Allocation: the new allocation holding the image pixels
//   - error: an error if the file cannot be opened or decoded
func LoadImage(path string, usage Usage, options ...AllocationBuilderOption) (Allocation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image file %s: %w", path, err)
	}
	return FromImage(img, usage, options...), nil
}

// ToImage copies the base level of a packed RGBA allocation into an image.
// Typically used after a render-target readback.
//
// Parameters:
//   - a: the allocation to copy from
//
// Returns:
//   - *image.RGBA: the copied pixels
//   - error: an error if the allocation is not two-dimensional packed RGBA
func ToImage(a Allocation) (*image.RGBA, error) {
	t := a.Type()
	if !t.Element().ReadbackCompatible() {
		return nil, fmt.Errorf("allocation element is %s, want packed RGBA bytes", t.Element())
	}
	if t.DimY() < 1 {
		return nil, fmt.Errorf("allocation is one-dimensional")
	}

	w, h := t.LevelDims(0)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, a.Bytes()[:w*h*4])
	return img, nil
}

func fromRGBA(rgba *image.RGBA, usage Usage, options ...AllocationBuilderOption) Allocation {
	w := rgba.Bounds().Dx()
	h := rgba.Bounds().Dy()
	t := NewType(ElementRGBA8888, w, WithDimY(h))
	options = append(options, WithInitialData(rgba.Pix))
	return NewAllocation(t, usage, options...)
}

func (a *allocation) FillMipLevels() {
	t := a.typ
	if t.LevelCount() < 2 {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q has no stored mip levels to fill", a.name))
		return
	}
	if !t.Element().ReadbackCompatible() {
		a.reporter.Report(report.KindUsage, fmt.Sprintf(
			"allocation %q element is %s, mip filling needs packed RGBA bytes",
			a.name, t.Element()))
		return
	}

	w0, h0 := t.LevelDims(0)
	for face := 0; face < t.FaceCount(); face++ {
		// The level images alias the CPU buffer directly, so each scale
		// writes its level in place.
		baseOff := t.LevelOffset(face, 0)
		base := &image.RGBA{
			Pix:    a.data[baseOff : baseOff+t.LevelBytes(0)],
			Stride: w0 * 4,
			Rect:   image.Rect(0, 0, w0, h0),
		}
		for level := 1; level < t.LevelCount(); level++ {
			w, h := t.LevelDims(level)
			off := t.LevelOffset(face, level)
			dst := &image.RGBA{
				Pix:    a.data[off : off+t.LevelBytes(level)],
				Stride: w * 4,
				Rect:   image.Rect(0, 0, w, h),
			}
			xdraw.BiLinear.Scale(dst, dst.Bounds(), base, base.Bounds(), xdraw.Src, nil)
		}
	}
	a.uploadDeferred = true
}
