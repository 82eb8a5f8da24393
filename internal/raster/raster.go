// Package raster decodes source images into the flat 8-bit pixel buffers
// embedded in output documents.
//
// Every source is flattened to 8 bits per sample. Gray images (8 or 16 bit)
// become single-sample buffers; everything else (RGB, RGBA, paletted,
// YCbCr, CMYK) becomes interleaved RGB with alpha dropped.
package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode wraps any failure to decode an image file.
var ErrDecode = errors.New("cannot decode image")

// Image is a decoded raster flattened to 8 bits per sample.
type Image struct {
	Width   int
	Height  int
	Samples int    // 1 (gray) or 3 (RGB)
	Format  string // decoder name, e.g. "png"
	Pix     []byte // row-major, samples interleaved
}

// RGB reports whether the image carries three samples per pixel.
func (im *Image) RGB() bool { return im.Samples == 3 }

// Load opens and decodes the image at path. Open failures are returned as-is
// (*fs.PathError); decode failures wrap ErrDecode.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	im, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return im, nil
}

// Decode reads any registered image format from r.
func Decode(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	im := FromImage(src)
	im.Format = format
	return im, nil
}

// FromImage flattens src into an Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch s := src.(type) {
	case *image.Gray:
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], s.Pix[off:off+w])
		}
		return &Image{Width: w, Height: h, Samples: 1, Pix: pix}

	case *image.Gray16:
		pix := make([]byte, w*h)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix[i] = uint8(s.Gray16At(x, y).Y >> 8)
				i++
			}
		}
		return &Image{Width: w, Height: h, Samples: 1, Pix: pix}
	}

	pix := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
			i += 3
		}
	}
	return &Image{Width: w, Height: h, Samples: 3, Pix: pix}
}
