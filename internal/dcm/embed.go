package dcm

import (
	"fmt"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/backmassage/dicommake/internal/raster"
)

// Photometric interpretations written by Embed.
const (
	PhotometricRGB         = "RGB"
	PhotometricMonochrome1 = "MONOCHROME1"
)

// EmbedOptions controls the derived fields written by [Embed].
type EmbedOptions struct {
	// Now stamps AcquisitionDate and AcquisitionTime.
	Now time.Time
	// AppendText, when non-empty, is appended to SeriesDescription as
	// " - <text>".
	AppendText string
	// NewUID generates series and instance UIDs; defaults to [NewUID].
	NewUID func() string
}

// Embed replaces the pixel payload of d with img and rewrites the fields
// that describe it. Bit depth is always 8 bits per sample; the transfer
// syntax is always explicit VR little endian; series and instance UIDs are
// regenerated so the output is a new instance in a new series.
func Embed(d *Document, img *raster.Image, opts EmbedOptions) error {
	newUID := opts.NewUID
	if newUID == nil {
		newUID = NewUID
	}
	sopUID := newUID()

	type field struct {
		t    tag.Tag
		data any
	}
	fields := []field{
		{tag.AcquisitionDate, []string{opts.Now.Format("20060102")}},
		{tag.AcquisitionTime, []string{opts.Now.Format("150405")}},
	}
	if img.RGB() {
		fields = append(fields,
			field{tag.PhotometricInterpretation, []string{PhotometricRGB}},
			field{tag.SamplesPerPixel, []int{3}},
			field{tag.PlanarConfiguration, []int{0}},
		)
	} else {
		fields = append(fields,
			field{tag.PhotometricInterpretation, []string{PhotometricMonochrome1}},
			field{tag.SamplesPerPixel, []int{1}},
		)
	}
	fields = append(fields,
		field{tag.Rows, []int{img.Height}},
		field{tag.Columns, []int{img.Width}},
		field{tag.BitsAllocated, []int{8}},
		field{tag.BitsStored, []int{8}},
		field{tag.HighBit, []int{7}},
		field{tag.PixelRepresentation, []int{0}},
		field{tag.PixelData, pixelData(img)},
		field{tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}},
		field{tag.SeriesInstanceUID, []string{newUID()}},
		field{tag.SOPInstanceUID, []string{sopUID}},
		field{tag.MediaStorageSOPInstanceUID, []string{sopUID}},
	)
	if d.Has(tag.NumberOfFrames) {
		fields = append(fields, field{tag.NumberOfFrames, []string{"1"}})
	}
	if opts.AppendText != "" {
		fields = append(fields, field{tag.SeriesDescription, []string{
			AppendDescription(d.String(tag.SeriesDescription), opts.AppendText),
		}})
	}

	for _, f := range fields {
		if err := d.Set(f.t, f.data); err != nil {
			return fmt.Errorf("embed: %w", err)
		}
	}
	return nil
}

// AppendDescription joins an existing description and extra text with
// " - ". An empty description yields the text alone.
func AppendDescription(desc, text string) string {
	if desc == "" {
		return text
	}
	return desc + " - " + text
}

// pixelData encodes the image as native 8-bit samples, row-major and
// channel-interleaved. Element values must have even length, so an odd
// payload gets one trailing zero byte; Rows and Columns still describe the
// unpadded image.
func pixelData(img *raster.Image) dicom.PixelDataInfo {
	n := len(img.Pix)
	buf := make([]byte, n+n%2)
	copy(buf, img.Pix)
	return dicom.PixelDataInfo{
		IntentionallyUnprocessed: true,
		UnprocessedValueData:     buf,
	}
}
