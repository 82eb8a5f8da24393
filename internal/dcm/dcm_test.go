package dcm

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/backmassage/dicommake/internal/raster"
	"github.com/backmassage/dicommake/internal/testfixture"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func loadExemplar(t *testing.T, ex testfixture.Exemplar) *Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exemplar.dcm")
	testfixture.WriteDICOM(t, path, ex)
	d, err := Load(path)
	require.NoError(t, err)
	return d
}

func reparse(t *testing.T, d *Document) *Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	ds, err := dicom.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil, dicom.SkipProcessingPixelDataValue())
	require.NoError(t, err)
	return New(ds)
}

func TestLoad_ReadsFields(t *testing.T) {
	d := loadExemplar(t, testfixture.DefaultExemplar())
	assert.Equal(t, "Chest X-ray", d.String(tag.SeriesDescription))
	assert.Equal(t, "1.2.3.4.5.6.7", d.String(tag.SOPInstanceUID))
	assert.False(t, d.Has(tag.PixelData))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.dcm"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	junk := filepath.Join(dir, "junk.dcm")
	testfixture.WriteFile(t, junk, []byte("this is not a DICOM file at all"))
	_, err = Load(junk)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmbed_Gray(t *testing.T) {
	d := loadExemplar(t, testfixture.DefaultExemplar())
	img := &raster.Image{Width: 3, Height: 2, Samples: 1, Pix: []byte{0, 1, 2, 3, 4, 5}}

	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))
	out := reparse(t, d)

	assert.Equal(t, PhotometricMonochrome1, out.String(tag.PhotometricInterpretation))
	assertInt(t, out, tag.SamplesPerPixel, 1)
	assertInt(t, out, tag.Rows, 2)
	assertInt(t, out, tag.Columns, 3)
	assertInt(t, out, tag.BitsAllocated, 8)
	assertInt(t, out, tag.BitsStored, 8)
	assertInt(t, out, tag.HighBit, 7)
	assertInt(t, out, tag.PixelRepresentation, 0)
	assert.False(t, out.Has(tag.PlanarConfiguration))
	assert.Equal(t, "20240309", out.String(tag.AcquisitionDate))
	assert.Equal(t, "140507", out.String(tag.AcquisitionTime))
	assert.Equal(t, ExplicitVRLittleEndian, out.String(tag.TransferSyntaxUID))
	assert.Equal(t, "Chest X-ray", out.String(tag.SeriesDescription))
	assert.Equal(t, img.Pix, testfixture.PixelBytes(t, out.ds))
}

func TestEmbed_RGB(t *testing.T) {
	d := loadExemplar(t, testfixture.DefaultExemplar())
	img := &raster.Image{Width: 2, Height: 1, Samples: 3, Pix: []byte{1, 2, 3, 4, 5, 6}}

	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))
	out := reparse(t, d)

	assert.Equal(t, PhotometricRGB, out.String(tag.PhotometricInterpretation))
	assertInt(t, out, tag.SamplesPerPixel, 3)
	assertInt(t, out, tag.PlanarConfiguration, 0)
	assertInt(t, out, tag.Rows, 1)
	assertInt(t, out, tag.Columns, 2)
	assert.Equal(t, img.Pix, testfixture.PixelBytes(t, out.ds))
}

func TestEmbed_OddPayloadIsPadded(t *testing.T) {
	tests := []struct {
		name    string
		w, h, s int
	}{
		{"gray 3x3", 3, 3, 1},
		{"gray 5x7", 5, 7, 1},
		{"gray 1x1", 1, 1, 1},
		{"rgb 5x5", 5, 5, 3},
		{"rgb 1x1", 1, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := make([]byte, tt.w*tt.h*tt.s)
			for i := range pix {
				pix[i] = byte(i + 1)
			}
			img := &raster.Image{Width: tt.w, Height: tt.h, Samples: tt.s, Pix: pix}
			d := loadExemplar(t, testfixture.DefaultExemplar())
			require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))

			out := reparse(t, d)
			assertInt(t, out, tag.Rows, tt.h)
			assertInt(t, out, tag.Columns, tt.w)
			payload := testfixture.PixelBytes(t, out.ds)
			require.Len(t, payload, len(pix)+1)
			assert.Equal(t, pix, payload[:len(pix)])
			assert.Zero(t, payload[len(pix)])
		})
	}
}

func TestWriteFile_OddPayloadDecodes(t *testing.T) {
	d := loadExemplar(t, testfixture.DefaultExemplar())
	img := &raster.Image{Width: 3, Height: 3, Samples: 1, Pix: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8}}
	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))

	path := filepath.Join(t.TempDir(), "odd.dcm")
	require.NoError(t, d.WriteFile(path))

	ds, err := dicom.ParseFile(path, nil)
	require.NoError(t, err)
	el, err := ds.FindElementByTag(tag.PixelData)
	require.NoError(t, err)
	info := dicom.MustGetPixelDataInfo(el.Value)
	require.Len(t, info.Frames, 1)
	native := info.Frames[0].NativeData
	assert.Equal(t, 3, native.Rows)
	assert.Equal(t, 3, native.Cols)
	require.Len(t, native.Data, 9)
	for i, px := range native.Data {
		assert.Equal(t, []int{i}, px)
	}
}

func TestEmbed_FreshUIDs(t *testing.T) {
	ex := testfixture.DefaultExemplar()
	d := loadExemplar(t, ex)
	img := &raster.Image{Width: 1, Height: 1, Samples: 1, Pix: []byte{9}}

	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))
	out := reparse(t, d)

	sop := out.String(tag.SOPInstanceUID)
	series := out.String(tag.SeriesInstanceUID)
	assert.NotEqual(t, ex.SOPInstanceUID, sop)
	assert.NotEqual(t, ex.SeriesInstanceUID, series)
	assert.NotEqual(t, sop, series)
	assert.Equal(t, sop, out.String(tag.MediaStorageSOPInstanceUID))
}

func TestEmbed_AppendText(t *testing.T) {
	img := &raster.Image{Width: 1, Height: 1, Samples: 1, Pix: []byte{0}}

	d := loadExemplar(t, testfixture.DefaultExemplar())
	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp, AppendText: "with measurements"}))
	assert.Equal(t, "Chest X-ray - with measurements", reparse(t, d).String(tag.SeriesDescription))

	ex := testfixture.DefaultExemplar()
	ex.SeriesDescription = ""
	d = loadExemplar(t, ex)
	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp, AppendText: "overlay"}))
	assert.Equal(t, "overlay", reparse(t, d).String(tag.SeriesDescription))
}

func TestEmbed_NumberOfFrames(t *testing.T) {
	ex := testfixture.DefaultExemplar()
	ex.NumberOfFrames = "12"
	d := loadExemplar(t, ex)
	img := &raster.Image{Width: 1, Height: 1, Samples: 1, Pix: []byte{0}}

	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))
	assert.Equal(t, "1", reparse(t, d).String(tag.NumberOfFrames))
}

func TestWriteFile_Atomic(t *testing.T) {
	d := loadExemplar(t, testfixture.DefaultExemplar())
	img := &raster.Image{Width: 2, Height: 2, Samples: 1, Pix: []byte{1, 2, 3, 4}}
	require.NoError(t, Embed(d, img, EmbedOptions{Now: stamp}))

	dir := t.TempDir()
	path := filepath.Join(dir, "out.dcm")
	require.NoError(t, d.WriteFile(path))

	back, err := Load(path)
	require.NoError(t, err)
	assertInt(t, back, tag.Rows, 2)

	entries, err := filepath.Glob(filepath.Join(dir, ".dicommake-*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewUID(t *testing.T) {
	re := regexp.MustCompile(`^2\.25\.[1-9][0-9]*$`)
	seen := map[string]bool{}
	for range 100 {
		u := NewUID()
		assert.Regexp(t, re, u)
		assert.LessOrEqual(t, len(u), 64)
		assert.False(t, seen[u])
		seen[u] = true
	}
}

func TestAppendDescription(t *testing.T) {
	assert.Equal(t, "a - b", AppendDescription("a", "b"))
	assert.Equal(t, "b", AppendDescription("", "b"))
}

func assertInt(t *testing.T, d *Document, tg tag.Tag, want int) {
	t.Helper()
	got, ok := d.Int(tg)
	require.True(t, ok, "missing %s", tg)
	assert.Equal(t, want, got, "%s", tg)
}
