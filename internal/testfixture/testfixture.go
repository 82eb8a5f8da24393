// Package testfixture builds exemplar DICOM files and images for tests.
package testfixture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Secondary capture image storage.
const SOPClass = "1.2.840.10008.5.1.4.1.1.7"

// Exemplar describes the identifying fields of a test container.
type Exemplar struct {
	SOPInstanceUID    string
	SeriesInstanceUID string
	SeriesDescription string // omitted when empty
	NumberOfFrames    string // omitted when empty
}

// DefaultExemplar is a plain exemplar with a series description.
func DefaultExemplar() Exemplar {
	return Exemplar{
		SOPInstanceUID:    "1.2.3.4.5.6.7",
		SeriesInstanceUID: "1.2.3.4.5.6",
		SeriesDescription: "Chest X-ray",
	}
}

// WriteDICOM writes an exemplar container to path, creating parent dirs.
func WriteDICOM(t testing.TB, path string, ex Exemplar) {
	t.Helper()
	els := []*dicom.Element{
		mustElement(t, tag.FileMetaInformationVersion, []byte{0x00, 0x01}),
		mustElement(t, tag.MediaStorageSOPClassUID, []string{SOPClass}),
		mustElement(t, tag.MediaStorageSOPInstanceUID, []string{ex.SOPInstanceUID}),
		mustElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustElement(t, tag.SOPClassUID, []string{SOPClass}),
		mustElement(t, tag.SOPInstanceUID, []string{ex.SOPInstanceUID}),
		mustElement(t, tag.Modality, []string{"OT"}),
	}
	if ex.SeriesDescription != "" {
		els = append(els, mustElement(t, tag.SeriesDescription, []string{ex.SeriesDescription}))
	}
	els = append(els,
		mustElement(t, tag.PatientName, []string{"Anonymous"}),
		mustElement(t, tag.SeriesInstanceUID, []string{ex.SeriesInstanceUID}),
	)
	if ex.NumberOfFrames != "" {
		els = append(els, mustElement(t, tag.NumberOfFrames, []string{ex.NumberOfFrames}))
	}

	mkParent(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := dicom.Write(f, dicom.Dataset{Elements: els}, dicom.SkipVRVerification()); err != nil {
		t.Fatalf("write exemplar %s: %v", path, err)
	}
}

// ReadOutput parses the document at path, keeping the PixelData value as
// raw bytes.
func ReadOutput(t testing.TB, path string) dicom.Dataset {
	t.Helper()
	ds, err := dicom.ParseFile(path, nil, dicom.SkipProcessingPixelDataValue())
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return ds
}

// PixelBytes returns the raw PixelData value of a dataset read with
// [ReadOutput] or dicom.SkipProcessingPixelDataValue.
func PixelBytes(t testing.TB, ds dicom.Dataset) []byte {
	t.Helper()
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		t.Fatalf("no PixelData: %v", err)
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if !info.IntentionallyUnprocessed {
		t.Fatal("PixelData was not read as raw bytes")
	}
	return info.UnprocessedValueData
}

// Strings returns the values of a string element of ds, or nil.
func Strings(ds dicom.Dataset, tg tag.Tag) []string {
	el, err := ds.FindElementByTag(tg)
	if err != nil {
		return nil
	}
	v, _ := el.Value.GetValue().([]string)
	return v
}

// WriteGrayPNG writes a w×h grayscale PNG whose pixel (x, y) is x+y*w.
func WriteGrayPNG(t testing.TB, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y*w)})
		}
	}
	writePNG(t, path, img)
}

// WriteRGBPNG writes a w×h opaque color PNG.
func WriteRGBPNG(t testing.TB, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	writePNG(t, path, img)
}

// WriteFile writes raw bytes to path, creating parent dirs.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	mkParent(t, path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	mkParent(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func mkParent(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustElement(t testing.TB, tg tag.Tag, data any) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, data)
	if err != nil {
		t.Fatalf("element %s: %v", tg, err)
	}
	return el
}
