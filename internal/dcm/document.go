// Package dcm loads exemplar DICOM documents, rewrites the fields that
// describe their pixel payload, and writes them back out.
//
// Parsing and encoding are delegated to github.com/suyashkumar/dicom; this
// package owns the element edits and the on-disk write discipline.
package dcm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ExplicitVRLittleEndian is the transfer syntax every output is written in.
const ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

// ErrDecode wraps any failure to parse a container document.
var ErrDecode = errors.New("cannot parse DICOM document")

// Document is a parsed container document. It is not safe for concurrent
// use; each transform owns its own.
type Document struct {
	ds dicom.Dataset
}

// Load parses the document at path. The exemplar's pixel data is skipped
// because it is always replaced. Open failures are returned as-is
// (*fs.PathError); parse failures wrap ErrDecode.
func Load(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return &Document{ds: ds}, nil
}

// New wraps an already-built dataset.
func New(ds dicom.Dataset) *Document {
	return &Document{ds: ds}
}

// String returns the value of a string element, multi-values joined by a
// backslash, or "" when the element is absent.
func (d *Document) String(t tag.Tag) string {
	el, err := d.ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return ""
	}
	if s, ok := el.Value.GetValue().([]string); ok {
		return strings.Join(s, `\`)
	}
	return ""
}

// Int returns the first value of an integer element and whether it was
// present.
func (d *Document) Int(t tag.Tag) (int, bool) {
	el, err := d.ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return 0, false
	}
	v, ok := el.Value.GetValue().([]int)
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Has reports whether the element is present.
func (d *Document) Has(t tag.Tag) bool {
	_, err := d.ds.FindElementByTag(t)
	return err == nil
}

// Set replaces the element t with a new one holding data, inserting it in
// tag order when absent. data follows dicom.NewValue: []string, []int,
// []byte or dicom.PixelDataInfo.
func (d *Document) Set(t tag.Tag, data any) error {
	el, err := dicom.NewElement(t, data)
	if err != nil {
		return fmt.Errorf("build element %s: %w", t, err)
	}
	d.put(el)
	return nil
}

func (d *Document) put(el *dicom.Element) {
	for i, e := range d.ds.Elements {
		if e.Tag == el.Tag {
			d.ds.Elements[i] = el
			return
		}
		if tagLess(el.Tag, e.Tag) {
			d.ds.Elements = append(d.ds.Elements, nil)
			copy(d.ds.Elements[i+1:], d.ds.Elements[i:])
			d.ds.Elements[i] = el
			return
		}
	}
	d.ds.Elements = append(d.ds.Elements, el)
}

func tagLess(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// Write encodes the document as a DICOM Part 10 stream.
func (d *Document) Write(w io.Writer) error {
	return dicom.Write(w, d.ds, dicom.SkipVRVerification())
}

// WriteFile writes the document to path atomically: the bytes go to a
// temporary file in the same directory which is then renamed over path.
func (d *Document) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dicommake-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if err := d.Write(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
