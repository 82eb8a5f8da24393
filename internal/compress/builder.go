package compress

// DefaultCompressor is the DCMTK JPEG-lossless encoder.
const DefaultCompressor = "dcmcjpeg"

// Build returns the full argument slice for one compression, binary
// first. An empty bin selects [DefaultCompressor].
func Build(bin, input, output string) []string {
	if bin == "" {
		bin = DefaultCompressor
	}
	return []string{bin, input, output}
}
