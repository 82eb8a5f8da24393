// Package compress runs the external lossless recompressor over a freshly
// written document.
//
// The subprocess contract is `<compressor> <input> <output>`: exit 0 on
// success, non-zero with diagnostics on stderr. Build assembles the argument
// slice, Execute runs it and captures stderr, and a non-zero exit surfaces
// as an [*Error] carrying that stderr.
package compress
