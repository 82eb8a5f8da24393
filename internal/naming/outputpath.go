package naming

import (
	"path/filepath"
)

// TreeOutputPath mirrors rel (a path relative to the input root, either
// separator style) under outputDir and swaps its extension for suffix.
//
//	rel "study/a.png", outputDir "/out", suffix ".dcm" → "/out/study/a.dcm"
func TreeOutputPath(outputDir, rel, suffix string) string {
	return WithSuffix(filepath.Join(outputDir, filepath.FromSlash(rel)), suffix)
}

// FlatOutputPath drops the directory part of input and places the renamed
// file directly in outputDir.
//
//	input "/in/study/a.png", outputDir "/out/results", suffix ".dcm" → "/out/results/a.dcm"
func FlatOutputPath(outputDir, input, suffix string) string {
	return WithSuffix(filepath.Join(outputDir, filepath.Base(input)), suffix)
}
