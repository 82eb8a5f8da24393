// Package mapping discovers input files and pairs container documents with
// images.
//
// A [Mapper] walks an input tree with a doublestar glob and yields
// (input, output) entries under one of two output layouts. [Combine] turns
// the container and image entries into an [AlignedBatch] of four sorted
// lists and checks their cardinality; [Join] pairs the two sets explicitly
// by file stem and reports duplicates and missing counterparts.
package mapping
