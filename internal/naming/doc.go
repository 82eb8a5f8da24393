// Package naming provides file-name helpers shared by the path mapper and the
// pair transformer: stem and suffix derivation, output path building for the
// tree and flat layouts, and collision resolution for flattened outputs.
package naming
