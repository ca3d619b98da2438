// Package generator runs one manifest generation: it validates the requested
// platforms, locks the output directory, loads the resolved dependencies,
// builds every platform's manifest in memory and writes them only when all
// builds succeeded.
package generator
