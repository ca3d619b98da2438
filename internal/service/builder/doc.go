// Package builder assembles one launcher manifest per platform from the
// resolved dependency list.
package builder
