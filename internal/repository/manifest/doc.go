// Package manifest persists launcher manifests as <root>/<id>/<id>.json.
//
// Files are replaced atomically through go-update: the new document is
// written next to the target, its SHA-1 verified, and only then swapped in,
// so readers never observe a half-written manifest.
package manifest
