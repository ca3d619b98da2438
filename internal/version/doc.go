// Package version exposes build metadata for the project.
//
// Version, Commit, and BuildTime are injected at build time via Go ldflags.
// UserAgent reuses the version for outgoing probe requests.
package version
