// Package locator maps a resolved artifact to a download URL.
//
// Mirrors are probed in priority order and the first one answering 2xx wins.
// When none answers, a group-prefix table picks a repository without
// verification. Artifacts published under irregular file names are served
// from an override table keyed by coordinate.
package locator
