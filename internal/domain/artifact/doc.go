// Package artifact holds the model of a launcher manifest: resolved
// dependency coordinates, target platforms and the JSON document a
// launcher reads to fetch and start the packaged application.
package artifact
