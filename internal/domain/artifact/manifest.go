package artifact

import "time"

// TimestampLayout is the offset-qualified format launchers expect in "time" and "releaseTime".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// ReleaseType tags a manifest as a release or a pre-release build.
type ReleaseType string

// Release types understood by launchers.
const (
	ReleaseTypeRelease  ReleaseType = "release"
	ReleaseTypeSnapshot ReleaseType = "snapshot"
)

// Manifest describes how a launcher fetches and starts the application on one platform.
// Field order is the order of keys in the written document.
type Manifest struct {
	// ID is the platform-qualified version identifier.
	ID string `json:"id"`
	// InheritsFrom names the base version whose settings this manifest extends.
	InheritsFrom string `json:"inheritsFrom"`
	// Time is the generation timestamp.
	Time string `json:"time"`
	// ReleaseTime equals Time.
	ReleaseTime string `json:"releaseTime"`
	// Type is the release tag.
	Type ReleaseType `json:"type"`
	// MainClass is the entry point.
	MainClass string `json:"mainClass"`
	// JavaVersion is the required runtime.
	JavaVersion JavaVersion `json:"javaVersion"`
	// Libraries lists artifacts in first-seen order, the application itself last.
	Libraries []Entry `json:"libraries"`
}

// JavaVersion names the runtime a launcher must provide.
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// Entry is one downloadable library.
type Entry struct {
	// Name is "group:name:version[:classifier]".
	Name      string    `json:"name"`
	Downloads Downloads `json:"downloads"`
}

// Downloads wraps the artifact descriptor the way launchers nest it.
type Downloads struct {
	Artifact Download `json:"artifact"`
}

// Download locates and verifies a single file.
type Download struct {
	// Path is repository-relative and also where launchers store the file locally.
	Path string `json:"path"`
	// SHA1 is 40 lowercase hex characters.
	SHA1 string `json:"sha1"`
	// Size is the length in bytes.
	Size int64 `json:"size"`
	// URL is the absolute download location.
	URL string `json:"url"`
}

// FormatTimestamp renders t in TimestampLayout, truncated to seconds, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}
