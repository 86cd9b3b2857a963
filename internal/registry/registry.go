// Package registry defines the data types shared between the resolver and
// the site renderer.
package registry

import (
	"time"
)

// Record is a fully resolved plugin entry. Records for pinned specs are
// derived statically and carry no archive-derived metadata (checksum, size,
// compatibility range).
type Record struct {
	ID          string
	Name        string
	Version     string
	Description string
	DownloadURL string
	RepoURL     string
	ReleasedAt  time.Time
	Checksum    string
	Size        int64
	SinceBuild  string
	UntilBuild  string
	Pinned      bool
}

// ReleaseDate renders the release timestamp for display, empty when unknown.
func (r *Record) ReleaseDate() string {
	if r.ReleasedAt.IsZero() {
		return ""
	}
	return r.ReleasedAt.UTC().Format("2006-01-02")
}

// Compatibility renders the supported IDE build range for display.
func (r *Record) Compatibility() string {
	switch {
	case r.SinceBuild == "" && r.UntilBuild == "":
		return ""
	case r.UntilBuild == "":
		return r.SinceBuild + "+"
	default:
		return r.SinceBuild + " – " + r.UntilBuild
	}
}
