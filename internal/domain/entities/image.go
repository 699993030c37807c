package entities

import "time"

// ImageArtifact represents a built (or exported) container image
type ImageArtifact struct {
	Bundle    string
	Reference string
	Platform  string
	Path      string // filesystem path for exported tarballs, empty for daemon-only images
	Type      string // "image", "tarball", "extension"
	BuiltAt   time.Time
}
