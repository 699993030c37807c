// Package entities defines core domain models and data structures.
package entities

// ServiceBundle represents a container build recipe for one payload service.
// A bundle describes the four ordered build stages of the service image:
// base image selection, dependency installation, payload file copies, and
// the entrypoint declaration.
type ServiceBundle struct {
	Name        string
	Description string
	Base        BaseImage
	Packages    PackageSet
	Copy        []CopyStep
	WorkDir     string
	Entrypoint  Entrypoint
	Image       ImageConfig
	Runtime     RuntimeConfig
	DependsOn   []string
}

// BaseImage identifies the runtime image a bundle builds on
type BaseImage struct {
	Ref      string // e.g. "arm64v8/python:3.10-slim"
	Platform string // e.g. "linux/arm64"
}

// PackageSet describes OS-level and Python-level dependencies
type PackageSet struct {
	Apt    []string
	Pip    PipInstall
	Wheels []Wheel
}

// PipInstall describes the pip install stage
type PipInstall struct {
	Requirements []string // pinned requirement specs written to requirements.txt
	FindLinks    string   // local wheel directory passed as --find-links
	ExtraIndex   string   // optional --extra-index-url
}

// Wheel is a prebuilt wheel file staged into the build context.
// SHA256 pins the file contents; SignatureFile points at an optional
// detached GPG signature next to the wheel.
type Wheel struct {
	File          string
	SHA256        string
	SignatureFile string
}

// CopyStep copies a payload file or directory into the image
type CopyStep struct {
	Source string
	Dest   string
}

// Entrypoint records the container entrypoint script and its default
// arguments. Args is the CMD surface: a positional robot hostname followed
// by flag/value pairs.
type Entrypoint struct {
	Script          string
	Args            []string
	CredentialsPath string // mount path of the payload credentials file, if used
}

// ImageConfig holds naming and registry metadata for the built image
type ImageConfig struct {
	Repository string
	Tag        string
	Registry   string
}

// RuntimeConfig records runtime needs the image itself cannot express.
// It feeds the generated compose file only; nothing here affects the build.
type RuntimeConfig struct {
	Devices     []string
	Volumes     []string
	NetworkMode string
	Restart     string
	GPU         bool
}

// Reference returns the full image reference including the registry prefix
func (b *ServiceBundle) Reference() string {
	tag := b.Image.Tag
	if tag == "" {
		tag = "latest"
	}
	repo := b.Image.Repository
	if repo == "" {
		repo = b.Name
	}
	if b.Image.Registry == "" {
		return repo + ":" + tag
	}
	return b.Image.Registry + "/" + repo + ":" + tag
}

// UsesCredentials reports whether the entrypoint expects a mounted payload
// credentials file.
func (b *ServiceBundle) UsesCredentials() bool {
	return b.Entrypoint.CredentialsPath != ""
}
