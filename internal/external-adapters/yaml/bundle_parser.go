// Package yaml provides YAML-based bundle parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"

	"coreforge/internal/domain/entities"

	"gopkg.in/yaml.v3"
)

// yamlBundle represents the raw YAML structure
type yamlBundle struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        yamlBase       `yaml:"base"`
	Packages    yamlPackages   `yaml:"packages"`
	Copy        []yamlCopyStep `yaml:"copy"`
	WorkDir     string         `yaml:"workdir"`
	Entrypoint  yamlEntrypoint `yaml:"entrypoint"`
	Image       yamlImage      `yaml:"image"`
	Runtime     yamlRuntime    `yaml:"runtime"`
	DependsOn   []string       `yaml:"depends_on"`
}

type yamlBase struct {
	Ref      string `yaml:"ref"`
	Platform string `yaml:"platform"`
}

type yamlPackages struct {
	Apt    []string    `yaml:"apt"`
	Pip    yamlPip     `yaml:"pip"`
	Wheels []yamlWheel `yaml:"wheels"`
}

type yamlPip struct {
	Requirements []string `yaml:"requirements"`
	FindLinks    string   `yaml:"find_links"`
	ExtraIndex   string   `yaml:"extra_index_url"`
}

type yamlWheel struct {
	File          string `yaml:"file"`
	SHA256        string `yaml:"sha256"`
	SignatureFile string `yaml:"signature_file"`
}

type yamlCopyStep struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

type yamlEntrypoint struct {
	Script          string   `yaml:"script"`
	Args            []string `yaml:"args"`
	CredentialsPath string   `yaml:"credentials_path"`
}

type yamlImage struct {
	Repository string `yaml:"repository"`
	Tag        string `yaml:"tag"`
	Registry   string `yaml:"registry"`
}

type yamlRuntime struct {
	Devices     []string `yaml:"devices"`
	Volumes     []string `yaml:"volumes"`
	NetworkMode string   `yaml:"network_mode"`
	Restart     string   `yaml:"restart"`
	GPU         bool     `yaml:"gpu"`
}

// BundleParser parses YAML bundle files
type BundleParser struct{}

// NewBundleParser creates a new YAML parser
func NewBundleParser() *BundleParser {
	return &BundleParser{}
}

// ParseFile parses a YAML bundle file into a ServiceBundle entity
func (p *BundleParser) ParseFile(filePath string) (*entities.ServiceBundle, error) {
	//nolint:gosec // G304: filePath is a bundle definition path from the repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a ServiceBundle entity
func (p *BundleParser) Parse(data []byte) (*entities.ServiceBundle, error) {
	var yb yamlBundle
	if err := yaml.Unmarshal(data, &yb); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if yb.Name == "" {
		return nil, fmt.Errorf("bundle must have a name")
	}
	if yb.Base.Ref == "" {
		return nil, fmt.Errorf("bundle %s must have a base image", yb.Name)
	}

	bundle := &entities.ServiceBundle{
		Name:        yb.Name,
		Description: yb.Description,
		Base:        convertBase(yb.Base),
		Packages:    convertPackages(yb.Packages),
		Copy:        convertCopySteps(yb.Copy),
		WorkDir:     yb.WorkDir,
		Entrypoint:  convertEntrypoint(yb.Entrypoint),
		Image:       convertImage(yb.Image),
		Runtime:     convertRuntime(yb.Runtime),
		DependsOn:   yb.DependsOn,
	}

	return bundle, nil
}

func convertBase(yb yamlBase) entities.BaseImage {
	platform := yb.Platform
	if platform == "" {
		// The companion compute module is an ARM64 device.
		platform = "linux/arm64"
	}
	return entities.BaseImage{
		Ref:      yb.Ref,
		Platform: platform,
	}
}

func convertPackages(yp yamlPackages) entities.PackageSet {
	wheels := make([]entities.Wheel, 0, len(yp.Wheels))
	for _, w := range yp.Wheels {
		wheels = append(wheels, entities.Wheel{
			File:          w.File,
			SHA256:        w.SHA256,
			SignatureFile: w.SignatureFile,
		})
	}

	return entities.PackageSet{
		Apt: yp.Apt,
		Pip: entities.PipInstall{
			Requirements: yp.Pip.Requirements,
			FindLinks:    yp.Pip.FindLinks,
			ExtraIndex:   yp.Pip.ExtraIndex,
		},
		Wheels: wheels,
	}
}

func convertCopySteps(steps []yamlCopyStep) []entities.CopyStep {
	converted := make([]entities.CopyStep, 0, len(steps))
	for _, s := range steps {
		converted = append(converted, entities.CopyStep{
			Source: s.Source,
			Dest:   s.Dest,
		})
	}
	return converted
}

func convertEntrypoint(ye yamlEntrypoint) entities.Entrypoint {
	return entities.Entrypoint{
		Script:          ye.Script,
		Args:            ye.Args,
		CredentialsPath: ye.CredentialsPath,
	}
}

func convertImage(yi yamlImage) entities.ImageConfig {
	return entities.ImageConfig{
		Repository: yi.Repository,
		Tag:        yi.Tag,
		Registry:   yi.Registry,
	}
}

func convertRuntime(yr yamlRuntime) entities.RuntimeConfig {
	return entities.RuntimeConfig{
		Devices:     yr.Devices,
		Volumes:     yr.Volumes,
		NetworkMode: yr.NetworkMode,
		Restart:     yr.Restart,
		GPU:         yr.GPU,
	}
}
