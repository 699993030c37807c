package services

import (
	"fmt"
	"sort"
	"strings"

	"coreforge/internal/domain/entities"

	"gopkg.in/yaml.v3"
)

// ComposeService generates the docker-compose file placed in an extension
// archive. Runtime metadata the image cannot express (devices, volumes,
// host networking) is carried on each bundle's RuntimeConfig.
type ComposeService struct{}

// NewComposeService creates a new compose generator
func NewComposeService() *ComposeService {
	return &ComposeService{}
}

// Generate builds the compose model for a set of bundles
func (s *ComposeService) Generate(bundles []*entities.ServiceBundle) (*entities.ComposeFile, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no bundles to generate a compose file for")
	}

	compose := &entities.ComposeFile{
		Version:  "3.5",
		Services: make(map[string]entities.ComposeService, len(bundles)),
	}

	for _, b := range bundles {
		svc := entities.ComposeService{
			Image:       b.Reference(),
			Command:     b.Entrypoint.Args,
			Devices:     b.Runtime.Devices,
			Volumes:     b.Runtime.Volumes,
			NetworkMode: b.Runtime.NetworkMode,
			Restart:     b.Runtime.Restart,
		}

		// The credentials file is always a runtime mount, never an image layer.
		if b.UsesCredentials() {
			mount := entities.DefaultCredentialsPath + ":" + b.Entrypoint.CredentialsPath + ":ro"
			if !containsVolume(svc.Volumes, b.Entrypoint.CredentialsPath) {
				svc.Volumes = append(svc.Volumes, mount)
			}
		}

		compose.Services[b.Name] = svc
	}

	return compose, nil
}

// Marshal renders the compose model to YAML. yaml.v3 emits map keys in
// sorted order, so output is deterministic.
func (s *ComposeService) Marshal(compose *entities.ComposeFile) ([]byte, error) {
	data, err := yaml.Marshal(compose)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compose file: %w", err)
	}
	return data, nil
}

// ServiceNames returns the compose service names in sorted order
func (s *ComposeService) ServiceNames(compose *entities.ComposeFile) []string {
	names := make([]string, 0, len(compose.Services))
	for name := range compose.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// containsVolume checks whether any host:container[:mode] volume entry
// already mounts the given container path.
func containsVolume(volumes []string, containerPath string) bool {
	for _, v := range volumes {
		parts := strings.Split(v, ":")
		if len(parts) >= 2 && parts[1] == containerPath {
			return true
		}
	}
	return false
}
