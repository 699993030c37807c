package entities

// ExtensionManifest is the manifest.json placed at the root of an
// extension archive installed on the companion compute module.
type ExtensionManifest struct {
	Description      string   `json:"description"`
	Version          string   `json:"version"`
	Images           []string `json:"images"`
	UDEVRules        string   `json:"udev_rules,omitempty"`
	ExtensionName    string   `json:"extension_name"`
	HostNetworkMode  bool     `json:"host_network_mode,omitempty"`
	RestartOnFailure bool     `json:"restart_on_failure,omitempty"`
}

// ComposeFile is the docker-compose subset generated into an extension
// archive from the bundles' runtime metadata.
type ComposeFile struct {
	Version  string                    `yaml:"version"`
	Services map[string]ComposeService `yaml:"services"`
}

// ComposeService is one service entry in the generated compose file
type ComposeService struct {
	Image       string   `yaml:"image"`
	Command     []string `yaml:"command,omitempty"`
	Devices     []string `yaml:"devices,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	NetworkMode string   `yaml:"network_mode,omitempty"`
	Restart     string   `yaml:"restart,omitempty"`
}
