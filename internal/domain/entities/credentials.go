package entities

import (
	"fmt"
	"strings"
)

// DefaultCredentialsPath is where the payload credentials file is mounted
// inside service containers on the companion compute module.
const DefaultCredentialsPath = "/opt/payload_credentials/payload_guid_and_secret"

// PayloadCredentials authenticates a payload service against the robot.
// The on-disk format is two lines: the payload GUID followed by its secret.
type PayloadCredentials struct {
	GUID   string
	Secret string
}

// ParsePayloadCredentials parses the two-line payload credentials format
func ParsePayloadCredentials(data []byte) (*PayloadCredentials, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("credentials file must contain a GUID line and a secret line")
	}

	guid := strings.TrimSpace(lines[0])
	secret := strings.TrimSpace(lines[1])
	if guid == "" || secret == "" {
		return nil, fmt.Errorf("credentials file has an empty GUID or secret")
	}

	return &PayloadCredentials{GUID: guid, Secret: secret}, nil
}
