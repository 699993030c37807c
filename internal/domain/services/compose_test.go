package services

import (
	"strings"
	"testing"

	"coreforge/internal/domain/entities"
)

func TestComposeService_Generate(t *testing.T) {
	service := NewComposeService()

	bundle := validBundle()
	bundle.Runtime = entities.RuntimeConfig{
		Devices:     []string{"/dev/video0:/dev/video0"},
		NetworkMode: "host",
		Restart:     "unless-stopped",
	}

	compose, err := service.Generate([]*entities.ServiceBundle{bundle})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if compose.Version != "3.5" {
		t.Errorf("Version = %v, want 3.5", compose.Version)
	}

	svc, ok := compose.Services["web-cam-image"]
	if !ok {
		t.Fatal("Generate() missing service web-cam-image")
	}
	if svc.Image != bundle.Reference() {
		t.Errorf("Image = %v, want %v", svc.Image, bundle.Reference())
	}
	if svc.NetworkMode != "host" {
		t.Errorf("NetworkMode = %v, want host", svc.NetworkMode)
	}
	if len(svc.Command) != len(bundle.Entrypoint.Args) {
		t.Errorf("Command length = %d, want %d", len(svc.Command), len(bundle.Entrypoint.Args))
	}
}

func TestComposeService_Generate_CredentialsMount(t *testing.T) {
	service := NewComposeService()

	t.Run("adds read-only mount", func(t *testing.T) {
		bundle := validBundle()

		compose, err := service.Generate([]*entities.ServiceBundle{bundle})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		svc := compose.Services[bundle.Name]
		want := entities.DefaultCredentialsPath + ":" + entities.DefaultCredentialsPath + ":ro"
		found := false
		for _, v := range svc.Volumes {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Volumes = %v, want %q", svc.Volumes, want)
		}
	})

	t.Run("does not duplicate an existing mount", func(t *testing.T) {
		bundle := validBundle()
		bundle.Runtime.Volumes = []string{
			"/opt/custom_creds:" + entities.DefaultCredentialsPath + ":ro",
		}

		compose, err := service.Generate([]*entities.ServiceBundle{bundle})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		svc := compose.Services[bundle.Name]
		if len(svc.Volumes) != 1 {
			t.Errorf("Volumes = %v, want the single existing mount", svc.Volumes)
		}
	})

	t.Run("no mount without credentials", func(t *testing.T) {
		bundle := validBundle()
		bundle.Entrypoint.CredentialsPath = ""
		bundle.Entrypoint.Args = []string{"192.168.50.3"}

		compose, err := service.Generate([]*entities.ServiceBundle{bundle})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		if len(compose.Services[bundle.Name].Volumes) != 0 {
			t.Errorf("Volumes = %v, want none", compose.Services[bundle.Name].Volumes)
		}
	})
}

func TestComposeService_Generate_Empty(t *testing.T) {
	service := NewComposeService()

	if _, err := service.Generate(nil); err == nil {
		t.Error("Generate() should return error for an empty bundle set")
	}
}

func TestComposeService_Marshal_Deterministic(t *testing.T) {
	service := NewComposeService()

	a := validBundle()
	a.Name = "service-a"
	b := validBundle()
	b.Name = "service-b"

	compose, err := service.Generate([]*entities.ServiceBundle{a, b})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	first, err := service.Marshal(compose)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := service.Marshal(compose)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if string(first) != string(second) {
		t.Error("Marshal() output is not deterministic")
	}
	if !strings.Contains(string(first), "service-a:") || !strings.Contains(string(first), "service-b:") {
		t.Errorf("Marshal() output missing services:\n%s", first)
	}
}

func TestComposeService_ServiceNames(t *testing.T) {
	service := NewComposeService()

	b := validBundle()
	b.Name = "service-b"
	a := validBundle()
	a.Name = "service-a"

	compose, err := service.Generate([]*entities.ServiceBundle{b, a})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	names := service.ServiceNames(compose)
	if len(names) != 2 || names[0] != "service-a" || names[1] != "service-b" {
		t.Errorf("ServiceNames() = %v, want sorted [service-a service-b]", names)
	}
}
