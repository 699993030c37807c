package entities

import (
	"testing"
)

func TestServiceBundle_Reference(t *testing.T) {
	tests := []struct {
		name   string
		bundle ServiceBundle
		want   string
	}{
		{
			name: "repository and tag",
			bundle: ServiceBundle{
				Name:  "web-cam-image",
				Image: ImageConfig{Repository: "web_cam_image_service", Tag: "1.2.0"},
			},
			want: "web_cam_image_service:1.2.0",
		},
		{
			name: "defaults tag to latest",
			bundle: ServiceBundle{
				Name:  "web-cam-image",
				Image: ImageConfig{Repository: "web_cam_image_service"},
			},
			want: "web_cam_image_service:latest",
		},
		{
			name: "defaults repository to bundle name",
			bundle: ServiceBundle{
				Name: "web-cam-image",
			},
			want: "web-cam-image:latest",
		},
		{
			name: "registry prefix",
			bundle: ServiceBundle{
				Name: "web-cam-image",
				Image: ImageConfig{
					Repository: "web_cam_image_service",
					Tag:        "1.2.0",
					Registry:   "registry.example.com:5000",
				},
			},
			want: "registry.example.com:5000/web_cam_image_service:1.2.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bundle.Reference(); got != tt.want {
				t.Errorf("Reference() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceBundle_UsesCredentials(t *testing.T) {
	with := ServiceBundle{
		Entrypoint: Entrypoint{CredentialsPath: DefaultCredentialsPath},
	}
	if !with.UsesCredentials() {
		t.Error("UsesCredentials() should be true when a credentials path is declared")
	}

	without := ServiceBundle{}
	if without.UsesCredentials() {
		t.Error("UsesCredentials() should be false without a credentials path")
	}
}

func TestParsePayloadCredentials(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *PayloadCredentials
		wantErr bool
	}{
		{
			name: "valid two-line file",
			data: "78b076a2-b4ba-491d-a099-738928c4410c\nc2VjcmV0LXZhbHVl\n",
			want: &PayloadCredentials{
				GUID:   "78b076a2-b4ba-491d-a099-738928c4410c",
				Secret: "c2VjcmV0LXZhbHVl",
			},
		},
		{
			name: "trailing whitespace",
			data: "  guid-value  \n  secret-value  \n\n",
			want: &PayloadCredentials{GUID: "guid-value", Secret: "secret-value"},
		},
		{
			name:    "single line",
			data:    "only-a-guid\n",
			wantErr: true,
		},
		{
			name:    "empty secret line",
			data:    "guid-value\n   \n",
			wantErr: true,
		},
		{
			name:    "empty file",
			data:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayloadCredentials([]byte(tt.data))

			if tt.wantErr {
				if err == nil {
					t.Error("ParsePayloadCredentials() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayloadCredentials() error = %v", err)
			}
			if got.GUID != tt.want.GUID || got.Secret != tt.want.Secret {
				t.Errorf("ParsePayloadCredentials() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
