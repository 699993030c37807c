package main

import (
	"testing"

	"coreforge/internal/domain/entities"
)

func TestPushPlan(t *testing.T) {
	tests := []struct {
		name      string
		bundle    *entities.ServiceBundle
		override  string
		wantLocal string
		wantDest  string
		wantErr   bool
	}{
		{
			name: "registry from override only",
			bundle: &entities.ServiceBundle{
				Name:  "web-cam-image",
				Image: entities.ImageConfig{Repository: "web_cam_image", Tag: "latest"},
			},
			override:  "192.168.50.5:5000",
			wantLocal: "web_cam_image:latest",
			wantDest:  "192.168.50.5:5000/web_cam_image:latest",
		},
		{
			name: "registry from bundle yaml",
			bundle: &entities.ServiceBundle{
				Name:  "web-cam-image",
				Image: entities.ImageConfig{Repository: "web_cam_image", Tag: "latest", Registry: "192.168.50.5:5000"},
			},
			wantLocal: "192.168.50.5:5000/web_cam_image:latest",
			wantDest:  "192.168.50.5:5000/web_cam_image:latest",
		},
		{
			name: "override replaces bundle registry",
			bundle: &entities.ServiceBundle{
				Name:  "web-cam-image",
				Image: entities.ImageConfig{Repository: "web_cam_image", Tag: "v2", Registry: "10.0.0.9:5000"},
			},
			override:  "192.168.50.5:5000",
			wantLocal: "10.0.0.9:5000/web_cam_image:v2",
			wantDest:  "192.168.50.5:5000/web_cam_image:v2",
		},
		{
			name: "no registry anywhere",
			bundle: &entities.ServiceBundle{
				Name:  "web-cam-image",
				Image: entities.ImageConfig{Repository: "web_cam_image"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, target, err := pushPlan(tt.bundle, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("pushPlan() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("pushPlan() error = %v", err)
			}
			if local != tt.wantLocal {
				t.Errorf("pushPlan() local = %q, want %q", local, tt.wantLocal)
			}
			if target != tt.wantDest {
				t.Errorf("pushPlan() target = %q, want %q", target, tt.wantDest)
			}
		})
	}
}
