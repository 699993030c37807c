package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"coreforge/internal/domain/entities"
)

// ImageSaver exports image references into a gzipped tarball
type ImageSaver interface {
	Save(ctx context.Context, references []string, outPath string) error
}

// Exporter packages built images into an extension archive installable on
// the companion compute module: a tgz holding manifest.json, the generated
// docker-compose.yml and the saved image tarball.
type Exporter struct {
	saver ImageSaver
}

// NewExporter creates an exporter that saves images through the given saver
func NewExporter(saver ImageSaver) *Exporter {
	return &Exporter{saver: saver}
}

// ImagesTarballName is the saved-images file inside an extension archive
const ImagesTarballName = "images.tar.gz"

// ExportExtension builds <outputDir>/<name>.spx for the given bundles.
// The archive layout is flat: manifest.json, docker-compose.yml,
// images.tar.gz. Returns an artifact pointing at the archive, with a
// .sha256 sidecar written next to it.
func (e *Exporter) ExportExtension(
	ctx context.Context,
	bundles []*entities.ServiceBundle,
	manifest *entities.ExtensionManifest,
	composeData []byte,
	outputDir, name string,
) (*entities.ImageArtifact, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no bundles to export")
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stageDir, err := os.MkdirTemp(outputDir, "export-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	//nolint:errcheck // Best-effort cleanup of the staging directory
	defer os.RemoveAll(stageDir)

	// Saved images
	references := make([]string, 0, len(bundles))
	for _, b := range bundles {
		references = append(references, b.Reference())
	}
	if err := e.saver.Save(ctx, references, filepath.Join(stageDir, ImagesTarballName)); err != nil {
		return nil, fmt.Errorf("failed to save images: %w", err)
	}

	// manifest.json
	manifest.Images = references
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stageDir, "manifest.json"), manifestData, 0600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	// docker-compose.yml
	if err := os.WriteFile(filepath.Join(stageDir, "docker-compose.yml"), composeData, 0600); err != nil {
		return nil, fmt.Errorf("failed to write compose file: %w", err)
	}

	archivePath := filepath.Join(outputDir, name+".spx")
	if err := createTarball(stageDir, archivePath); err != nil {
		return nil, fmt.Errorf("failed to create extension archive: %w", err)
	}

	if err := writeChecksumSidecar(archivePath); err != nil {
		return nil, err
	}

	return &entities.ImageArtifact{
		Bundle:    name,
		Reference: references[0],
		Path:      archivePath,
		Type:      "extension",
		BuiltAt:   time.Now(),
	}, nil
}

// writeChecksumSidecar writes <path>.sha256 in "digest  filename" format
func writeChecksumSidecar(path string) error {
	sum, err := NewWheelVerifier().CalculateChecksum(path)
	if err != nil {
		return fmt.Errorf("failed to checksum archive: %w", err)
	}
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(path+".sha256", []byte(line), 0600); err != nil {
		return fmt.Errorf("failed to write checksum sidecar: %w", err)
	}
	return nil
}

// createTarball creates a gzipped tar archive from a source directory
func createTarball(sourceDir, tarballPath string) error {
	//nolint:gosec // G304: tarballPath is constructed for export output
	file, err := os.Create(tarballPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	//nolint:errcheck // Defer close
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	//nolint:errcheck // Defer close
	defer tarWriter.Close()

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		// Skip the root directory itself
		if relPath == "." {
			return nil
		}

		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		//nolint:gosec // G304: File path from filepath.Walk over the staging dir
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		//nolint:errcheck // Defer close
		defer f.Close()

		if _, err := io.Copy(tarWriter, f); err != nil {
			return fmt.Errorf("failed to write file to tar: %w", err)
		}
		return nil
	})
}
