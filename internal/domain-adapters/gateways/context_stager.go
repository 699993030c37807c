package gateways

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"coreforge/internal/domain/entities"
)

// ContextStager assembles the docker build context for a bundle: the
// rendered Dockerfile, the staged requirements file, the wheel directory
// and every copy-step source from the payload root.
type ContextStager struct {
	renderer *DockerfileRenderer
}

// NewContextStager creates a new build context stager
func NewContextStager() *ContextStager {
	return &ContextStager{renderer: NewDockerfileRenderer()}
}

// StagedContext describes an assembled build context on disk
type StagedContext struct {
	Dir            string
	DockerfilePath string
	WheelPaths     []string // staged wheel files, for verification before build
}

// Stage assembles the build context for bundle under contextDir.
// payloadRoot is the directory holding the service's payload files; every
// copy-step source resolves against it and must stay inside it.
func (s *ContextStager) Stage(bundle *entities.ServiceBundle, payloadRoot, contextDir string) (*StagedContext, error) {
	if err := os.MkdirAll(contextDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create context directory: %w", err)
	}

	staged := &StagedContext{Dir: contextDir}

	// Dockerfile
	dockerfile, err := s.renderer.Render(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to render Dockerfile: %w", err)
	}
	staged.DockerfilePath = filepath.Join(contextDir, "Dockerfile")
	if err := os.WriteFile(staged.DockerfilePath, []byte(dockerfile), 0600); err != nil {
		return nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	// requirements.txt
	if reqs := s.renderer.RenderRequirements(bundle); reqs != "" {
		reqPath := filepath.Join(contextDir, RequirementsFileName)
		if err := os.WriteFile(reqPath, []byte(reqs), 0600); err != nil {
			return nil, fmt.Errorf("failed to write requirements file: %w", err)
		}
	}

	// Wheel directory
	if bundle.Packages.Pip.FindLinks != "" && len(bundle.Packages.Wheels) > 0 {
		wheelDir := filepath.Join(contextDir, bundle.Packages.Pip.FindLinks)
		if err := os.MkdirAll(wheelDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create wheel directory: %w", err)
		}
		for _, wheel := range bundle.Packages.Wheels {
			src, err := s.resolve(payloadRoot, filepath.Join(bundle.Packages.Pip.FindLinks, wheel.File))
			if err != nil {
				return nil, err
			}
			dst := filepath.Join(wheelDir, wheel.File)
			if err := copyFile(src, dst); err != nil {
				return nil, fmt.Errorf("failed to stage wheel %s: %w", wheel.File, err)
			}
			staged.WheelPaths = append(staged.WheelPaths, dst)

			if wheel.SignatureFile != "" {
				sigSrc, err := s.resolve(payloadRoot, filepath.Join(bundle.Packages.Pip.FindLinks, wheel.SignatureFile))
				if err != nil {
					return nil, err
				}
				if err := copyFile(sigSrc, filepath.Join(wheelDir, wheel.SignatureFile)); err != nil {
					return nil, fmt.Errorf("failed to stage signature %s: %w", wheel.SignatureFile, err)
				}
			}
		}
	}

	// Copy-step sources
	for _, step := range bundle.Copy {
		src, err := s.resolve(payloadRoot, step.Source)
		if err != nil {
			return nil, err
		}
		dst := filepath.Join(contextDir, filepath.FromSlash(strings.TrimSuffix(step.Source, "/")))
		if err := copyPath(src, dst); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", step.Source, err)
		}
	}

	return staged, nil
}

// resolve joins a relative source against the payload root and rejects
// anything that resolves outside it.
func (s *ContextStager) resolve(payloadRoot, source string) (string, error) {
	if filepath.IsAbs(source) {
		return "", fmt.Errorf("source %q must be relative to the payload root", source)
	}

	rootAbs, err := filepath.Abs(payloadRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve payload root: %w", err)
	}

	joined := filepath.Clean(filepath.Join(rootAbs, source))
	if joined != rootAbs && !strings.HasPrefix(joined, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("source %q escapes the payload root", source)
	}

	if _, err := os.Stat(joined); err != nil {
		return "", fmt.Errorf("source %q not found in payload root: %w", source, err)
	}

	return joined, nil
}

// copyPath copies a file or directory tree
func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}

	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0750)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}

	//nolint:gosec // G304: src is resolved against the payload root above
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: dst is inside the staged context directory
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		//nolint:errcheck // Best-effort close on error path
		out.Close()
		return err
	}
	return out.Close()
}
