// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"coreforge/internal/domain/entities"
)

// Platforms the companion compute module can run images for
const (
	PlatformLinuxARM64 = "linux/arm64"
	PlatformLinuxAMD64 = "linux/amd64"
)

var knownPlatforms = map[string]bool{
	PlatformLinuxARM64: true,
	PlatformLinuxAMD64: true,
}

// Image references: optional registry/repo path segments plus an optional tag.
var imageRefPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._\-/][a-z0-9]+)*(?::[A-Za-z0-9._\-]+)?$`)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidationService checks service bundles against the build contract:
// a runnable entrypoint surface, staged payload files that stay inside the
// payload root, and resolvable build ordering.
type ValidationService struct{}

// NewValidationService creates a new validation service
func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// ValidateBundle checks a single bundle and returns all findings
func (s *ValidationService) ValidateBundle(bundle *entities.ServiceBundle) *entities.ValidationReport {
	report := &entities.ValidationReport{}

	if bundle.Name == "" {
		report.Add("", "name", entities.SeverityError, "bundle must have a name")
		return report
	}

	s.validateBase(bundle, report)
	s.validateCopySteps(bundle, report)
	s.validateEntrypoint(bundle, report)
	s.validateWheels(bundle, report)

	if bundle.WorkDir != "" && !strings.HasPrefix(bundle.WorkDir, "/") {
		report.Add(bundle.Name, "workdir", entities.SeverityError,
			fmt.Sprintf("workdir %q must be an absolute path", bundle.WorkDir))
	}

	return report
}

// ValidateAll checks every bundle plus the cross-bundle depends_on graph
func (s *ValidationService) ValidateAll(bundles []*entities.ServiceBundle) *entities.ValidationReport {
	report := &entities.ValidationReport{}

	byName := make(map[string]*entities.ServiceBundle, len(bundles))
	for _, b := range bundles {
		if _, dup := byName[b.Name]; dup {
			report.Add(b.Name, "name", entities.SeverityError, "duplicate bundle name")
			continue
		}
		byName[b.Name] = b
	}

	for _, b := range bundles {
		report.Merge(s.ValidateBundle(b))

		for _, dep := range b.DependsOn {
			if _, ok := byName[dep]; !ok {
				report.Add(b.Name, "depends_on", entities.SeverityError,
					fmt.Sprintf("depends on unknown bundle %q", dep))
			}
		}
	}

	if cycle := findCycle(byName); len(cycle) > 0 {
		report.Add(cycle[0], "depends_on", entities.SeverityError,
			fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	return report
}

func (s *ValidationService) validateBase(bundle *entities.ServiceBundle, report *entities.ValidationReport) {
	if bundle.Base.Ref == "" {
		report.Add(bundle.Name, "base.ref", entities.SeverityError, "base image reference is required")
	} else if !imageRefPattern.MatchString(strings.ToLower(bundle.Base.Ref)) {
		report.Add(bundle.Name, "base.ref", entities.SeverityError,
			fmt.Sprintf("base image reference %q is not a valid image reference", bundle.Base.Ref))
	}

	if bundle.Base.Platform != "" && !knownPlatforms[bundle.Base.Platform] {
		report.Add(bundle.Name, "base.platform", entities.SeverityError,
			fmt.Sprintf("unknown platform %q", bundle.Base.Platform))
	}
}

func (s *ValidationService) validateCopySteps(bundle *entities.ServiceBundle, report *entities.ValidationReport) {
	for i, step := range bundle.Copy {
		field := fmt.Sprintf("copy[%d]", i)

		if step.Source == "" || step.Dest == "" {
			report.Add(bundle.Name, field, entities.SeverityError, "copy step requires both source and dest")
			continue
		}

		// Sources are relative to the payload root and must stay inside it.
		if strings.HasPrefix(step.Source, "/") {
			report.Add(bundle.Name, field, entities.SeverityError,
				fmt.Sprintf("copy source %q must be relative to the payload root", step.Source))
		} else if escapesRoot(step.Source) {
			report.Add(bundle.Name, field, entities.SeverityError,
				fmt.Sprintf("copy source %q escapes the payload root", step.Source))
		}

		// Credentials are mounted at runtime, never baked into the image.
		if bundle.UsesCredentials() && pathCovers(step.Dest, bundle.Entrypoint.CredentialsPath) {
			report.Add(bundle.Name, field, entities.SeverityError,
				fmt.Sprintf("copy dest %q would bake the payload credentials path into the image", step.Dest))
		}
	}
}

func (s *ValidationService) validateEntrypoint(bundle *entities.ServiceBundle, report *entities.ValidationReport) {
	ep := bundle.Entrypoint

	if ep.Script == "" {
		report.Add(bundle.Name, "entrypoint.script", entities.SeverityError, "entrypoint script is required")
		return
	}
	if !strings.HasSuffix(ep.Script, ".py") {
		report.Add(bundle.Name, "entrypoint.script", entities.SeverityError,
			fmt.Sprintf("entrypoint script %q is not a Python script", ep.Script))
	}

	if !s.scriptIsCopied(bundle) {
		report.Add(bundle.Name, "entrypoint.script", entities.SeverityError,
			fmt.Sprintf("entrypoint script %q is not copied into the image by any copy step", ep.Script))
	}

	s.validateArgs(bundle, report)

	if ep.CredentialsPath != "" && !strings.HasPrefix(ep.CredentialsPath, "/") {
		report.Add(bundle.Name, "entrypoint.credentials_path", entities.SeverityError,
			fmt.Sprintf("credentials path %q must be absolute", ep.CredentialsPath))
	}
}

// validateArgs checks the default argument shape: an optional positional
// robot hostname, then --flag value pairs.
func (s *ValidationService) validateArgs(bundle *entities.ServiceBundle, report *entities.ValidationReport) {
	args := bundle.Entrypoint.Args

	i := 0
	if i < len(args) && !strings.HasPrefix(args[i], "-") {
		i++ // positional hostname
	}

	for i < len(args) {
		flag := args[i]
		if !strings.HasPrefix(flag, "--") {
			report.Add(bundle.Name, "entrypoint.args", entities.SeverityError,
				fmt.Sprintf("unexpected positional argument %q after flags began", flag))
			return
		}
		if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
			report.Add(bundle.Name, "entrypoint.args", entities.SeverityError,
				fmt.Sprintf("flag %q is missing a value", flag))
			return
		}

		if flag == "--payload-credentials-file" {
			value := args[i+1]
			if !strings.HasPrefix(value, "/") {
				report.Add(bundle.Name, "entrypoint.args", entities.SeverityError,
					fmt.Sprintf("--payload-credentials-file value %q must be an absolute path", value))
			} else if bundle.Entrypoint.CredentialsPath != "" && value != bundle.Entrypoint.CredentialsPath {
				report.Add(bundle.Name, "entrypoint.args", entities.SeverityError,
					fmt.Sprintf("--payload-credentials-file value %q does not match declared credentials path %q",
						value, bundle.Entrypoint.CredentialsPath))
			}
		}

		i += 2
	}
}

func (s *ValidationService) validateWheels(bundle *entities.ServiceBundle, report *entities.ValidationReport) {
	if bundle.Packages.Pip.FindLinks != "" && len(bundle.Packages.Wheels) == 0 {
		report.Add(bundle.Name, "packages.pip.find_links", entities.SeverityWarning,
			fmt.Sprintf("find_links %q declared but no wheels listed, pip will install from the index", bundle.Packages.Pip.FindLinks))
	}

	for i, wheel := range bundle.Packages.Wheels {
		field := fmt.Sprintf("packages.wheels[%d]", i)

		if wheel.File == "" {
			report.Add(bundle.Name, field, entities.SeverityError, "wheel requires a file name")
			continue
		}
		if !strings.HasSuffix(wheel.File, ".whl") {
			report.Add(bundle.Name, field, entities.SeverityError,
				fmt.Sprintf("wheel file %q does not have a .whl extension", wheel.File))
		}

		if wheel.SHA256 == "" {
			report.Add(bundle.Name, field, entities.SeverityWarning,
				fmt.Sprintf("wheel %q has no sha256 pin and will not be verified", wheel.File))
		} else if !sha256Pattern.MatchString(wheel.SHA256) {
			report.Add(bundle.Name, field, entities.SeverityError,
				fmt.Sprintf("wheel %q sha256 pin is not a 64-char hex digest", wheel.File))
		}
	}
}

// scriptIsCopied reports whether a copy step lands the entrypoint script in
// the image, either directly or by copying its containing directory.
func (s *ValidationService) scriptIsCopied(bundle *entities.ServiceBundle) bool {
	script := bundle.Entrypoint.Script
	for _, step := range bundle.Copy {
		if path.Base(step.Source) == script || path.Base(step.Dest) == script {
			return true
		}
		// Directory copies ("COPY . /app") cover everything under the root.
		if step.Source == "." || strings.HasSuffix(step.Source, "/") {
			return true
		}
	}
	return false
}

// escapesRoot reports whether a relative path climbs out of its root
func escapesRoot(p string) bool {
	clean := path.Clean(p)
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// pathCovers reports whether dest equals or is a parent directory of target
func pathCovers(dest, target string) bool {
	dest = path.Clean(dest)
	target = path.Clean(target)
	return dest == target || strings.HasPrefix(target, dest+"/") && dest != "/"
}

// findCycle runs a depth-first search over depends_on edges and returns the
// first cycle found, or nil.
func findCycle(bundles map[string]*entities.ServiceBundle) []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(bundles))

	var cycle []string
	var visit func(name string, stack []string) bool

	visit = func(name string, stack []string) bool {
		state[name] = inStack
		stack = append(stack, name)

		b := bundles[name]
		if b != nil {
			for _, dep := range b.DependsOn {
				if _, ok := bundles[dep]; !ok {
					continue // unknown deps are reported separately
				}
				switch state[dep] {
				case inStack:
					cycle = append(stack, dep)
					return true
				case unvisited:
					if visit(dep, stack) {
						return true
					}
				}
			}
		}

		state[name] = done
		return false
	}

	for name := range bundles {
		if state[name] == unvisited {
			if visit(name, nil) {
				return cycle
			}
		}
	}
	return nil
}
