// Package gateways implements adapters that touch the host system: the
// container CLI, the image registry, the build context on disk.
package gateways

import (
	"fmt"
	"sort"
	"strings"

	"coreforge/internal/domain/entities"
)

// DockerfileRenderer renders a service bundle into Dockerfile text.
// Rendering is deterministic: the same bundle always produces identical
// bytes, so rendered files can be diffed and cached.
type DockerfileRenderer struct{}

// NewDockerfileRenderer creates a new renderer
func NewDockerfileRenderer() *DockerfileRenderer {
	return &DockerfileRenderer{}
}

// RequirementsFileName is the staged pip requirements file name
const RequirementsFileName = "requirements.txt"

// Render produces the Dockerfile for a bundle. The stages appear in the
// fixed build order: base image, OS packages, Python packages, payload
// copies, workdir, entrypoint and default arguments.
func (r *DockerfileRenderer) Render(bundle *entities.ServiceBundle) (string, error) {
	if bundle.Base.Ref == "" {
		return "", fmt.Errorf("bundle %s has no base image", bundle.Name)
	}

	var sb strings.Builder

	r.writeFrom(&sb, bundle)
	r.writeAptStage(&sb, bundle)
	r.writePipStage(&sb, bundle)
	r.writeCopyStage(&sb, bundle)

	if bundle.WorkDir != "" {
		fmt.Fprintf(&sb, "\nWORKDIR %s\n", bundle.WorkDir)
	}

	r.writeEntrypoint(&sb, bundle)

	return sb.String(), nil
}

func (r *DockerfileRenderer) writeFrom(sb *strings.Builder, bundle *entities.ServiceBundle) {
	if bundle.Base.Platform != "" {
		fmt.Fprintf(sb, "FROM --platform=%s %s\n", bundle.Base.Platform, bundle.Base.Ref)
		return
	}
	fmt.Fprintf(sb, "FROM %s\n", bundle.Base.Ref)
}

// writeAptStage emits a single apt layer with sorted packages and list
// cleanup. Omitted entirely when the bundle installs no OS packages.
func (r *DockerfileRenderer) writeAptStage(sb *strings.Builder, bundle *entities.ServiceBundle) {
	if len(bundle.Packages.Apt) == 0 {
		return
	}

	pkgs := append([]string(nil), bundle.Packages.Apt...)
	sort.Strings(pkgs)

	sb.WriteString("\nRUN apt-get update \\\n")
	sb.WriteString("    && apt-get install -y --no-install-recommends \\\n")
	for _, pkg := range pkgs {
		fmt.Fprintf(sb, "        %s \\\n", pkg)
	}
	sb.WriteString("    && rm -rf /var/lib/apt/lists/*\n")
}

func (r *DockerfileRenderer) writePipStage(sb *strings.Builder, bundle *entities.ServiceBundle) {
	pip := bundle.Packages.Pip
	hasRequirements := len(pip.Requirements) > 0
	hasWheels := len(bundle.Packages.Wheels) > 0 && pip.FindLinks != ""

	if !hasRequirements && !hasWheels {
		return
	}

	sb.WriteString("\n")
	if hasWheels {
		fmt.Fprintf(sb, "COPY %s/ /tmp/%s/\n", pip.FindLinks, pip.FindLinks)
	}
	if hasRequirements {
		fmt.Fprintf(sb, "COPY %s /tmp/%s\n", RequirementsFileName, RequirementsFileName)
	}

	sb.WriteString("RUN python3 -m pip install --no-cache-dir")
	// --find-links only when a wheel directory was actually copied in,
	// otherwise pip would silently fall through to the index.
	if hasWheels {
		fmt.Fprintf(sb, " \\\n        --find-links /tmp/%s", pip.FindLinks)
	}
	if pip.ExtraIndex != "" {
		fmt.Fprintf(sb, " \\\n        --extra-index-url %s", pip.ExtraIndex)
	}
	if hasRequirements {
		fmt.Fprintf(sb, " \\\n        -r /tmp/%s", RequirementsFileName)
	}
	sb.WriteString("\n")
}

func (r *DockerfileRenderer) writeCopyStage(sb *strings.Builder, bundle *entities.ServiceBundle) {
	if len(bundle.Copy) == 0 {
		return
	}

	sb.WriteString("\n")
	for _, step := range bundle.Copy {
		fmt.Fprintf(sb, "COPY %s %s\n", step.Source, step.Dest)
	}
}

// writeEntrypoint emits exec-form ENTRYPOINT and CMD lines. A bundle with no
// default arguments gets no CMD line at all.
func (r *DockerfileRenderer) writeEntrypoint(sb *strings.Builder, bundle *entities.ServiceBundle) {
	if bundle.Entrypoint.Script == "" {
		return
	}

	fmt.Fprintf(sb, "\nENTRYPOINT %s\n", execForm("python3", bundle.Entrypoint.Script))

	if len(bundle.Entrypoint.Args) > 0 {
		fmt.Fprintf(sb, "CMD %s\n", execForm(bundle.Entrypoint.Args...))
	}
}

// RenderRequirements produces the requirements.txt contents for a bundle
func (r *DockerfileRenderer) RenderRequirements(bundle *entities.ServiceBundle) string {
	reqs := bundle.Packages.Pip.Requirements
	if len(reqs) == 0 {
		return ""
	}
	return strings.Join(reqs, "\n") + "\n"
}

// execForm renders a JSON-array command line ("exec form")
func execForm(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
