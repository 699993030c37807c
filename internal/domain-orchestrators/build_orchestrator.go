// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/domain/entities"
	"coreforge/internal/domain/interfaces/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Stager assembles build contexts for bundles
type Stager interface {
	Stage(bundle *entities.ServiceBundle, payloadRoot, contextDir string) (*gateways.StagedContext, error)
}

// ImageBuilder builds container images from staged contexts
type ImageBuilder interface {
	Build(ctx context.Context, cfg gateways.BuildConfig) (*gateways.BuildOutput, error)
}

// WheelChecker verifies staged wheels against their pins
type WheelChecker interface {
	VerifyStaged(ctx context.Context, bundle *entities.ServiceBundle, staged *gateways.StagedContext) error
}

// Validator checks a bundle against the build contract
type Validator interface {
	ValidateBundle(bundle *entities.ServiceBundle) *entities.ValidationReport
}

// BuildOrchestrator coordinates the complete image build workflow
type BuildOrchestrator struct {
	repo        repositories.BundleRepository
	validator   Validator
	stager      Stager
	wheels      WheelChecker
	builder     ImageBuilder
	payloadRoot string
	workDir     string
	timeout     time.Duration
	parallelism int
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	PayloadRoot string        // directory holding payload files, wheels
	WorkDir     string        // root for staged build contexts
	Timeout     time.Duration // per-bundle build timeout
	Parallelism int           // concurrent builds within a stage
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	repo repositories.BundleRepository,
	validator Validator,
	stager Stager,
	wheels WheelChecker,
	builder ImageBuilder,
	config BuildOrchestratorConfig,
) *BuildOrchestrator {
	workDir := config.WorkDir
	if workDir == "" {
		workDir = "build"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 20 * time.Minute
	}
	parallelism := config.Parallelism
	if parallelism <= 0 {
		parallelism = 2
	}

	return &BuildOrchestrator{
		repo:        repo,
		validator:   validator,
		stager:      stager,
		wheels:      wheels,
		builder:     builder,
		payloadRoot: config.PayloadRoot,
		workDir:     workDir,
		timeout:     timeout,
		parallelism: parallelism,
	}
}

// Build statuses in BundleResult
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
	StatusSkipped = "skipped"
)

// BundleResult is the outcome of building one bundle
type BundleResult struct {
	Bundle        string        `json:"bundle"`
	Reference     string        `json:"reference,omitempty"`
	Status        string        `json:"status"`
	Message       string        `json:"message,omitempty"`
	StageDuration time.Duration `json:"-"`
	BuildDuration time.Duration `json:"-"`
}

// BuildReport aggregates results from a multi-bundle build
type BuildReport struct {
	ID              string         `json:"id"`
	Results         []BundleResult `json:"results"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Skipped         int            `json:"skipped"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// BuildBundle executes the full workflow for a single bundle: load,
// validate, stage the context, verify wheels, build the image.
func (o *BuildOrchestrator) BuildBundle(ctx context.Context, name string) (*BundleResult, error) {
	bundle, err := o.repo.GetBundle(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load bundle")
	}
	return o.buildLoaded(ctx, bundle)
}

func (o *BuildOrchestrator) buildLoaded(ctx context.Context, bundle *entities.ServiceBundle) (*BundleResult, error) {
	result := &BundleResult{
		Bundle:    bundle.Name,
		Reference: bundle.Reference(),
	}

	if report := o.validator.ValidateBundle(bundle); report.HasErrors() {
		findings := report.Errors()
		result.Status = StatusError
		result.Message = findings[0].Message
		return result, errors.Errorf("bundle %s failed validation: %s (%s)",
			bundle.Name, findings[0].Message, findings[0].Field)
	}

	stageStart := time.Now()
	staged, err := o.stager.Stage(bundle, o.payloadRoot, filepath.Join(o.workDir, bundle.Name))
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		return result, errors.Wrap(err, "failed to stage build context")
	}
	result.StageDuration = time.Since(stageStart)

	if err := o.wheels.VerifyStaged(ctx, bundle, staged); err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		return result, errors.Wrap(err, "wheel verification failed")
	}

	buildStart := time.Now()
	buildCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	_, err = o.builder.Build(buildCtx, gateways.BuildConfig{
		Tag:        bundle.Reference(),
		ContextDir: staged.Dir,
		Dockerfile: staged.DockerfilePath,
		Platform:   bundle.Base.Platform,
		Timeout:    o.timeout,
	})
	result.BuildDuration = time.Since(buildStart)

	if err != nil {
		if buildCtx.Err() == context.DeadlineExceeded {
			result.Status = StatusTimeout
			result.Message = errors.Wrapf(err, "build exceeded %v", o.timeout).Error()
		} else {
			result.Status = StatusError
			result.Message = err.Error()
		}
		return result, errors.Wrapf(err, "failed to build %s", bundle.Name)
	}

	result.Status = StatusSuccess
	return result, nil
}

// BuildMany builds a set of bundles respecting depends_on ordering.
// Bundles within a plan stage build concurrently, bounded by the
// configured parallelism. A failed bundle does not abort its siblings,
// but every transitive dependent is skipped.
func (o *BuildOrchestrator) BuildMany(ctx context.Context, names []string) (*BuildReport, error) {
	start := time.Now()

	bundles := make([]*entities.ServiceBundle, 0, len(names))
	byName := make(map[string]*entities.ServiceBundle, len(names))
	for _, name := range names {
		bundle, err := o.repo.GetBundle(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load bundle %s", name)
		}
		bundles = append(bundles, bundle)
		byName[name] = bundle
	}

	stages, err := PlanStages(bundles)
	if err != nil {
		return nil, errors.Wrap(err, "failed to plan build order")
	}

	report := &BuildReport{ID: uuid.NewString()}

	var mu sync.Mutex
	failed := make(map[string]bool)

	for _, stage := range stages {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(o.parallelism)

		for _, name := range stage {
			bundle := byName[name]

			// Dependents of failed bundles are skipped, not built broken.
			if dep, bad := o.failedDependency(bundle, failed); bad {
				mu.Lock()
				failed[name] = true
				report.Skipped++
				report.Results = append(report.Results, BundleResult{
					Bundle:  name,
					Status:  StatusSkipped,
					Message: "dependency " + dep + " failed",
				})
				mu.Unlock()
				continue
			}

			group.Go(func() error {
				result, buildErr := o.buildLoaded(groupCtx, bundle)

				mu.Lock()
				defer mu.Unlock()
				report.Results = append(report.Results, *result)
				if buildErr != nil {
					failed[name] = true
					report.Failed++
				} else {
					report.Successful++
				}
				// Build failures land in the report, not the group error.
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return report, errors.Wrap(err, "stage aborted")
		}
	}

	report.DurationSeconds = time.Since(start).Seconds()
	return report, nil
}

func (o *BuildOrchestrator) failedDependency(bundle *entities.ServiceBundle, failed map[string]bool) (string, bool) {
	for _, dep := range bundle.DependsOn {
		if failed[dep] {
			return dep, true
		}
	}
	return "", false
}
