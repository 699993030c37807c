package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"coreforge/internal/domain/entities"
)

// WheelVerifier checks staged wheel files against their recipe pins.
// Pure Go implementation - no external sha256sum binary needed.
type WheelVerifier struct{}

// NewWheelVerifier creates a new wheel verifier
func NewWheelVerifier() *WheelVerifier {
	return &WheelVerifier{}
}

// VerifyStaged verifies every pinned wheel in a staged build context.
// Wheels without a sha256 pin are skipped; a missing pinned wheel or a
// digest mismatch fails the whole verification.
func (v *WheelVerifier) VerifyStaged(ctx context.Context, bundle *entities.ServiceBundle, staged *StagedContext) error {
	if len(bundle.Packages.Wheels) == 0 {
		return nil
	}

	byName := make(map[string]string, len(staged.WheelPaths))
	for _, p := range staged.WheelPaths {
		byName[filepath.Base(p)] = p
	}

	for _, wheel := range bundle.Packages.Wheels {
		if wheel.SHA256 == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		path, ok := byName[wheel.File]
		if !ok {
			return fmt.Errorf("pinned wheel %s is not in the staged context", wheel.File)
		}
		if err := v.VerifyChecksum(path, wheel.SHA256); err != nil {
			return fmt.Errorf("wheel %s: %w", wheel.File, err)
		}
	}

	return nil
}

// VerifyChecksum verifies a file's SHA256 checksum
func (v *WheelVerifier) VerifyChecksum(filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	if actualSum != expectedSum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}
	return nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *WheelVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path comes from the staged build context
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
