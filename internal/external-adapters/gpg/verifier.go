// Package gpg verifies detached signatures on prebuilt wheel files.
package gpg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armorHeader = "-----BEGIN PGP SIGNATURE---"

// Verifier checks detached GPG signatures using ProtonMail's go-crypto,
// the maintained fork of golang.org/x/crypto/openpgp. It lives in
// external-adapters to isolate the dependency.
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ImportKeys fetches public keys by fingerprint from well-known keyservers,
// trying each server until one answers.
func (v *Verifier) ImportKeys(ctx context.Context, keyIDs []string) error {
	if len(keyIDs) == 0 {
		return fmt.Errorf("no key IDs provided")
	}

	keyservers := []string{
		"https://keys.openpgp.org",
		"https://keyserver.ubuntu.com",
	}

	for _, keyID := range keyIDs {
		if keyID == "" {
			continue
		}

		var lastErr error
		imported := false

		for _, keyserver := range keyservers {
			urls := []string{
				fmt.Sprintf("%s/vks/v1/by-fingerprint/%s", keyserver, keyID),
				fmt.Sprintf("%s/pks/lookup?op=get&search=0x%s", keyserver, keyID),
			}

			for _, url := range urls {
				keys, err := v.fetchKeys(ctx, url)
				if err != nil {
					lastErr = err
					continue
				}

				// Only accept keys whose fingerprint matches the request.
				matched := false
				for _, entity := range keys {
					fingerprint := fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
					if fingerprint == keyID ||
						(len(fingerprint) >= 16 && fingerprint[len(fingerprint)-16:] == keyID) {
						matched = true
					}
				}
				if !matched {
					lastErr = fmt.Errorf("no keys matching fingerprint %s", keyID)
					continue
				}

				v.keyring = append(v.keyring, keys...)
				imported = true
				break
			}

			if imported {
				break
			}
		}

		if !imported {
			return fmt.Errorf("failed to import key %s from all keyservers: %w", keyID, lastErr)
		}
	}

	return nil
}

func (v *Verifier) fetchKeys(ctx context.Context, url string) (openpgp.EntityList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keyserver returned status %d", resp.StatusCode)
	}

	// Keyring responses are small; cap at 10MB regardless.
	keys, err := openpgp.ReadArmoredKeyRing(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys found in response")
	}
	return keys, nil
}

// ImportKeyFromFile imports a public key from an armored or binary file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	keys, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		keys, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(keys) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// VerifyDetached verifies a wheel file against a detached signature file
// sitting next to it in the staged build context.
func (v *Verifier) VerifyDetached(wheelPath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported, call ImportKeys first")
	}

	//nolint:gosec // G304: sigPath comes from the staged build context
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	//nolint:gosec // G304: wheelPath comes from the staged build context
	wheelFile, err := os.Open(wheelPath)
	if err != nil {
		return fmt.Errorf("failed to open wheel file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer wheelFile.Close()

	// Peek at the signature to pick armored vs binary parsing.
	peek := make([]byte, len(armorHeader))
	n, _ := io.ReadFull(sigFile, peek)
	isArmored := n == len(armorHeader) && string(peek) == armorHeader

	if _, err := sigFile.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset signature file: %w", err)
	}

	if isArmored {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, wheelFile, sigFile, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, wheelFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}
