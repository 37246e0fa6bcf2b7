package license

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// signingSalt folds into every license checksum so a key cannot be derived
// from the visible fields alone.
const signingSalt = "reStrike-VTA-2024"

const dateLayout = "2006-01-02"

var (
	// ErrExpired marks a license whose expiry date has passed.
	ErrExpired = errors.New("license expired")

	// ErrInvalidKey marks a license whose key does not match its fields.
	ErrInvalidKey = errors.New("license key mismatch")
)

// License is the parsed contents of a license key file.
type License struct {
	Licensee string
	Expires  time.Time
	Key      string
}

// Load reads and parses a license key file.
func Load(path string) (*License, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read license file: %w", err)
	}
	return Parse(data)
}

// Parse decodes the key-file format: licensee=, expires= and key= lines,
// with blank lines and # comments skipped.
func Parse(data []byte) (*License, error) {
	lic := &License{}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		field, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed license line %q", line)
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(field) {
		case "licensee":
			lic.Licensee = value
		case "expires":
			expires, err := time.Parse(dateLayout, value)
			if err != nil {
				return nil, fmt.Errorf("invalid expiry date %q: %w", value, err)
			}
			lic.Expires = expires
		case "key":
			lic.Key = value
		default:
			return nil, fmt.Errorf("unknown license field %q", field)
		}
	}

	if lic.Licensee == "" {
		return nil, errors.New("license file missing licensee")
	}
	if lic.Expires.IsZero() {
		return nil, errors.New("license file missing expiry date")
	}
	if lic.Key == "" {
		return nil, errors.New("license file missing key")
	}
	return lic, nil
}

// Sign computes the key for a licensee/expiry pair. Issued licenses carry
// this value in their key= field.
func Sign(licensee string, expires time.Time) string {
	payload := licensee + "|" + expires.Format(dateLayout) + "|" + signingSalt
	return fmt.Sprintf("%016x", xxh3.HashString(payload))
}

// Verify checks the key against the license fields and the expiry date
// against now. The license stays valid through its expiry day.
func (l *License) Verify(now time.Time) error {
	if l.Key != Sign(l.Licensee, l.Expires) {
		return ErrInvalidKey
	}
	if !now.Before(l.Expires.Add(24 * time.Hour)) {
		return fmt.Errorf("%w on %s", ErrExpired, l.Expires.Format(dateLayout))
	}
	return nil
}

// Check loads and verifies the license at path. On verification failure the
// parsed license is still returned so callers can report the licensee.
func Check(path string) (*License, error) {
	lic, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := lic.Verify(time.Now()); err != nil {
		return lic, err
	}
	return lic, nil
}
