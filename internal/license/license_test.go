package license

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, licensee string, expires time.Time) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "license.key")
	content := "# reStrike VTA license\n" +
		"licensee=" + licensee + "\n" +
		"expires=" + expires.Format(dateLayout) + "\n" +
		"key=" + Sign(licensee, expires) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidLicense(t *testing.T) {
	expires := time.Now().AddDate(1, 0, 0)
	path := writeKeyFile(t, "Koper Taekwondo Club", expires)

	lic, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Koper Taekwondo Club", lic.Licensee)
	assert.Equal(t, expires.Format(dateLayout), lic.Expires.Format(dateLayout))
	require.NoError(t, lic.Verify(time.Now()))
}

func TestVerifyRejectsTamperedLicensee(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	lic := &License{
		Licensee: "Someone Else",
		Expires:  expires,
		Key:      Sign("Koper Taekwondo Club", expires),
	}

	require.ErrorIs(t, lic.Verify(time.Now()), ErrInvalidKey)
}

func TestVerifyRejectsForgedKey(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	lic := &License{Licensee: "Koper Taekwondo Club", Expires: expires, Key: "0123456789abcdef"}

	require.ErrorIs(t, lic.Verify(time.Now()), ErrInvalidKey)
}

func TestVerifyExpiry(t *testing.T) {
	expires := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	lic := &License{
		Licensee: "Koper Taekwondo Club",
		Expires:  expires,
		Key:      Sign("Koper Taekwondo Club", expires),
	}

	// Valid through the whole expiry day, expired afterwards.
	require.NoError(t, lic.Verify(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)))
	require.ErrorIs(t, lic.Verify(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)), ErrExpired)
}

func TestParseRejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing key", "licensee=X\nexpires=2030-01-01\n"},
		{"missing licensee", "expires=2030-01-01\nkey=abc\n"},
		{"missing expiry", "licensee=X\nkey=abc\n"},
		{"bad date", "licensee=X\nexpires=tomorrow\nkey=abc\n"},
		{"unknown field", "licensee=X\nexpires=2030-01-01\nkey=abc\nseats=5\n"},
		{"malformed line", "licensee=X\nexpires=2030-01-01\nkey=abc\ngarbage\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestCheckMissingFile(t *testing.T) {
	_, err := Check(filepath.Join(t.TempDir(), "absent.key"))
	require.Error(t, err)
}

func TestCheckReturnsLicenseOnVerifyFailure(t *testing.T) {
	expires := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeKeyFile(t, "Koper Taekwondo Club", expires)

	lic, err := Check(path)
	require.ErrorIs(t, err, ErrExpired)
	require.NotNil(t, lic)
	assert.Equal(t, "Koper Taekwondo Club", lic.Licensee)
}
