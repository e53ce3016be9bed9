package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type validateCase struct {
	in    string
	valid bool
}

func runValidate(t *testing.T, fn func(string) error, code Code, cases []validateCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			err := fn(tc.in)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, code, GetCode(err))
			}
		})
	}
}

func TestValidatePackageName(t *testing.T) {
	runValidate(t, ValidatePackageName, ErrCodeInvalidPackage, []validateCase{
		{"curl", true},
		{"libcurl4-openssl-dev", true},
		{"libstdc++6", true},
		{"python3.11", true},
		{"Anything_Goes here", true},
		{"", false},
		{strings.Repeat("a", 300), false},
		{"foo/../bar", false},
		{"foo/bar", false},
		{"..", false},
		{`foo\bar`, false},
		{"foo\x00bar", false},
		{"foo\nbar", false},
	})
}

func TestValidateDebianPackageName(t *testing.T) {
	runValidate(t, ValidateDebianPackageName, ErrCodeInvalidPackage, []validateCase{
		{"curl", true},
		{"libc6", true},
		{"libstdc++6", true},
		{"python3.11-minimal", true},
		{"python3:any", true},
		{"", false},
		{"a", false},
		{"Curl", false},
		{"-curl", false},
		{"my_pkg", false},
		{"my pkg", false},
	})
}

func TestValidateArchiveToken(t *testing.T) {
	suite := func(s string) error { return ValidateArchiveToken("suite", s) }
	runValidate(t, suite, ErrCodeInvalidInput, []validateCase{
		{"bookworm", true},
		{"bookworm-backports", true},
		{"non-free-firmware", true},
		{"amd64", true},
		{"", false},
		{"main/debian-installer", false},
		{"a..b", false},
		{"Main", false},
		{strings.Repeat("x", 65), false},
	})
	assert.ErrorContains(t, ValidateArchiveToken("architecture", ""), "architecture cannot be empty")
}

func TestValidateURL(t *testing.T) {
	runValidate(t, ValidateURL, ErrCodeInvalidInput, []validateCase{
		{"https://deb.debian.org/debian", true},
		{"http://ftp.debian.org/debian", true},
		{"http://127.0.0.1:8000", true},
		{"", false},
		{"ftp://example.com", false},
		{"file:///etc/passwd", false},
		{"example.com", false},
		{"http://", false},
	})
}

func TestValidateFolderLabel(t *testing.T) {
	runValidate(t, ValidateFolderLabel, ErrCodeInvalidInput, []validateCase{
		{"Debian Topograms", true},
		{"", false},
		{"   ", false},
		{"a\tb", false},
		{strings.Repeat("f", 201), false},
	})
}
