package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLen   = 256
	maxTokenLen  = 64
	maxFolderLen = 200
)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidatePackageName rejects names that are unsafe as a file name or a
// cache key: empty, overlong, or containing control characters, path
// separators or "..".
//
// Use ValidateDebianPackageName for the policy check.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	case len(name) > maxNameLen:
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxNameLen)
	case hasControl(name):
		return New(ErrCodeInvalidPackage, "package name contains control characters")
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return New(ErrCodeInvalidPackage, "package name %q would escape its directory", name)
	}
	return nil
}

// Debian policy 5.6.1, plus an optional multiarch qualifier such as ":any".
var debianName = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+(:[a-z0-9-]+)?$`)

// ValidateDebianPackageName checks a binary or source package name.
func ValidateDebianPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !debianName.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Debian package name: %q", name)
	}
	return nil
}

var archiveToken = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ValidateArchiveToken checks a suite, component or architecture before it
// becomes a path element of a mirror URL. kind names it in the message.
func ValidateArchiveToken(kind, value string) error {
	switch {
	case value == "":
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	case strings.Contains(value, ".."):
		return New(ErrCodeInvalidInput, "%s cannot contain \"..\"", kind)
	case len(value) > maxTokenLen, !archiveToken.MatchString(value):
		return New(ErrCodeInvalidInput, "invalid %s: %q", kind, value)
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", raw)
	}
	return nil
}

// ValidateFolderLabel checks the label imported topograms are grouped
// under.
func ValidateFolderLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return New(ErrCodeInvalidInput, "folder label cannot be empty")
	case len(label) > maxFolderLen:
		return New(ErrCodeInvalidInput, "folder label too long (max %d characters)", maxFolderLen)
	case hasControl(label):
		return New(ErrCodeInvalidInput, "folder label contains control characters")
	}
	return nil
}
