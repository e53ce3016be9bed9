package debian

import (
	"strings"
	"testing"
)

const samplePackages = `Package: curl
Version: 7.88.1-10
Section: web
Depends: libc6 (>= 2.34), libcurl4 (= 7.88.1-10), zlib1g (>= 1:1.1.4)
Description: command line tool for transferring data with URL syntax
 curl is a command line tool for transferring data with URL syntax.
 .
 It supports many protocols.

Package: libcurl4
Source: curl
Version: 7.88.1-10
Depends: libc6 (>= 2.34), libssl3 (>= 3.0.0)
Recommends: ca-certificates

Version: 1.0
Description: stanza without a package name

Package: libc6
Source: glibc (2.36-9)
Version: 2.36-9
Section: libs`

func TestParseRecords(t *testing.T) {
	recs := ParseRecords(samplePackages)

	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	for _, name := range []string{"curl", "libcurl4", "libc6"} {
		if _, ok := recs[name]; !ok {
			t.Errorf("missing record %q", name)
		}
	}

	curl := recs["curl"]
	if curl[FieldVersion] != "7.88.1-10" {
		t.Errorf("Version = %q", curl[FieldVersion])
	}
	want := "command line tool for transferring data with URL syntax\n" +
		" curl is a command line tool for transferring data with URL syntax.\n" +
		" .\n" +
		" It supports many protocols."
	if curl[FieldDescription] != want {
		t.Errorf("Description = %q, want %q", curl[FieldDescription], want)
	}
}

func TestParseRecords_TrailingRecordWithoutBlankLine(t *testing.T) {
	recs := ParseRecords("Package: a\nVersion: 1")
	if recs["a"][FieldVersion] != "1" {
		t.Fatalf("trailing record not committed: %v", recs)
	}
}

func TestParseRecords_DuplicateOverwrites(t *testing.T) {
	recs := ParseRecords("Package: a\nVersion: 1\n\nPackage: a\nVersion: 2\n")
	if got := recs["a"][FieldVersion]; got != "2" {
		t.Errorf("Version = %q, want 2", got)
	}
}

func TestParseRecords_SplitsOnFirstColon(t *testing.T) {
	recs := ParseRecords("Package: a\nHomepage:   https://example.org/x  \n")
	if got := recs["a"]["Homepage"]; got != "https://example.org/x" {
		t.Errorf("Homepage = %q", got)
	}
}

func TestParseRecords_CRLF(t *testing.T) {
	recs := ParseRecords("Package: a\r\nVersion: 1\r\n\r\nPackage: b\r\n")
	if len(recs) != 2 || recs["a"][FieldVersion] != "1" {
		t.Errorf("unexpected records: %v", recs)
	}
}

func TestParseRecords_Empty(t *testing.T) {
	if recs := ParseRecords(""); len(recs) != 0 {
		t.Errorf("expected no records, got %v", recs)
	}
	if recs := ParseRecords("\n\n  \n"); len(recs) != 0 {
		t.Errorf("expected no records, got %v", recs)
	}
}

func TestReadRecords(t *testing.T) {
	recs, err := ReadRecords(strings.NewReader(samplePackages))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	parsed := ParseRecords(samplePackages)
	if len(recs) != len(parsed) {
		t.Fatalf("ReadRecords found %d records, ParseRecords %d", len(recs), len(parsed))
	}
	for name, r := range parsed {
		for k, v := range r {
			if recs[name][k] != v {
				t.Errorf("%s[%s] = %q, want %q", name, k, recs[name][k], v)
			}
		}
	}
}
