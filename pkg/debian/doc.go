// Package debian parses Debian control-file metadata into package records and
// derives dependency and source-package information from them.
//
// # Records
//
// A Packages index is a sequence of stanzas separated by blank lines. Each
// stanza is a set of "Field: value" lines; lines without a colon continue the
// previous field. [ParseRecords] turns the whole index into [Records], keyed by
// each stanza's Package field:
//
//	recs := debian.ParseRecords(text)
//	curl := recs["curl"]
//	fmt.Println(curl["Version"], curl["Depends"])
//
// Stanzas without a Package field are dropped. When two stanzas share a
// Package value the later one wins.
//
// # Dependencies
//
// [ExpandDepends] reduces a relationship field such as
//
//	libc6 (>= 2.28), debconf (>= 0.5) | debconf-2.0, libfoo [amd64]
//
// to bare package names: ["libc6", "debconf", "libfoo"]. Only the first
// alternative of each "A | B" clause is kept; virtual packages are not
// resolved to providers.
//
// # Source packages
//
// [SourceIndex] maps binary packages to the source package that builds them
// and [RankSources] counts, per source package, how many distinct binary
// packages depend on one of its binaries.
package debian
