// Package icu extracts and validates the machine-readable tokens embedded
// in ARB message strings: simple placeholders like {name} and ICU
// MessageFormat plural/select blocks like
//
//	{count, plural, =1{one file} other{{count} files}}
//
// A translation is structurally safe only if every placeholder name from
// the source survives verbatim (as {name} or as the {name, ...} argument
// of an ICU block), and if a source ICU block is still present in some
// form in the output. This package never judges translation quality.
package icu

import (
	"fmt"
	"regexp"
	"sort"
)

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

var (
	// simplePlaceholderRe matches {name}.
	simplePlaceholderRe = regexp.MustCompile(`\{(\w+)\}`)

	// icuVarRe matches the opening of an ICU block: {name, plural, ...
	icuVarRe = regexp.MustCompile(`(?i)\{(\w+)\s*,\s*(?:plural|select|selectordinal)\s*,`)

	// icuStartRe tests whether text beginning at a '{' opens an ICU block.
	icuStartRe = regexp.MustCompile(`(?i)^\{\w+\s*,\s*(?:plural|select|selectordinal)`)

	// caseLabelRe matches an ICU case label ending immediately before a '{':
	// the =N and CLDR category labels whose following brace opens a case
	// body, not a placeholder.
	caseLabelRe = regexp.MustCompile(`(?i)(?:=\d+|zero|one|two|few|many|other)\s*$`)
)

// ---------------------------------------------------------------------------
// TokenSet
// ---------------------------------------------------------------------------

// TokenSet is the contract a translation must honor: the placeholder
// names referenced by the source string, plus whether the source contains
// an ICU plural/select block. It is derived purely from text and is
// immutable once computed.
type TokenSet struct {
	// Names holds the protected placeholder names, sorted for
	// reproducible prompt output.
	Names []string
	// HasICU reports whether the source contains a plural/select block.
	HasICU bool
}

// Empty reports whether the set protects nothing.
func (ts TokenSet) Empty() bool {
	return len(ts.Names) == 0 && !ts.HasICU
}

// Extract computes the TokenSet of s.
//
// ICU argument names ({count, plural, ...) are always protected. Simple
// {name} matches are protected unless the match itself opens an ICU block
// (already captured as an argument name), or the brace is an ICU case
// body opener: text like "one{...}" or "=0{...}" inside an ICU block,
// where the braced content is a translatable case, not a variable.
func Extract(s string) TokenSet {
	names := make(map[string]struct{})

	for _, m := range icuVarRe.FindAllStringSubmatch(s, -1) {
		names[m[1]] = struct{}{}
	}

	for _, loc := range simplePlaceholderRe.FindAllStringSubmatchIndex(s, -1) {
		start := loc[0]
		name := s[loc[2]:loc[3]]

		if icuStartRe.MatchString(s[start:]) {
			continue
		}
		if caseLabelRe.MatchString(s[:start]) {
			// Case body opener ("one{", "=0{"), not a placeholder.
			continue
		}
		names[name] = struct{}{}
	}

	ts := TokenSet{HasICU: icuVarRe.MatchString(s)}
	for n := range names {
		ts.Names = append(ts.Names, n)
	}
	sort.Strings(ts.Names)
	return ts
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// ValidationError describes a structural defect in a candidate
// translation: a protected token or ICU block that did not survive.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks candidate against the token contract of src.
//
// Every protected name must occur in candidate as {name} or {name, (the
// latter covers names that became or remained ICU arguments). If src has
// an ICU block, candidate must contain one too. The first violation is
// reported; a nil return means the candidate is structurally safe.
func Validate(src, candidate string) error {
	ts := Extract(src)

	for _, name := range ts.Names {
		pattern := regexp.MustCompile(`\{` + regexp.QuoteMeta(name) + `(?:\}|\s*,)`)
		if !pattern.MatchString(candidate) {
			return &ValidationError{Reason: fmt.Sprintf("missing placeholder: {%s}", name)}
		}
	}

	if ts.HasICU && !icuVarRe.MatchString(candidate) {
		return &ValidationError{Reason: "ICU plural/select block missing"}
	}

	return nil
}
