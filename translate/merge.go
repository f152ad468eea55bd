package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/langmeta"
	"github.com/arbkit/arbkit/lockfile"
	"github.com/arbkit/arbkit/overrides"
)

// ---------------------------------------------------------------------------
// Per-locale orchestration
// ---------------------------------------------------------------------------

// LocaleOptions extends Options with the document-level run controls.
type LocaleOptions struct {
	Options

	// MissingOnly translates only keys absent or blank in the existing
	// target document.
	MissingOnly bool
	// Incremental skips keys whose source text is unchanged since the
	// last run, per the lock file.
	Incremental bool
	// DryRun performs all work but suppresses the final write.
	DryRun bool
	// Overrides are curated translations applied before any backend
	// dispatch.
	Overrides overrides.Table
	// SkipKeys are never translated regardless of content.
	SkipKeys map[string]struct{}
	// Lock is consulted and updated in incremental mode. May be nil.
	Lock *lockfile.LockFile
}

// TranslateLocale translates src into one target locale and writes the
// merged document to outPath. target may be nil when no translation
// exists yet. The returned report is valid even when the final write
// fails.
func TranslateLocale(ctx context.Context, src, target *arbfile.Document, locale, outPath string, opts LocaleOptions) (*Report, error) {
	meta := langmeta.Resolve(locale)

	keys := selectKeys(src, target, locale, &opts)

	// The merge base is the existing target when present, so keys
	// outside this run's set stay untouched.
	out := src.Clone()
	if target != nil {
		out = target.Clone()
	}
	out.SetLocale(locale)

	// Overrides bypass the backend entirely.
	report := &Report{}
	jobs := make([]Job, 0, len(keys))
	for _, key := range keys {
		text, _ := src.Get(key)
		if curated, ok := opts.Overrides.Lookup(key, locale); ok {
			applyTranslation(out, src, key, curated)
			report.Manual++
			if opts.Lock != nil {
				opts.Lock.Update(locale, key, text)
			}
			continue
		}
		jobs = append(jobs, Job{
			Key:      key,
			Text:     text,
			Locale:   locale,
			LangName: meta.Name,
			LangCode: meta.Code,
		})
	}

	outcomes, runReport := Run(ctx, jobs, opts.Options)
	runReport.Manual = report.Manual

	for _, o := range outcomes {
		applyTranslation(out, src, o.Key, o.Text)
		if o.Err == "" && opts.Lock != nil {
			srcText, _ := src.Get(o.Key)
			opts.Lock.Update(locale, o.Key, srcText)
		}
	}

	if opts.DryRun {
		opts.log("dry run: skipping write of %s", outPath)
		return runReport, nil
	}
	if err := out.WriteFile(outPath); err != nil {
		return runReport, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return runReport, nil
}

// selectKeys computes the set of keys this run will translate.
//
// Missing-only and incremental modes each nominate a key set (absent or
// blank in the target; source text changed since the last run). When
// both are active the sets are unioned: a key missing from the target
// must be translated even if its source text never changed. The result
// is restricted to translatable entries and keeps document order.
func selectKeys(src, target *arbfile.Document, locale string, opts *LocaleOptions) []string {
	translatable := src.TranslatableKeys(opts.SkipKeys)

	incremental := opts.Incremental && opts.Lock != nil
	if !opts.MissingOnly && !incremental {
		return translatable
	}

	want := make(map[string]struct{})
	if opts.MissingOnly {
		for _, k := range arbfile.MissingKeys(src, target) {
			want[k] = struct{}{}
		}
	}
	if incremental {
		entries := make(map[string]string, len(translatable))
		for _, k := range translatable {
			text, _ := src.Get(k)
			entries[k] = text
		}
		for k := range opts.Lock.FilterChanged(locale, entries) {
			want[k] = struct{}{}
		}
	}

	kept := translatable[:0]
	for _, k := range translatable {
		if _, ok := want[k]; ok {
			kept = append(kept, k)
		}
	}
	return kept
}

// applyTranslation sets a translated value and copies the source's
// metadata entry forward when the target lacks one.
func applyTranslation(out, src *arbfile.Document, key, text string) {
	out.Set(key, text)

	metaKey := "@" + key
	if _, ok := out.Meta(metaKey); ok {
		return
	}
	if raw, ok := src.Meta(metaKey); ok {
		out.SetMeta(metaKey, raw)
	}
}

// Summary renders the end-of-run line for one locale.
func Summary(locale string, r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: done in %s. OK=%d", locale, FormatDuration(r.Elapsed), r.Succeeded+r.Manual)
	if r.FallbackUsed > 0 {
		fmt.Fprintf(&b, ", fallback_used=%d", r.FallbackUsed)
	}
	fmt.Fprintf(&b, ", errors=%d", r.Failed)
	return b.String()
}
