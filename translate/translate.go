// Package translate orchestrates placeholder-preserving translation of
// ARB strings through a text-generation backend.
//
// Each string becomes a job: extract its protected tokens, build an
// instruction prompt, call the primary backend with bounded retries,
// validate that every token survived, escalate once to a fallback
// backend, and finally degrade to keeping the source text. Jobs run
// under a bounded worker pool; a single aggregating consumer owns the
// run report and progress output, so no counters are shared between
// workers.
package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/arbkit/arbkit/backend"
	"github.com/arbkit/arbkit/icu"
	"github.com/arbkit/arbkit/prompt"
)

// ---------------------------------------------------------------------------
// Jobs and outcomes
// ---------------------------------------------------------------------------

// Job is one string to translate. Created once per key, never mutated.
type Job struct {
	// Key is the ARB key the text belongs to.
	Key string
	// Text is the source-language text.
	Text string
	// Locale is the target locale code (e.g. "pt-BR").
	Locale string
	// LangName is the human-readable target language name.
	LangName string
	// LangCode is the backend-facing language code.
	LangCode string
}

// Outcome is the result of one job. Text is always usable: either a
// validated translation or the original source text.
type Outcome struct {
	Key  string
	Text string
	// Err holds the last failure reason when the job degraded to the
	// source text; empty on success.
	Err string
	// UsedFallback is true when the fallback backend produced the
	// accepted translation.
	UsedFallback bool
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Progress describes one completed job, in completion order.
type Progress struct {
	Done    int
	Total   int
	Status  string // "OK", "OK*" (fallback) or "FAIL"
	Key     string
	Elapsed time.Duration
	ETA     time.Duration
}

// Options controls a translation run.
type Options struct {
	// Backend is the primary backend configuration.
	Backend backend.Config
	// Fallback, if set, is tried exactly once per string after the
	// primary's retry budget is exhausted.
	Fallback *backend.Config
	// Retries is the number of retries against the primary backend
	// after the first attempt.
	Retries int
	// Backoff is the base wait between retries; the actual wait grows
	// linearly with the attempt number.
	Backoff time.Duration
	// Concurrency is the maximum number of in-flight jobs.
	Concurrency int
	// ProgressEvery reports progress after every Nth completed job
	// (the final job always reports).
	ProgressEvery int
	// OnProgress is called after a completed job, per ProgressEvery.
	OnProgress func(Progress)
	// OnLog emits log messages during the run.
	OnLog func(format string, args ...any)
	// OnError emits error messages during the run.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveConcurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return 4
}

func (o *Options) effectiveBackoff() time.Duration {
	if o.Backoff > 0 {
		return o.Backoff
	}
	return 2 * time.Second
}

func (o *Options) effectiveProgressEvery() int {
	if o.ProgressEvery > 0 {
		return o.ProgressEvery
	}
	return 1
}

// ---------------------------------------------------------------------------
// Run report
// ---------------------------------------------------------------------------

// MaxReportedFailures caps the enumerated failure list in a report.
const MaxReportedFailures = 20

// Failure records a key that kept its source text and why.
type Failure struct {
	Key    string
	Reason string
}

// Report aggregates the counters of one run. It is written only by the
// aggregating consumer inside Run and is read-only afterwards.
type Report struct {
	Attempted    int
	Succeeded    int
	FallbackUsed int
	Failed       int
	Manual       int
	Elapsed      time.Duration
	// Failures lists up to MaxReportedFailures degraded keys.
	Failures []Failure
}

func (r *Report) record(o Outcome) {
	r.Attempted++
	if o.Err != "" {
		r.Failed++
		if len(r.Failures) < MaxReportedFailures {
			r.Failures = append(r.Failures, Failure{Key: o.Key, Reason: o.Err})
		}
		return
	}
	r.Succeeded++
	if o.UsedFallback {
		r.FallbackUsed++
	}
}

// ---------------------------------------------------------------------------
// Job runner
// ---------------------------------------------------------------------------

// attempt performs one backend call and validates the result against
// the source's token contract.
func attempt(ctx context.Context, cfg backend.Config, p, srcText string) (string, error) {
	out, err := backend.Generate(ctx, cfg, p)
	if err != nil {
		return "", err
	}
	if err := icu.Validate(srcText, out); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return out, nil
}

// runJob translates a single string end-to-end. It never fails: when
// every attempt is rejected, the outcome carries the original source
// text and the last error reason.
func runJob(ctx context.Context, job Job, opts *Options) Outcome {
	ts := icu.Extract(job.Text)
	p := prompt.Build(job.Text, job.LangName, job.LangCode, ts)

	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for try := 0; try <= retries; try++ {
		out, err := attempt(ctx, opts.Backend, p, job.Text)
		if err == nil {
			return Outcome{Key: job.Key, Text: out}
		}
		lastErr = err
		if try < retries {
			// Linear backoff on the worker running this job.
			sleep(ctx, opts.effectiveBackoff()*time.Duration(try+1))
		}
	}

	// One shot against the fallback backend, same validation bar.
	if opts.Fallback != nil {
		out, err := attempt(ctx, *opts.Fallback, p, job.Text)
		if err == nil {
			return Outcome{Key: job.Key, Text: out, UsedFallback: true}
		}
	}

	return Outcome{Key: job.Key, Text: job.Text, Err: lastErr.Error()}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

// Run executes jobs under a bounded worker pool and returns all
// outcomes plus the aggregated report. Outcomes arrive in completion
// order; callers must merge by key, not by position.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Outcome, *Report) {
	report := &Report{}
	if len(jobs) == 0 {
		return nil, report
	}

	start := time.Now()
	sem := make(chan struct{}, opts.effectiveConcurrency())
	results := make(chan Outcome, len(jobs))

	for _, job := range jobs {
		sem <- struct{}{}
		go func(j Job) {
			defer func() { <-sem }()
			results <- runJob(ctx, j, &opts)
		}(job)
	}

	every := opts.effectiveProgressEvery()
	outcomes := make([]Outcome, 0, len(jobs))

	// Single consumer: owns the report, the outcome slice and progress.
	for done := 1; done <= len(jobs); done++ {
		o := <-results
		outcomes = append(outcomes, o)
		report.record(o)

		if opts.OnProgress != nil && (done%every == 0 || done == len(jobs)) {
			elapsed := time.Since(start)
			var eta time.Duration
			if done > 0 && elapsed > 0 {
				rate := float64(done) / elapsed.Seconds()
				eta = time.Duration(float64(len(jobs)-done) / rate * float64(time.Second))
			}
			opts.OnProgress(Progress{
				Done:    done,
				Total:   len(jobs),
				Status:  status(o),
				Key:     o.Key,
				Elapsed: elapsed,
				ETA:     eta,
			})
		}
	}

	report.Elapsed = time.Since(start)
	return outcomes, report
}

func status(o Outcome) string {
	switch {
	case o.Err != "":
		return "FAIL"
	case o.UsedFallback:
		return "OK*"
	default:
		return "OK"
	}
}

// ---------------------------------------------------------------------------
// Duration formatting
// ---------------------------------------------------------------------------

// FormatDuration renders a duration for progress lines: "12.3s",
// "4m 05s" or "1h 12m".
func FormatDuration(d time.Duration) string {
	s := d.Seconds()
	if s < 60 {
		return fmt.Sprintf("%.1fs", s)
	}
	m := int(s) / 60
	if m < 60 {
		return fmt.Sprintf("%dm %02.0fs", m, s-float64(60*m))
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
