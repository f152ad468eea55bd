// arbkit — ARB translation kit: placeholder-preserving AI translation
// for Flutter-style ARB localization files.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/backend"
	"github.com/arbkit/arbkit/config"
	"github.com/arbkit/arbkit/i18n"
	"github.com/arbkit/arbkit/lockfile"
	"github.com/arbkit/arbkit/overrides"
	"github.com/arbkit/arbkit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbkit",
		Short: "ARB translation kit: placeholder-preserving AI translation",
		Long: `arbkit — ARB translation kit.

Translates Flutter-style ARB localization files through a local or
remote text-generation backend while guaranteeing that {placeholders}
and ICU plural/select blocks survive translation unchanged. Strings
that cannot be translated safely keep their source text.

Commands:
  status      Show translation coverage per locale
  translate   Translate ARB files
  version     Show version information

Backends:
  ollama   Ollama /api/generate endpoint (default)
  openai   OpenAI-compatible /chat/completions endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arbkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: translation coverage per locale)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var (
		inPath  string
		l10nDir string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show translation coverage per locale",
		Long: `Show how many keys each locale file has translated, compared to
the source template.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(inPath, l10nDir)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Source .arb file (template)")
	cmd.Flags().StringVar(&l10nDir, "l10n-dir", "", "Directory with locale files")
	cmd.MarkFlagRequired("in")

	return cmd
}

func runStatus(inPath, l10nDir string) error {
	src, err := arbfile.ParseFile(inPath)
	if err != nil {
		return err
	}
	if l10nDir == "" {
		l10nDir = filepath.Dir(inPath)
	}

	skip := overrides.SkipSet(overrides.DefaultSkipKeys())
	total := len(src.TranslatableKeys(skip))
	fmt.Fprintf(os.Stderr, "Source: %s (%d translatable keys)\n", inPath, total)

	locales, err := discoverLocales(l10nDir, inPath)
	if err != nil {
		return err
	}
	if len(locales) == 0 {
		logInfo("No locale files found in %s", l10nDir)
		return nil
	}

	for _, lf := range locales {
		target, err := arbfile.ParseFile(lf.path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %-8s %serror reading%s (%v)\n", lf.code, colorRed, colorReset, err)
			continue
		}
		missing := missingCount(src, target, skip)
		done := total - missing
		pct := 100.0
		if total > 0 {
			pct = float64(done) / float64(total) * 100
		}
		color := colorGreen
		switch {
		case pct < 50:
			color = colorRed
		case pct < 100:
			color = colorYellow
		}
		fmt.Fprintf(os.Stderr, "  %-8s %s%5.1f%%%s (%d/%d, %d missing)\n",
			lf.code, color, pct, colorReset, done, total, missing)
	}
	return nil
}

// missingCount counts the keys a locale still needs, over the same key
// universe as the coverage total (skip keys excluded from both).
func missingCount(src, target *arbfile.Document, skip map[string]struct{}) int {
	n := 0
	for _, k := range arbfile.MissingKeys(src, target) {
		if _, skipped := skip[k]; !skipped {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	inPath   string
	outPath  string
	toLocale string
	l10nDir  string

	kind          string
	host          string
	model         string
	fallbackModel string
	apiKey        string
	proxy         string
	timeout       time.Duration
	temperature   float64

	concurrency   int
	retries       int
	backoff       time.Duration
	progressEvery int

	missingOnly bool
	incremental bool
	dryRun      bool

	configPath string
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate ARB files",
		Long: `Translate ARB files through a text-generation backend.

Placeholders like {name} and ICU plural/select blocks are extracted
from each source string and validated in every response; strings that
fail validation after retries and the optional fallback model keep
their source text.

Examples:
  # Translate the template into Spanish
  arbkit translate --in app_en.arb --out app_es.arb --to-locale es

  # Fill gaps in every locale file of a Flutter project
  arbkit translate --in lib/l10n/app_en.arb --l10n-dir lib/l10n --missing-only

  # Use a stronger fallback model for stubborn strings
  arbkit translate --in app_en.arb --out app_de.arb --to-locale de \
    --model translategemma:latest --fallback-model translategemma:27b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, &a)
		},
	}

	cmd.Flags().StringVar(&a.inPath, "in", "", "Input .arb file (source/template)")
	cmd.Flags().StringVar(&a.outPath, "out", "", "Output .arb file (single-locale mode)")
	cmd.Flags().StringVar(&a.toLocale, "to-locale", "", "Target locale code (es, fr, de, ...)")
	cmd.Flags().StringVar(&a.l10nDir, "l10n-dir", "", "Directory with locale files (translates all locales)")

	cmd.Flags().StringVar(&a.kind, "kind", "ollama", "Backend kind: ollama or openai")
	cmd.Flags().StringVar(&a.host, "host", "http://localhost:11434", "Backend host")
	cmd.Flags().StringVar(&a.model, "model", "translategemma:latest", "Model name")
	cmd.Flags().StringVar(&a.fallbackModel, "fallback-model", "", "Fallback model for failed translations")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or ARBKIT_API_KEY env var)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP(S) proxy URL")
	cmd.Flags().DurationVar(&a.timeout, "timeout", 120*time.Second, "Per-request timeout")
	cmd.Flags().Float64Var(&a.temperature, "temperature", 0.0, "Sampling temperature (0.0 for deterministic)")

	cmd.Flags().IntVar(&a.concurrency, "concurrency", 4, "Parallel requests")
	cmd.Flags().IntVar(&a.retries, "retries", 2, "Retries per string against the primary model")
	cmd.Flags().DurationVar(&a.backoff, "backoff", 600*time.Millisecond, "Backoff base between retries")
	cmd.Flags().IntVar(&a.progressEvery, "progress-every", 1, "Report progress every N strings")

	cmd.Flags().BoolVar(&a.missingOnly, "missing-only", false, "Only translate missing or empty keys")
	cmd.Flags().BoolVar(&a.incremental, "incremental", false, "Skip keys unchanged since the last run (arbkit.lock)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Do all the work but write nothing")

	cmd.Flags().StringVar(&a.configPath, "config", "", "Config file (default: .arbkit.yaml next to --in)")
	cmd.MarkFlagRequired("in")

	return cmd
}

// applyConfig folds .arbkit.yaml values into args. Flags the user set
// explicitly always win.
func applyConfig(cmd *cobra.Command, a *translateArgs, cf *config.File) {
	if cf == nil {
		return
	}
	set := cmd.Flags().Changed
	if cf.Host != "" && !set("host") {
		a.host = cf.Host
	}
	if cf.Kind != "" && !set("kind") {
		a.kind = cf.Kind
	}
	if cf.Model != "" && !set("model") {
		a.model = cf.Model
	}
	if cf.FallbackModel != "" && !set("fallback-model") {
		a.fallbackModel = cf.FallbackModel
	}
	if cf.Timeout > 0 && !set("timeout") {
		a.timeout = cf.Timeout
	}
	if cf.Temperature != nil && !set("temperature") {
		a.temperature = *cf.Temperature
	}
	if cf.Concurrency > 0 && !set("concurrency") {
		a.concurrency = cf.Concurrency
	}
	if cf.Retries > 0 && !set("retries") {
		a.retries = cf.Retries
	}
	if cf.Backoff > 0 && !set("backoff") {
		a.backoff = cf.Backoff
	}
}

func backendKind(kind string) (backend.Kind, error) {
	switch kind {
	case "", "ollama":
		return backend.KindOllama, nil
	case "openai":
		return backend.KindOpenAI, nil
	default:
		return "", fmt.Errorf("unknown backend kind %q (want ollama or openai)", kind)
	}
}

func runTranslate(cmd *cobra.Command, a *translateArgs) error {
	configPath := a.configPath
	if configPath == "" {
		configPath = filepath.Join(filepath.Dir(a.inPath), config.DefaultFileName)
	}
	cf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyConfig(cmd, a, cf)

	kind, err := backendKind(a.kind)
	if err != nil {
		return err
	}

	apiKey := a.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ARBKIT_API_KEY")
	}

	primary := backend.Config{
		Kind:        kind,
		Host:        a.host,
		Model:       a.model,
		APIKey:      apiKey,
		Proxy:       a.proxy,
		Timeout:     a.timeout,
		Temperature: a.temperature,
	}
	var fallback *backend.Config
	if a.fallbackModel != "" {
		fb := primary
		fb.Model = a.fallbackModel
		fallback = &fb
	}

	src, err := arbfile.ParseFile(a.inPath)
	if err != nil {
		return err
	}

	table := overrides.Default()
	skipKeys := overrides.DefaultSkipKeys()
	if cf != nil {
		table.Merge(overrides.Table(cf.Overrides))
		skipKeys = append(skipKeys, cf.SkipKeys...)
	}

	opts := translate.LocaleOptions{
		Options: translate.Options{
			Backend:       primary,
			Fallback:      fallback,
			Retries:       a.retries,
			Backoff:       a.backoff,
			Concurrency:   a.concurrency,
			ProgressEvery: a.progressEvery,
			OnLog:         logInfo,
			OnError:       logError,
			OnProgress:    printProgress,
		},
		MissingOnly: a.missingOnly,
		Incremental: a.incremental,
		DryRun:      a.dryRun,
		Overrides:   table,
		SkipKeys:    overrides.SkipSet(skipKeys),
	}

	if a.incremental {
		lock, err := lockfile.Load(filepath.Dir(a.inPath))
		if err != nil {
			return err
		}
		opts.Lock = lock
		defer func() {
			if a.dryRun {
				return
			}
			if err := lock.Save(); err != nil {
				logWarning("saving lock file: %v", err)
			}
		}()
	}

	ctx := context.Background()
	if a.l10nDir != "" {
		return runTranslateDir(ctx, src, a, opts)
	}
	return runTranslateSingle(ctx, src, a, opts)
}

func runTranslateSingle(ctx context.Context, src *arbfile.Document, a *translateArgs, opts translate.LocaleOptions) error {
	if a.outPath == "" || a.toLocale == "" {
		return fmt.Errorf("--out and --to-locale are required when not using --l10n-dir")
	}

	var target *arbfile.Document
	if a.missingOnly {
		if _, err := os.Stat(a.outPath); err == nil {
			t, err := arbfile.ParseFile(a.outPath)
			if err != nil {
				return err
			}
			target = t
		}
	}

	logInfo(i18n.T("Translating %s..."), a.toLocale)
	report, err := translate.TranslateLocale(ctx, src, target, a.toLocale, a.outPath, opts)
	if err != nil {
		return err
	}
	printReport(a.toLocale, report, a.dryRun)
	return nil
}

func runTranslateDir(ctx context.Context, src *arbfile.Document, a *translateArgs, opts translate.LocaleOptions) error {
	locales, err := discoverLocales(a.l10nDir, a.inPath)
	if err != nil {
		return err
	}
	if len(locales) == 0 {
		return fmt.Errorf("no locale files found in %s", a.l10nDir)
	}
	logInfo("Found %d locale file(s) to process", len(locales))

	translated := 0
	for _, lf := range locales {
		target, err := arbfile.ParseFile(lf.path)
		if err != nil {
			// One unreadable locale must not sink the others.
			logError("[%s] %v", lf.code, err)
			continue
		}

		if a.missingOnly {
			missing := arbfile.MissingKeys(src, target)
			if len(missing) == 0 {
				logInfo("[%s] No missing keys", lf.code)
				continue
			}
			logInfo("[%s] %d missing key(s)", lf.code, len(missing))
		}

		logInfo(i18n.T("Translating %s..."), lf.code)
		report, err := translate.TranslateLocale(ctx, src, target, lf.code, lf.path, opts)
		if err != nil {
			logError("[%s] %v", lf.code, err)
			continue
		}
		printReport(lf.code, report, a.dryRun)
		translated += report.Succeeded + report.Manual
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d string(s) translated across %d locale(s)\n", translated, len(locales))
	return nil
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func printProgress(p translate.Progress) {
	fmt.Fprintf(os.Stderr, "[%4d/%d] %-4s %s | elapsed %s | ETA %s\n",
		p.Done, p.Total, p.Status, p.Key,
		translate.FormatDuration(p.Elapsed), translate.FormatDuration(p.ETA))
}

func printReport(locale string, r *translate.Report, dryRun bool) {
	logSuccess("%s", translate.Summary(locale, r))
	if len(r.Failures) > 0 {
		logWarning(i18n.N(
			"%d translation kept the source text:",
			"%d translations kept the source text:", r.Failed), r.Failed)
		for _, f := range r.Failures {
			fmt.Fprintf(os.Stderr, " - %s: %s\n", f.Key, f.Reason)
		}
		if r.Failed > len(r.Failures) {
			fmt.Fprintf(os.Stderr, " ... and %d more\n", r.Failed-len(r.Failures))
		}
	}
	if dryRun {
		logInfo(i18n.T("Dry run: no files were written"))
	}
}

// ---------------------------------------------------------------------------
// Locale file discovery
// ---------------------------------------------------------------------------

type localeFile struct {
	code string
	path string
}

// localeFromFilename extracts the locale code from an ARB file name
// following the app_<locale>.arb convention. Returns "" when the name
// does not match.
func localeFromFilename(name string) string {
	if !strings.HasPrefix(name, "app_") || !strings.HasSuffix(name, ".arb") {
		return ""
	}
	return name[len("app_") : len(name)-len(".arb")]
}

// discoverLocales lists the locale files in dir, excluding the source
// template itself. Results are sorted by locale code.
func discoverLocales(dir, templatePath string) ([]localeFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	templateBase := filepath.Base(templatePath)
	var locales []localeFile
	for _, e := range entries {
		if e.IsDir() || e.Name() == templateBase {
			continue
		}
		code := localeFromFilename(e.Name())
		if code == "" {
			continue
		}
		locales = append(locales, localeFile{code: code, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(locales, func(i, j int) bool { return locales[i].code < locales[j].code })
	return locales, nil
}
