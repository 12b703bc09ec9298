// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"golang.org/x/term"

	"pii-linkage/internal/config"
	"pii-linkage/internal/dedup"
	"pii-linkage/internal/formatters"
	"pii-linkage/internal/help"
	"pii-linkage/internal/metrics"
	"pii-linkage/internal/observability"
	"pii-linkage/internal/parallel"
	"pii-linkage/internal/paths"
	"pii-linkage/internal/pipeline"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/readers"
	"pii-linkage/internal/recognizers/personname"
	"pii-linkage/internal/resolver"
	"pii-linkage/internal/security"
	"pii-linkage/internal/storage/postgres"
	"pii-linkage/internal/storage/redislock"
	"pii-linkage/internal/version"

	// Output formatters register themselves.
	_ "pii-linkage/internal/formatters/csv"
	_ "pii-linkage/internal/formatters/json"
	_ "pii-linkage/internal/formatters/text"
	_ "pii-linkage/internal/formatters/yaml"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	configFile   string
	geographies  string
	anchors      string
	mode         string
	format       string
	output       string
	workers      int
	databaseURL  string
	redisURL     string
	logLevel     string
	logFormat    string
	metrics      bool
	noColor      bool
	verbose      bool
	quiet        bool
	purgeExpired bool
	showVersion  bool
	listPatterns bool
	explain      string

	set  map[string]bool
	args []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.showVersion {
		fmt.Fprintln(stdout, version.Info())
		return exitOK
	}
	if flags.listPatterns || flags.explain != "" {
		return showPatterns(flags, stdout, stderr)
	}
	if len(flags.args) == 0 && !flags.purgeExpired {
		fmt.Fprintln(stderr, "Error: no input files or directories given")
		fmt.Fprintln(stderr, "Usage: pii-linkage [flags] <file|directory>...")
		return exitUsage
	}

	cfg, err := loadConfig(flags)
	if err == nil && len(flags.args) > 0 {
		err = cfg.ValidateSecrets()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create logger: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, flags, logger, stdout, stderr); err != nil {
		logger.Error("run failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("pii-linkage", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&f.geographies, "geo", "", "Comma-separated geographies to scan for: GLOBAL, US, UK, EU, IN, CA, AU (default: all)")
	fs.StringVar(&f.anchors, "anchors", "", "Comma-separated linkage anchors: "+strings.Join(resolver.ValidAnchorNames(), ", ")+" (default: all)")
	fs.StringVar(&f.mode, "mode", "", "Storage policy mode: strict or investigation (default: strict)")
	fs.StringVar(&f.format, "format", "text", "Output format: "+strings.Join(formatters.List(), ", "))
	fs.StringVar(&f.output, "output", "", "Path to output file (if not specified, output to stdout)")
	fs.IntVar(&f.workers, "workers", 0, "Number of documents processed in parallel (default: number of CPUs, at most 8)")
	fs.StringVar(&f.databaseURL, "database-url", "", "PostgreSQL URL for the subject store (default: in-memory)")
	fs.StringVar(&f.redisURL, "redis-url", "", "Redis URL for distributed subject locks (default: in-process)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")
	fs.BoolVar(&f.metrics, "metrics", false, "Print Prometheus metrics to stderr when the run ends")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&f.verbose, "verbose", false, "Include resolved groups in the output")
	fs.BoolVar(&f.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&f.purgeExpired, "purge-expired", false, "Delete storage payloads past their retention (requires -database-url)")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	fs.BoolVar(&f.listPatterns, "list-patterns", false, "List the detection patterns for the selected geographies and exit")
	fs.StringVar(&f.explain, "explain", "", "Show how an `entity type` is detected and scored, then exit")
	fs.Usage = func() {
		help.NewSystem(stderr, !isTerminal(stderr)).ShowGeneralHelp(helpOptions(fs))
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	f.args = fs.Args()
	return f, nil
}

func helpOptions(fs *flag.FlagSet) []help.Option {
	var out []help.Option
	fs.VisitAll(func(fl *flag.Flag) {
		arg, usage := flag.UnquoteUsage(fl)
		if arg != "" {
			arg = "<" + arg + ">"
		}
		out = append(out, help.Option{Name: fl.Name, Arg: arg, Description: usage})
	})
	return out
}

// isFlagSet checks if a flag was explicitly set on the command line.
func (f *cliFlags) isFlagSet(name string) bool {
	return f.set[name]
}

// loadConfig reads the config file, or the environment when there is none,
// and applies command line overrides.
func loadConfig(f *cliFlags) (*config.Config, error) {
	path := f.configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f.isFlagSet("geo") {
		cfg.Geographies = splitList(f.geographies)
	}
	if f.isFlagSet("anchors") {
		cfg.Anchors = splitList(f.anchors)
	}
	if f.isFlagSet("mode") {
		cfg.Storage.Mode = strings.ToLower(strings.TrimSpace(f.mode))
	}
	if f.isFlagSet("workers") {
		cfg.Workers = f.workers
	}
	if f.isFlagSet("database-url") {
		cfg.Database.URL = f.databaseURL
	}
	if f.isFlagSet("redis-url") {
		cfg.Redis.URL = f.redisURL
	}
	if f.isFlagSet("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if f.isFlagSet("log-format") {
		cfg.Log.Format = f.logFormat
		if cfg.Log.Format == "text" {
			cfg.Log.Format = "console"
		}
	}
	if f.isFlagSet("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if cfg.Workers == 0 {
		cfg.Workers = parallel.DefaultWorkers()
	}
	if _, ok := formatters.Get(f.format); !ok {
		return nil, fmt.Errorf("%w: unknown output format %q (available: %s)",
			config.ErrInvalidConfig, f.format, strings.Join(formatters.List(), ", "))
	}
	if f.purgeExpired && cfg.Database.URL == "" {
		return nil, fmt.Errorf("%w: -purge-expired requires a database URL", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// showPatterns prints the pattern catalog, or one entry of it, as
// configured for this run.
func showPatterns(f *cliFlags, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	cat, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	h := help.NewSystem(stdout, f.noColor || !isTerminal(stdout))
	if f.explain != "" {
		if !h.ShowPatternHelp(cat, f.explain) {
			return exitUsage
		}
		return exitOK
	}
	h.ShowPatternsHelp(cat, cfg.GeographyList())
	return exitOK
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func execute(ctx context.Context, cfg *config.Config, f *cliFlags, logger *zap.Logger, stdout, stderr io.Writer) error {
	var m *metrics.Metrics
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		m = metrics.New(registry)
		defer func() {
			if err := writeMetrics(stderr, registry); err != nil {
				logger.Warn("failed to write metrics", zap.Error(err))
			}
		}()
	}

	var store dedup.SubjectStore = dedup.NewMemoryStore()
	var sink pipeline.PayloadSink
	if cfg.Database.URL != "" {
		pg, closeDB, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()
		store, sink = pg, pg

		if f.purgeExpired {
			n, err := pg.PurgeExpiredPayloads(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge expired payloads: %w", err)
			}
			logger.Info("purged expired storage payloads", zap.Int64("deleted", n))
			if len(f.args) == 0 {
				return nil
			}
		}
	}

	dedupOpts := []dedup.Option{
		dedup.WithLogger(logger),
		dedup.WithMetrics(m),
		dedup.WithWorkers(cfg.Workers),
	}
	if cfg.Redis.URL != "" {
		client, err := redislock.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		dedupOpts = append(dedupOpts, dedup.WithLocker(redislock.New(client,
			redislock.WithTTL(cfg.Redis.LockTTL),
			redislock.WithLogger(logger))))
		logger.Info("using distributed subject locks")
	}

	docReaders := newReaders(cfg)
	engine, err := buildEngine(cfg, docReaders, store, sink, dedupOpts, logger, m, f.quiet, stderr)
	if err != nil {
		return err
	}

	inputs, err := paths.Expand(f.args, docReaders.Supports)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no supported documents found")
	}
	logger.Info("starting run",
		zap.Int("documents", len(inputs)),
		zap.Int("workers", cfg.Workers),
		zap.String("storage_mode", cfg.Storage.Mode),
		zap.Strings("geographies", cfg.Geographies))

	report, err := engine.Run(ctx, pipeline.DocumentsFromPaths(inputs))
	if err != nil {
		return err
	}
	return writeReport(report, f, stdout)
}

func newReaders(cfg *config.Config) *readers.Registry {
	return readers.NewRegistry(
		readers.WithMaxFileSize(cfg.Readers.MaxFileSizeMB<<20),
		readers.WithMaxPDFPages(cfg.Readers.MaxPDFPages))
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*postgres.Store, func(), error) {
	if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
		return nil, nil, err
	}
	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to subject store")
	return postgres.NewStore(pool), pool.Close, nil
}

func buildEngine(cfg *config.Config, docReaders *readers.Registry, store dedup.SubjectStore, sink pipeline.PayloadSink, dedupOpts []dedup.Option,
	logger *zap.Logger, m *metrics.Metrics, quiet bool, stderr io.Writer) (*pipeline.Engine, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(cfg.Anchors, resolver.WithLogger(logger), resolver.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	pol, err := newPolicy(cfg, m)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	}
	if !quiet && isTerminal(stderr) {
		opts = append(opts, pipeline.WithProgress(progressPrinter(stderr)))
	}

	return pipeline.NewEngine(pipeline.Components{
		Readers:      docReaders,
		Catalog:      cat,
		Geographies:  cfg.GeographyList(),
		Recognizer:   personname.Factory,
		Resolver:     res,
		Deduplicator: dedup.New(store, dedupOpts...),
		Policy:       pol,
		Payloads:     sink,
	}, opts...)
}

// newPolicy builds the storage policy engine from the validated secrets.
func newPolicy(cfg *config.Config, m *metrics.Metrics) (*policy.Engine, error) {
	pcfg, err := cfg.Storage.PolicyConfig()
	if err != nil {
		return nil, err
	}

	var enc policy.Encryption = policy.NoEncryption{}
	if cfg.Storage.EncryptionKey != "" {
		cipher, err := security.NewCipher(cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
		enc = policy.EncryptionFrom(cipher)
	}
	return policy.NewEngine(pcfg, cfg.Storage.TenantSalt, enc, policy.WithMetrics(m))
}

func writeReport(report *pipeline.Report, f *cliFlags, stdout io.Writer) error {
	noColor := f.noColor || f.output != "" || !isTerminal(stdout)
	out, err := formatters.Export(f.format, report, formatters.FormatterOptions{
		Verbose: f.verbose,
		NoColor: noColor,
		Mask:    true,
	})
	if err != nil {
		return err
	}

	if f.output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	if err := paths.ValidatePath(f.output); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(f.output), []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func progressPrinter(w io.Writer) parallel.ProgressCallback {
	return func(completed, total int, _ string) {
		fmt.Fprintf(w, "\rProcessed %d/%d documents", completed, total)
		if completed == total {
			fmt.Fprintln(w)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
