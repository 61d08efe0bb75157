// smallworld makes a New Super Mario Bros. Wii title screen archive
// (openingTitle.arc) region-free, or converts one back to a single region.
//
// Usage:
//
//	smallworld [flags] <input.arc>
//
// By default the input is merged in place: every region's filename is added
// for each title screen file, all sharing one copy of the data. With --split
// the archive is reduced to one region's filenames, which is the form to edit
// before merging again.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/meigma/smallworld"
	"github.com/meigma/smallworld/internal/atomicfile"
	"github.com/meigma/smallworld/internal/version"
	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

const (
	reportText = "text"
	reportYAML = "yaml"
)

// usageError marks a command-line mistake.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

type options struct {
	input           string
	output          string
	splitName       string
	split           region.Region
	splitSet        bool
	fromList        string
	sources         region.Set
	targets         region.Set
	ignoreConflicts bool
	prefer          region.Region
	dryRun          bool
	report          string
	list            bool
	verbose         int
	quiet           bool
	version         bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "smallworld: %v\n", err)
		if errors.Is(err, smallworld.ErrConflict) {
			fmt.Fprintln(os.Stderr, "hint: use --ignore-conflicts to keep the --prefer region's version")
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "smallworld %s\n", version.Get())
		return nil
	}

	logger := newLogger(stderr, opts)
	return convert(opts, stdout, logger)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{
		sources: region.AllSet(),
		targets: region.AllSet(),
		prefer:  region.P,
	}

	fs := pflag.NewFlagSet("smallworld", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: smallworld [flags] <input.arc>\n\n")
		fmt.Fprintf(stderr, "Makes openingTitle.arc region-free, or splits it to one region.\n")
		fmt.Fprintf(stderr, "Regions: P (International), E (North America), J, K, W (Taiwan), C.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.output, "output", "o", "", "output path (default: overwrite the input)")
	fs.StringVar(&opts.splitName, "split", "", "collapse to one region (P, E, J, K, W, C) instead of merging")
	fs.StringVar(&opts.fromList, "from", "all", "regions to read files from, in priority order; other regions' files are left as they are")
	fs.Var(&opts.targets, "to", `regions to emit filenames for when merging, or "all"`)
	fs.BoolVar(&opts.ignoreConflicts, "ignore-conflicts", false, "resolve differing regional files in favour of --prefer")
	fs.Var(&opts.prefer, "prefer", "preferred region for --ignore-conflicts (default: first --from region)")
	fs.BoolVarP(&opts.dryRun, "dry-run", "n", false, "analyse only and print the report; write nothing")
	fs.StringVar(&opts.report, "report", "", "print a report of the archive's regional files: text or yaml (default text with --dry-run)")
	fs.BoolVar(&opts.list, "list", false, "print the converted archive's file listing")
	fs.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, &usageError{err: err}
	}
	if opts.version {
		return opts, nil
	}

	if fs.Changed("split") {
		r, err := region.Parse(opts.splitName)
		if err != nil {
			return nil, &usageError{err: fmt.Errorf("--split: %w", err)}
		}
		opts.split, opts.splitSet = r, true
	}
	from, err := region.ParseList(opts.fromList)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("--from: %w", err)}
	}
	opts.sources = region.NewSet(from...)
	if !fs.Changed("prefer") {
		opts.prefer = from[0]
	}
	if opts.dryRun && opts.report == "" {
		opts.report = reportText
	}
	switch {
	case fs.NArg() == 0:
		return nil, usagef("missing input archive")
	case fs.NArg() > 1:
		return nil, usagef("unexpected argument: %s", fs.Arg(1))
	case opts.splitSet && fs.Changed("to"):
		return nil, usagef("--to cannot be combined with --split")
	case fs.Changed("prefer") && !opts.ignoreConflicts:
		return nil, usagef("--prefer only applies with --ignore-conflicts")
	case opts.quiet && opts.verbose > 0:
		return nil, usagef("--quiet cannot be combined with --verbose")
	case opts.report != "" && opts.report != reportText && opts.report != reportYAML:
		return nil, usagef("unknown report format %q (want %s or %s)", opts.report, reportText, reportYAML)
	}
	opts.input = fs.Arg(0)
	if opts.output == "" {
		opts.output = opts.input
	}
	return opts, nil
}

func newLogger(w io.Writer, opts *options) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case opts.quiet:
		level = slog.LevelError
	case opts.verbose == 1:
		level = slog.LevelInfo
	case opts.verbose > 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func convert(opts *options, stdout io.Writer, logger *slog.Logger) error {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	archive, err := u8.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.input, err)
	}

	cls := smallworld.Classify(archive, smallworld.WithSources(opts.sources))
	if opts.report != "" {
		rep := newReport(opts.input, len(data), cls)
		if err := rep.write(stdout, opts.report); err != nil {
			return err
		}
	}

	policy := smallworld.DefaultPolicy()
	if opts.ignoreConflicts {
		policy = smallworld.Prefer(opts.prefer)
	}
	engineOpts := []smallworld.Option{
		smallworld.WithLogger(logger),
		smallworld.WithSources(opts.sources),
	}

	var out *u8.Archive
	if opts.splitSet {
		out, err = smallworld.Split(archive, opts.split, policy, engineOpts...)
	} else {
		engineOpts = append(engineOpts, smallworld.WithTargets(opts.targets))
		out, err = smallworld.Merge(archive, policy, engineOpts...)
	}
	if err != nil {
		return err
	}

	result, err := u8.Serialize(out)
	if err != nil {
		return err
	}
	if opts.list {
		if err := out.Format(stdout); err != nil {
			return err
		}
	}

	attrs := []any{
		slog.String("input", opts.input),
		slog.String("input_size", humanize.Bytes(uint64(len(data)))),    //nolint:gosec // slice length
		slog.String("output_size", humanize.Bytes(uint64(len(result)))), //nolint:gosec // slice length
		slog.String("policy", policy.String()),
	}
	if opts.dryRun {
		logger.Info("dry run, nothing written", attrs...)
		return nil
	}
	if err := atomicfile.WriteFile(opts.output, result, 0o644); err != nil {
		return err
	}
	logger.Info("wrote archive", append(attrs, slog.String("output", opts.output))...)
	return nil
}
