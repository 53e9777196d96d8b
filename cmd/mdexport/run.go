package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/i18n"
	"github.com/alnah/go-mdexport/internal/logging"
	"github.com/alnah/go-mdexport/internal/yamlutil"
)

// Sentinel errors for command dispatch.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrTooManyInputs  = errors.New("expected exactly one directory")
)

// run dispatches args to a command and returns the process exit code.
func run(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "file":
		return runExport(context.Background(), mdexport.EntryFile, rest, env)
	case "folder":
		return runExport(context.Background(), mdexport.EntryFolder, rest, env)
	case "project":
		return runExport(context.Background(), mdexport.EntryProject, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "config":
		return runConfigCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdexport %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "%v: %s\n", ErrUnknownCommand, cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

func usageFor(entry mdexport.Entry) func(io.Writer) {
	switch entry {
	case mdexport.EntryFolder:
		return printFolderUsage
	case mdexport.EntryProject:
		return printProjectUsage
	default:
		return printFileUsage
	}
}

// runExport runs the file, folder and project commands.
func runExport(ctx context.Context, entry mdexport.Entry, args []string, env *Environment) int {
	flags, inputs, err := parseExportFlags(string(entry), args, usageFor(entry), env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	r, err := newRunner(flags, env)
	if err != nil {
		return reportError(env, flags.common.config, err)
	}
	defer r.close()

	ctx, stop := notifyContext(ctx)
	defer stop()

	if entry == mdexport.EntryFile {
		return r.exportFiles(ctx, inputs)
	}
	return r.exportDir(ctx, entry, inputs)
}

// runner holds what one export command shares across its inputs.
type runner struct {
	flags    *exportFlags
	env      *Environment
	cfg      *config.Config
	logger   *zap.Logger
	messages *i18n.Messages
	pool     *mdexport.ExporterPool
}

func newRunner(f *exportFlags, env *Environment) (*runner, error) {
	if err := validateWorkers(f.workers); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(f, env.Getenv)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}, env.Stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigInvalid, err)
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))

	messages := i18n.New(cfg.Language, env.Getenv)

	size := mdexport.ResolvePoolSize(cfg.Render.Workers)
	logger.Debug("exporter pool", zap.Int("size", size))

	opts := append(exporterOptions(cfg, f, messages.Lang(), env.Getenv), mdexport.WithLogger(logger))

	return &runner{
		flags:    f,
		env:      env,
		cfg:      cfg,
		logger:   logger,
		messages: messages,
		pool:     mdexport.NewExporterPool(size, opts...),
	}, nil
}

func (r *runner) close() {
	if err := r.pool.Close(); err != nil {
		r.logger.Warn("closing browsers", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// exportFiles exports every input in parallel, bounded by the pool size.
func (r *runner) exportFiles(ctx context.Context, inputs []string) int {
	if len(inputs) == 0 {
		return reportError(r.env, r.flags.common.config, ErrNoInput)
	}
	single := len(inputs) == 1
	if !single && strings.EqualFold(filepath.Ext(r.flags.output), ".pdf") {
		return reportError(r.env, r.flags.common.config, ErrOutputConflict)
	}
	for _, in := range inputs {
		if err := inputFile(in); err != nil {
			return reportError(r.env, r.flags.common.config, err)
		}
	}

	statuses := make([]mdexport.Status, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = r.exportFile(ctx, in, single)
		}()
	}
	wg.Wait()

	code := ExitSuccess
	for _, s := range statuses {
		r.report(s)
		if code == ExitSuccess {
			code = exitCodeForStatus(s)
		}
	}
	return code
}

func (r *runner) exportFile(ctx context.Context, input string, single bool) mdexport.Status {
	doc, err := readDocument(input)
	if err != nil {
		return r.failed(mdexport.EntryFile, err)
	}
	if single && r.flags.title != "" {
		doc.Title = r.flags.title
	}
	suggested := resolveOutputPath(filepath.Dir(doc.SourcePath), doc.Title, r.flags.output, r.cfg.Output.DefaultDir)

	exp, err := r.pool.Acquire(ctx)
	if err != nil {
		return r.failed(mdexport.EntryFile, err)
	}
	defer r.pool.Release(exp)

	if r.flags.html {
		docs, skips := exp.Collect(ctx, doc)
		return r.writeHTML(ctx, exp, mdexport.EntryFile, doc.Title, docs, skips, suggested)
	}

	opts := exportOptions(r.cfg)
	return r.coordinator(exp, single, suggested).ExportFile(ctx, mdexport.FileRequest{
		Document: doc,
		Options:  &opts,
	})
}

// exportDir runs the folder and project commands.
func (r *runner) exportDir(ctx context.Context, entry mdexport.Entry, inputs []string) int {
	switch {
	case len(inputs) == 0:
		return reportError(r.env, r.flags.common.config, ErrNoInput)
	case len(inputs) > 1:
		return reportError(r.env, r.flags.common.config, fmt.Errorf("%w: got %d", ErrTooManyInputs, len(inputs)))
	}

	dir, err := inputDir(inputs[0])
	if err != nil {
		return reportError(r.env, r.flags.common.config, err)
	}

	var docs []mdexport.Document
	if entry == mdexport.EntryFolder {
		docs, err = discoverFolder(dir, r.logger)
	} else {
		docs, err = discoverProject(dir, r.cfg.Project.Exclude, r.logger)
	}
	if err != nil {
		return reportError(r.env, r.flags.common.config, err)
	}
	r.logger.Debug("discovered documents", zap.String("dir", dir), zap.Int("count", len(docs)))

	title := filepath.Base(dir)
	if r.flags.title != "" {
		title = r.flags.title
	}
	suggested := resolveOutputPath(dir, title, r.flags.output, r.cfg.Output.DefaultDir)

	exp, err := r.pool.Acquire(ctx)
	if err != nil {
		return reportError(r.env, r.flags.common.config, err)
	}
	defer r.pool.Release(exp)

	var status mdexport.Status
	if r.flags.html {
		status = r.writeHTML(ctx, exp, entry, title, docs, nil, suggested)
	} else {
		opts := exportOptions(r.cfg)
		req := mdexport.BatchRequest{Title: title, Documents: docs, Options: &opts}
		coord := r.coordinator(exp, true, suggested)
		if entry == mdexport.EntryFolder {
			status = coord.ExportFolder(ctx, req)
		} else {
			status = coord.ExportProject(ctx, req)
		}
	}

	r.report(status)
	return exitCodeForStatus(status)
}

func (r *runner) coordinator(exp *mdexport.Exporter, single bool, suggested string) *mdexport.Coordinator {
	var revealer mdexport.Revealer = mdexport.OSRevealer{}
	if r.flags.noReveal || !single || !r.env.Interactive() {
		revealer = nil
	}
	return mdexport.NewCoordinator(exp,
		mdexport.WithPrompter(choosePrompter(r.flags, r.env, single, suggested)),
		mdexport.WithRevealer(revealer),
		mdexport.WithMessages(r.messages),
		mdexport.WithCoordinatorLogger(r.logger),
	)
}

// writeHTML writes the composed HTML next to where the PDF would go,
// without starting a browser.
func (r *runner) writeHTML(ctx context.Context, exp *mdexport.Exporter, entry mdexport.Entry, title string, docs []mdexport.Document, skips []mdexport.Skip, pdfPath string) mdexport.Status {
	if len(docs) == 0 {
		return mdexport.Status{Kind: mdexport.StatusNoDocuments, Message: r.messages.NoDocuments(), Skips: skips, Err: mdexport.ErrNoDocuments}
	}

	result, err := exp.ComposeHTML(ctx, title, docs, exportOptions(r.cfg))
	if err != nil {
		return r.failed(entry, err)
	}

	path := htmlOutputPath(pdfPath)
	if _, err := fileutil.WriteOutput(path, result.HTML); err != nil {
		return r.failed(entry, err)
	}
	return mdexport.Status{
		Kind:    mdexport.StatusExported,
		Message: fmt.Sprintf("HTML written to %s", path),
		Path:    path,
		Skips:   append(skips, result.Skips...),
	}
}

// failed builds a failure status for errors raised before the coordinator runs.
func (r *runner) failed(entry mdexport.Entry, err error) mdexport.Status {
	msg := r.messages.GenericError()
	switch entry {
	case mdexport.EntryFolder:
		msg = r.messages.FolderError()
	case mdexport.EntryProject:
		msg = r.messages.ProjectError()
	}
	r.logger.Error("export failed", zap.String("entry", string(entry)), zap.Error(err))
	return mdexport.Status{Kind: mdexport.StatusFailed, Message: msg, Err: err}
}

// report prints a status for the user.
func (r *runner) report(s mdexport.Status) {
	switch s.Kind {
	case mdexport.StatusExported:
		if !r.flags.common.quiet {
			fmt.Fprintln(r.env.Stdout, s.Message)
		}
	case mdexport.StatusCanceled:
		fmt.Fprintln(r.env.Stderr, s.Message)
	case mdexport.StatusNoDocuments:
		fmt.Fprintln(r.env.Stderr, s.Message+hintFor(s.Err, r.flags.common.config, r.env.Getenv))
	default:
		fmt.Fprintf(r.env.Stderr, "%s: %v%s\n", s.Message, s.Err, hintFor(s.Err, r.flags.common.config, r.env.Getenv))
	}
}

// reportError prints err with a hint and returns its exit code.
func reportError(env *Environment, configName string, err error) int {
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, configName, env.Getenv))
	return exitCodeFor(err)
}

// runConfigCmd prints the effective configuration as YAML.
func runConfigCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var name string
	var defaults bool
	fs.StringVarP(&name, "config", "c", "", "config file name or path")
	fs.BoolVar(&defaults, "default", false, "print built-in defaults only")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	cfg := config.DefaultConfig()
	if !defaults {
		var err error
		if cfg, err = loadConfig(&exportFlags{common: commonFlags{config: name}}, env.Getenv); err != nil {
			return reportError(env, name, err)
		}
	}

	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return reportError(env, name, err)
	}
	_, _ = env.Stdout.Write(data)
	return ExitSuccess
}
