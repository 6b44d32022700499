package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/app"
	"github.com/KexinAnswer/gitbook/internal/batch"
	"github.com/KexinAnswer/gitbook/internal/document"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/config"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/logging"
)

type options struct {
	config  string
	tree    bool
	dir     string
	pattern string
	out     string
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "YAML or TOML configuration file")
	flag.BoolVar(&opts.tree, "tree", false, "print the document tree instead of HTML")
	flag.StringVar(&opts.dir, "dir", "", "render every matching document below this directory")
	flag.StringVar(&opts.pattern, "pattern", batch.DefaultPattern, "document glob used with -dir")
	flag.StringVar(&opts.out, "out", "", "output directory used with -dir; defaults to next to each document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: render [-config file] [-tree] document.json\n")
		fmt.Fprintf(flag.CommandLine.Output(), "       render [-config file] -dir root [-pattern glob] [-out dir]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(opts, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, args []string, stdout io.Writer) error {
	if opts.dir == "" && len(args) != 1 {
		flag.Usage()
		return fmt.Errorf("expected one document or -dir")
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	cfg, err := config.LoadPath(opts.config)
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays clean HTML.
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logCfg.Service = cfg.Tracing.Service
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.dir != "" {
		return renderDir(ctx, a, opts)
	}
	return renderFile(ctx, a, args[0], opts.tree, stdout)
}

func renderFile(ctx context.Context, a *app.App, path string, tree bool, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}

	if tree {
		_, err := io.WriteString(stdout, document.Dump(doc))
		return err
	}

	res, err := a.Renderer.Render(ctx, doc, document.RenderOptions{})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, res.HTML)
	return err
}

func renderDir(ctx context.Context, a *app.App, opts options) error {
	runner := batch.NewRunner(a.Renderer, a.Tracer, a.Logger.Named("batch"))
	summary, err := runner.Run(ctx, batch.Config{
		Root:        opts.dir,
		Pattern:     opts.pattern,
		OutDir:      opts.out,
		Concurrency: a.Config.Render.Concurrency,
	})
	if err != nil {
		return err
	}

	a.Logger.Info("Rendered documents",
		zap.Int("rendered", summary.Rendered),
		zap.Int("failed", summary.Failed),
	)
	return summary.Err()
}
