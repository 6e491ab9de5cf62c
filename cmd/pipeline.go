package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/iedon/zine-go/config"
	"github.com/iedon/zine-go/data"
	"github.com/iedon/zine-go/metrics"
	"github.com/iedon/zine-go/preview"
	"github.com/iedon/zine-go/renderer"
	"github.com/iedon/zine-go/server"
	"github.com/iedon/zine-go/site"
	"github.com/iedon/zine-go/templatex"
	"github.com/iedon/zine-go/watcher"
)

// buildFlags are shared by build, watch and serve.
type buildFlags struct {
	develop bool
	minify  bool
	offline bool
}

func (f *buildFlags) register(cmd *cobra.Command, withDevelop bool) {
	if withDevelop {
		cmd.Flags().BoolVar(&f.develop, "develop", false, "reload templates before every build")
	}
	cmd.Flags().BoolVar(&f.minify, "minify", false, "minify rendered HTML")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "use cached link previews only")
}

func (a *app) apply(cmd *cobra.Command, f *buildFlags, forceDevelop bool) {
	if forceDevelop || cmd.Flags().Changed("develop") {
		a.v.Set("develop", forceDevelop || f.develop)
	}
	if cmd.Flags().Changed("minify") {
		a.v.Set("minify", f.minify)
	}
	if f.offline {
		a.v.Set("fetchPreviews", false)
	}
}

// pipeline owns everything one build needs. Builds are serialised.
type pipeline struct {
	cfg     *config.Config
	store   *data.Store
	engine  *site.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	// onBuilt runs after every successful build, under the build lock.
	onBuilt func()

	mu     sync.Mutex
	status server.BuildStatus
}

// newPipeline wires a pipeline from the resolved configuration. m may be nil.
func (a *app) newPipeline(m *metrics.Metrics) (*pipeline, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel, a.out)

	store, err := a.loader.Load(cfg.Source)
	if err != nil {
		return nil, err
	}

	md := renderer.New()
	templates, err := templatex.Load(cfg.Templates, templatex.Funcs(md, store))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var source preview.Source
	if cfg.FetchPreviews {
		source = preview.NewFetcher(cfg.PreviewTimeout, a.info.Signature)
	}
	resolver := preview.NewResolver(store, source, logger)
	if m != nil {
		resolver.SetObserver(m)
		m.TrackStore(store)
	}
	env := &site.Env{
		Pages:    templatex.NewGateway(templates, cfg.Minify),
		Markdown: md,
		Previews: resolver,
		Logger:   logger,
	}
	engine, err := site.NewEngine(cfg, templates, env, logger)
	if err != nil {
		return nil, err
	}
	return &pipeline{cfg: cfg, store: store, engine: engine, logger: logger, metrics: m}, nil
}

// build runs the engine and then exports the cache store, even after a
// failed build, so previews fetched so far are kept.
func (p *pipeline) build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	_, err := p.engine.Build(ctx)
	if exportErr := p.store.Export(p.cfg.Source); exportErr != nil {
		err = errors.Join(err, fmt.Errorf("export %s: %w", data.FileName, exportErr))
	}
	p.metrics.ObserveBuild(time.Since(start), err)

	p.status.Builds++
	p.status.Finished = time.Now()
	p.status.Error = ""
	if err != nil {
		p.status.Error = err.Error()
	} else if p.onBuilt != nil {
		p.onBuilt()
	}
	return err
}

func (p *pipeline) Status() server.BuildStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// watch builds once and then rebuilds on every batch of source changes
// until ctx is cancelled. Build failures are logged, not returned.
func (p *pipeline) watch(ctx context.Context) error {
	if err := p.build(ctx); err != nil {
		p.logger.Error("build", "error", err)
	}

	w, err := watcher.New(p.cfg.Source, watcher.DefaultDelay, p.ignored, p.logger)
	if err != nil {
		return err
	}
	p.logger.Info("watching", "source", p.cfg.Source)
	return w.Run(ctx, func(paths []string) {
		p.logger.Info("change detected", "files", len(paths), "first", paths[0])
		if err := p.build(ctx); err != nil {
			p.logger.Error("build", "error", err)
		}
	})
}

func (p *pipeline) ignored(path string) bool {
	return p.cfg.IsWithinDest(path) || filepath.Base(path) == data.FileName
}
