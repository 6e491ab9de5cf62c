package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/iedon/zine-go/config"
	"github.com/iedon/zine-go/fsutil"
	"github.com/iedon/zine-go/templatex"
)

// StaticDir is copied verbatim from the source root into the destination.
const StaticDir = "static"

// Reloader recompiles templates from disk.
type Reloader interface {
	Reload() error
}

// Engine drives one build: setup, template reload, parse, render.
type Engine struct {
	cfg       *config.Config
	templates Reloader
	env       *Env
	logger    *slog.Logger
}

// NewEngine ensures the destination directory exists and returns an engine.
func NewEngine(cfg *config.Config, templates Reloader, env *Env, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dest, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if env.Logger == nil {
		env.Logger = logger
	}
	return &Engine{cfg: cfg, templates: templates, env: env, logger: logger}, nil
}

// Build runs every phase and stops at the first error. Files written before
// a failure are left in place.
func (e *Engine) Build(ctx context.Context) (*Zine, error) {
	start := time.Now()

	if e.cfg.Develop && e.templates != nil {
		if err := e.templates.Reload(); err != nil {
			return nil, fmt.Errorf("reload templates: %w", err)
		}
		e.logger.Debug("templates reloaded")
	}

	zine, err := LoadManifest(e.cfg.Source)
	if err != nil {
		return nil, err
	}

	if err := zine.Parse(ctx, e.env, e.cfg.Source); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	parsed := time.Now()

	if err := zine.Render(e.env, templatex.Context{}, e.cfg.Dest); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if err := e.copyStatic(); err != nil {
		return nil, err
	}

	e.logger.Info("build finished",
		"seasons", len(zine.Seasons),
		"articles", len(zine.Articles()),
		"pages", len(zine.Pages),
		"parse", parsed.Sub(start),
		"render", time.Since(parsed),
	)
	return zine, nil
}

// LoadManifest reads and decodes <source>/zine.toml.
func LoadManifest(source string) (*Zine, error) {
	file := filepath.Join(source, ManifestFile)
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	zine := &Zine{}
	if err := toml.Unmarshal(raw, zine); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", file, err)
	}
	return zine, nil
}

func (e *Engine) copyStatic() error {
	src := filepath.Join(e.cfg.Source, StaticDir)
	ok, err := fsutil.IsDir(src)
	if err != nil {
		return fmt.Errorf("stat static dir: %w", err)
	}
	if !ok {
		return nil
	}
	if err := fsutil.CopyTree(src, filepath.Join(e.cfg.Dest, StaticDir)); err != nil {
		return fmt.Errorf("copy static assets: %w", err)
	}
	return nil
}
