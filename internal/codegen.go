package internal

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// RunCodegen generates the obfuscated accessors for every package under
// cfg.Dir, then handles submodules as independent projects.
func RunCodegen(cfg *Config) error {
	startTotal := time.Now()
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	logger.WithFields(logrus.Fields{
		"dir":          dir,
		"mode":         cfg.mode(),
		"output":       cfg.output(),
		"reproducible": cfg.Reproducible,
	}).Debug("parsed configuration")

	ctx, err := newContext(dir, cfg)
	if err != nil {
		return err
	}
	fileProcessor := NewFileProcessor(ctx)

	startWalk := time.Now()
	if err := fileProcessor.CollectSources(dir); err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}
	logger.Debugf("walk completed in %v", time.Since(startWalk))

	if len(ctx.Submodules) > 0 {
		logger.Infof("found %d submodule(s) to process separately", len(ctx.Submodules))
		for _, sub := range ctx.Submodules {
			logger.Infof("  - %s", fileProcessor.relPath(sub))
		}
	}

	if len(ctx.LiteralFiles) == 0 && len(ctx.Manifests) == 0 {
		logger.Debugf("no literal files found (looking for files with '%s' or %s)", LiteralMarker, ManifestName)
	} else {
		startLoad := time.Now()
		packages, err := fileProcessor.LoadPackages()
		if err != nil {
			return fmt.Errorf("failed to load literals: %w", err)
		}
		logger.Debugf("load completed in %v", time.Since(startLoad))

		for _, p := range packages {
			if _, err := generate(ctx, fileProcessor, p); err != nil {
				return err
			}
		}
	}

	logger.Debugf("total time: %v", time.Since(startTotal))

	submodules := ctx.Submodules
	for _, submodule := range submodules {
		logger.Infof("processing submodule: %s", fileProcessor.relPath(submodule))
		sub := *cfg
		sub.Dir = submodule
		if err := RunCodegen(&sub); err != nil {
			return fmt.Errorf("error processing submodule %s: %w", submodule, err)
		}
	}

	return nil
}

// GeneratePackage regenerates the single package in dir and returns the
// path of the generated file, or "" when dir declares no literals.
func GeneratePackage(dir string, cfg *Config) (string, error) {
	ctx, err := newContext(dir, cfg)
	if err != nil {
		return "", err
	}
	fileProcessor := NewFileProcessor(ctx)
	if err := fileProcessor.CollectDir(ctx.RootDir); err != nil {
		return "", err
	}
	if len(ctx.LiteralFiles) == 0 && len(ctx.Manifests) == 0 {
		return "", nil
	}
	packages, err := fileProcessor.LoadPackages()
	if err != nil {
		return "", fmt.Errorf("failed to load literals: %w", err)
	}
	if len(packages) == 0 {
		return "", nil
	}
	return generate(ctx, fileProcessor, packages[0])
}

func newContext(dir string, cfg *Config) (*ProcessorContext, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}
	build, err := NewBuildInfo(cfg.Reproducible)
	if err != nil {
		return nil, err
	}
	return &ProcessorContext{
		RootDir:    absDir,
		ModuleRoot: findModuleRoot(absDir),
		Config:     cfg,
		Build:      build,
		FileSet:    token.NewFileSet(),
	}, nil
}

func generate(ctx *ProcessorContext, fp *FileProcessor, p *Package) (string, error) {
	out := filepath.Join(p.Dir, ctx.Config.output())
	if len(p.Literals) == 0 {
		logger.WithField("package", fp.relPath(p.Dir)).Debug("no literals declared, nothing to generate")
		return "", nil
	}

	sealed := SealPackage(p, ctx.Build, sourceIdentity(ctx, p.Dir))
	src, err := Render(sealed)
	if err != nil {
		return "", err
	}

	if existing, err := os.ReadFile(out); err == nil && bytes.Equal(existing, src) {
		logger.WithField("file", fp.relPath(out)).Debug("generated file is up to date")
		return out, nil
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	logger.WithFields(logrus.Fields{
		"file":     fp.relPath(out),
		"literals": len(sealed.Literals),
		"table":    len(sealed.Table),
	}).Debug("generated")
	return out, nil
}

// sourceIdentity names a package directory relative to its module, so the
// standalone and toolexec runs agree on it.
func sourceIdentity(ctx *ProcessorContext, dir string) string {
	base := ctx.ModuleRoot
	if base == "" {
		base = ctx.RootDir
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}
