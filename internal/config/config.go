package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"riprocess-image-list/internal/model"
	"riprocess-image-list/internal/pipeline"
)

// Load reads a run configuration. The format follows the extension: .json,
// .yaml/.yml or .toml. Relative directories inside the file are resolved
// against the file's own directory.
func Load(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, &model.PipelineError{Kind: model.ErrInvalidConfig, Stage: "config", Path: path, Err: err}
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return model.Config{}, &model.PipelineError{Kind: model.ErrInvalidConfig, Stage: "config", Path: path, Err: err}
	}
	Resolve(&cfg, filepath.Dir(path))
	if err := Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext.
func Parse(data []byte, ext string) (model.Config, error) {
	var cfg model.Config
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode YAML: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("decode TOML: unknown keys %v", undecoded)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (want .json, .yaml, .yml or .toml)", ext)
	}
	return cfg, nil
}

// Resolve makes the relative paths of cfg absolute under base.
func Resolve(cfg *model.Config, base string) {
	cfg.Images.Path = resolvePath(base, cfg.Images.Path)
	cfg.Timestamps.Path = resolvePath(base, cfg.Timestamps.Path)
	cfg.Output.File = resolvePath(base, cfg.Output.File)
	cfg.Output.DB = resolvePath(base, cfg.Output.DB)
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// Confine resolves the input paths of cfg under root and rejects any that is
// absolute or escapes root. The check is lexical; symlinks inside root are
// followed at read time.
func Confine(cfg *model.Config, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return model.InvalidConfigf("config root %q: %v", root, err)
	}
	fields := []struct {
		name string
		path *string
	}{
		{"images.path", &cfg.Images.Path},
		{"timestamps.path", &cfg.Timestamps.Path},
	}
	for _, f := range fields {
		if *f.path == "" {
			continue
		}
		if filepath.IsAbs(*f.path) {
			return model.InvalidConfigf("%s must be relative to the config root", f.name)
		}
		resolved := resolvePath(absRoot, *f.path)
		rel, err := filepath.Rel(absRoot, resolved)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return model.InvalidConfigf("%s must stay inside the config root", f.name)
		}
		*f.path = resolved
	}
	return nil
}

// Validate checks the fields the pipeline cannot run without.
func Validate(cfg model.Config) error {
	if strings.TrimSpace(cfg.Images.Path) == "" {
		return model.InvalidConfigf("images.path is required")
	}
	if strings.TrimSpace(cfg.Timestamps.Path) == "" {
		return model.InvalidConfigf("timestamps.path is required")
	}
	if len(cfg.Records) == 0 {
		return model.InvalidConfigf("at least one [[records]] entry is required")
	}
	if err := checkOrder(cfg.Images.FirstImage, cfg.Images.LastImage, "images"); err != nil {
		return err
	}
	for i, g := range cfg.Records {
		if g.StartTime.IsZero() {
			return model.InvalidConfigf("records[%d].start_time is required", i)
		}
		first, last := cfg.ImageRange(g)
		if err := checkOrder(first, last, fmt.Sprintf("records[%d]", i)); err != nil {
			return err
		}
	}
	for _, ext := range cfg.Images.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return model.InvalidConfigf("images.extensions: %q must start with a dot", ext)
		}
	}
	if _, err := pipeline.NewOptions(cfg, nil); err != nil {
		return err
	}
	return nil
}

func checkOrder(first, last *int, where string) error {
	if first != nil && last != nil && *first > *last {
		return model.InvalidConfigf("%s: first_image %d is greater than last_image %d", where, *first, *last)
	}
	return nil
}
