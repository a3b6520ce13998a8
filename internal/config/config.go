// Package config loads tape settings from a .cue or .toml file.
//
// CUE files are unified with an embedded schema so out-of-range values are
// reported with file positions. TOML files are decoded directly and then
// checked by Validate. In both cases fields left unset keep their defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"

	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/runner"
)

//go:embed schema.cue
var schemaCUE string

// Config holds settings shared by the CLI commands.
type Config struct {
	TapeSize      int    `json:"tape_size" toml:"tape_size"`
	BlockSize     int    `json:"block_size" toml:"block_size"`
	MaxSteps      int64  `json:"max_steps" toml:"max_steps"` // 0 means unlimited
	Database      string `json:"database" toml:"database"`
	InputEncoding string `json:"input_encoding" toml:"input_encoding"`
	LogFile       string `json:"log_file" toml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TapeSize:      engine.DefaultTapeSize,
		BlockSize:     engine.DefaultBlockSize,
		InputEncoding: runner.EncodingUTF8,
	}
}

// ConfigError reports a problem with a config file.
type ConfigError struct {
	Path    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	} else if e.Path != "" {
		fmt.Fprintf(&b, "%s: ", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads path and overlays it on Default. The format is chosen by
// extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Message: "cannot read config", Err: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return parseCUE(path, data)
	case ".toml":
		return parseTOML(path, data)
	default:
		return Config{}, &ConfigError{
			Path:    path,
			Message: fmt.Sprintf("unsupported config format %q (want .cue or .toml)", ext),
		}
	}
}

func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile embedded config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(path, err)
	}

	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(path, err)
	}

	cfg := Default()
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	return cfg, nil
}

func parseTOML(path string, data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return Config{}, &ConfigError{
				Path:    path,
				Message: fmt.Sprintf("line %d: %s", perr.Position.Line, perr.Message),
				Err:     err,
			}
		}
		return Config{}, &ConfigError{Path: path, Message: err.Error(), Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, &ConfigError{
			Path:    path,
			Field:   undecoded[0].String(),
			Message: "unknown field",
		}
	}
	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the constraints the CUE schema enforces, for configs that
// did not come from CUE.
func (c Config) Validate() error {
	switch {
	case c.TapeSize <= 0:
		return &ConfigError{Field: "tape_size", Message: fmt.Sprintf("must be positive, got %d", c.TapeSize)}
	case c.BlockSize <= 0:
		return &ConfigError{Field: "block_size", Message: fmt.Sprintf("must be positive, got %d", c.BlockSize)}
	case c.MaxSteps < 0:
		return &ConfigError{Field: "max_steps", Message: fmt.Sprintf("must not be negative, got %d", c.MaxSteps)}
	}
	if _, err := runner.EncodeInput("", c.InputEncoding); err != nil {
		return &ConfigError{Field: "input_encoding", Message: err.Error()}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Path: path, Message: err.Error(), Err: err}
	}

	first := errs[0]
	ce := &ConfigError{Path: path, Message: first.Error(), Err: err}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
