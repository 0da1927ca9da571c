// Package keygen implements the envkey command line tools.
package keygen

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"github.com/Jille/envkey/internal/envfile"
	"github.com/Jille/envkey/secretkey"
)

// Output formats accepted by Run.
const (
	FormatText  = "text"
	FormatEnv   = "env"
	FormatPlain = "plain"
)

var (
	// ErrUnknownFormat is returned for a Format other than the Format* constants.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrSizeMismatch is returned by Check when the stored key has the wrong length.
	ErrSizeMismatch = errors.New("key size mismatch")
)

// Config holds the settings shared by envkey-gen and envkey-check.
// Defaults are read from the environment and flags override them.
type Config struct {
	Size    int    `env:"ENVKEY_SIZE" envDefault:"32"`
	Var     string `env:"ENVKEY_VAR" envDefault:"SECRET_KEY"`
	EnvFile string `env:"ENVKEY_FILE"`
	Format  string `env:"ENVKEY_FORMAT" envDefault:"text"`
	Force   bool
}

func parseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func addCommonFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Size, "size", "s", cfg.Size, "Number of random bytes in the key")
	fs.StringVarP(&cfg.Var, "name", "n", cfg.Var, "Name of the environment variable holding the key")
}

// ParseConfig parses the flags of envkey-gen into a Config.
func ParseConfig(fs *pflag.FlagSet, args []string) (Config, error) {
	cfg, err := parseEnv()
	if err != nil {
		return Config{}, err
	}
	addCommonFlags(fs, &cfg)
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Output format: text, env or plain")
	fs.StringVarP(&cfg.EnvFile, "env-file", "o", cfg.EnvFile, "Also store the key in this .env file")
	fs.BoolVar(&cfg.Force, "force", cfg.Force, "Replace the variable if the .env file already has it")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.validateFormat(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseCheckConfig parses the flags of envkey-check into a Config.
func ParseCheckConfig(fs *pflag.FlagSet, args []string) (Config, error) {
	cfg, err := parseEnv()
	if err != nil {
		return Config{}, err
	}
	addCommonFlags(fs, &cfg)
	fs.StringVarP(&cfg.EnvFile, "env-file", "o", cfg.EnvFile, "Path to the .env file to check")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.EnvFile == "" {
		return Config{}, errors.New("--env-file is required")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := secretkey.CheckSize(c.Size); err != nil {
		return err
	}
	if !envfile.ValidName(c.Var) {
		return fmt.Errorf("%q: %w", c.Var, envfile.ErrInvalidName)
	}
	return nil
}

func (c Config) validateFormat() error {
	switch c.Format {
	case FormatText, FormatEnv, FormatPlain:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
}

// Run generates a new key and writes it to out in the configured format.
// If cfg.EnvFile is set the key is stored there as well.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := cfg.validateFormat(); err != nil {
		return err
	}

	key, err := secretkey.Generate(cfg.Size)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	encoded := secretkey.Encode(key)

	if cfg.EnvFile != "" {
		if err := envfile.Set(cfg.EnvFile, cfg.Var, encoded, cfg.Force); err != nil {
			return err
		}
		log.Printf("Stored %s in %s (fingerprint %s)", cfg.Var, cfg.EnvFile, secretkey.Fingerprint(key))
	}

	switch cfg.Format {
	case FormatText:
		_, err = fmt.Fprintf(out, "Raw key length: %d bytes\nBase64 encoded key: %s\n", key.Len(), encoded)
	case FormatEnv:
		_, err = fmt.Fprintf(out, "%s=%s\n", cfg.Var, encoded)
	case FormatPlain:
		_, err = fmt.Fprintln(out, encoded)
	}
	return err
}

// Check verifies that cfg.Var in cfg.EnvFile holds a base64 key of cfg.Size
// bytes and reports its fingerprint.
func Check(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if cfg.EnvFile == "" {
		return errors.New("env file is required")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	value, err := envfile.Lookup(cfg.EnvFile, cfg.Var)
	if err != nil {
		return err
	}
	key, err := secretkey.Decode(value)
	if err != nil {
		return fmt.Errorf("%s in %q: %w", cfg.Var, cfg.EnvFile, err)
	}
	if key.Len() != cfg.Size {
		return fmt.Errorf("%s in %q is %d bytes, want %d: %w", cfg.Var, cfg.EnvFile, key.Len(), cfg.Size, ErrSizeMismatch)
	}
	_, err = fmt.Fprintf(out, "%s: %d bytes, fingerprint %s\n", cfg.Var, key.Len(), secretkey.Fingerprint(key))
	return err
}
