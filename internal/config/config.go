// Package config gathers the settings of a pdbtojson run from flags, the
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jtang613/pdbtojson/internal/logging"
)

// Setting keys. Each matches a command-line flag.
const (
	KeyOutput     = "output"
	KeyExclude    = "exclude"
	KeyLogLevel   = "log-level"
	KeyNoProgress = "no-progress"
)

const (
	DefaultOutput   = "pdb_dump.json"
	DefaultLogLevel = "info"

	// EnvPrefix namespaces environment variables, e.g. PDBTOJSON_OUTPUT.
	EnvPrefix = "PDBTOJSON"
	// FileName is the config file base name, read as .pdbtojson.yaml,
	// .pdbtojson.toml or any other format viper knows.
	FileName = ".pdbtojson"
)

// ErrNoInput is returned when no PDB path is given.
var ErrNoInput = errors.New("missing path to PDB file")

// Config is the resolved configuration of one run.
type Config struct {
	PDBPath      string
	SourcePrefix string
	Output       string
	Excludes     []string
	LogLevel     int
	NoProgress   bool
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file search path set. With no paths the working directory is
// searched.
func NewViper(configPaths ...string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyOutput, DefaultOutput)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	if len(configPaths) == 0 {
		configPaths = []string{"."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	return v
}

// ReadFile loads the config file if one exists.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// FromViper builds a Config from v and the positional arguments
// <path-to-pdb> [source-file-prefix].
func FromViper(v *viper.Viper, args []string) (Config, error) {
	if len(args) == 0 || args[0] == "" {
		return Config{}, ErrNoInput
	}

	level, err := logging.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		PDBPath:    args[0],
		Output:     v.GetString(KeyOutput),
		LogLevel:   level,
		NoProgress: v.GetBool(KeyNoProgress),
	}
	if excludes := v.GetStringSlice(KeyExclude); len(excludes) > 0 {
		cfg.Excludes = excludes
	}
	if len(args) > 1 {
		cfg.SourcePrefix = args[1]
	}
	if cfg.Output == "" {
		return Config{}, errors.New("output path must not be empty")
	}
	return cfg, nil
}
