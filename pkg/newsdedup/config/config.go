package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/minhash"
)

// HTML stripping modes.
const (
	HTMLModeRegex = "regex"
	HTMLModeParse = "parse"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEWSDEDUP_"

// Config holds the recognized dedup options.
type Config struct {
	Threshold   float64 `yaml:"threshold"`
	ShingleSize int     `yaml:"shingle_size"`
	NumPerm     int     `yaml:"num_perm"`
	BlockByDate bool    `yaml:"block_by_date"`
	Seed        int64   `yaml:"seed"`
	Workers     int     `yaml:"workers"`
	HTMLMode    string  `yaml:"html_mode"`
	Stoplist    string  `yaml:"stoplist"` // YAML terms file; empty uses the built-in English list
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Threshold:   0.8,
		ShingleSize: 5,
		NumPerm:     128,
		BlockByDate: false,
		Seed:        minhash.DefaultSeed,
		Workers:     runtime.GOMAXPROCS(0),
		HTMLMode:    HTMLModeRegex,
	}
}

// Validate reports the first option outside its accepted range.
func (c Config) Validate() error {
	if !(c.Threshold > 0 && c.Threshold <= 1) {
		return &internalerr.ConfigError{Field: "threshold", Msg: fmt.Sprintf("must be in (0, 1], got %g", c.Threshold)}
	}
	if c.ShingleSize <= 0 {
		return &internalerr.ConfigError{Field: "shingle_size", Msg: fmt.Sprintf("must be positive, got %d", c.ShingleSize)}
	}
	if c.NumPerm <= 0 {
		return &internalerr.ConfigError{Field: "num_perm", Msg: fmt.Sprintf("must be positive, got %d", c.NumPerm)}
	}
	if c.Workers <= 0 {
		return &internalerr.ConfigError{Field: "workers", Msg: fmt.Sprintf("must be positive, got %d", c.Workers)}
	}
	switch c.HTMLMode {
	case HTMLModeRegex, HTMLModeParse:
	default:
		return &internalerr.ConfigError{Field: "html_mode", Msg: fmt.Sprintf("unknown mode %q", c.HTMLMode)}
	}
	return nil
}

// LoadFile overlays the YAML file at path onto base. Keys absent from the
// file keep their value from base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a lookup that consults the process environment first and
// then the dotenv file at path. A missing file is not an error.
func EnvLookup(path string) (LookupFunc, error) {
	vars := map[string]string{}
	if path != "" {
		read, err := godotenv.Read(path)
		switch {
		case err == nil:
			vars = read
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// ApplyEnv overlays NEWSDEDUP_* variables onto c.
func (c Config) ApplyEnv(lookup LookupFunc) (Config, error) {
	if v, ok := lookup(EnvPrefix + "THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, envError("THRESHOLD", v)
		}
		c.Threshold = f
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"SHINGLE_SIZE", &c.ShingleSize},
		{"NUM_PERM", &c.NumPerm},
		{"WORKERS", &c.Workers},
	}
	for _, iv := range ints {
		if v, ok := lookup(EnvPrefix + iv.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c, envError(iv.key, v)
			}
			*iv.dst = n
		}
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, envError("SEED", v)
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvPrefix + "BLOCK_BY_DATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, envError("BLOCK_BY_DATE", v)
		}
		c.BlockByDate = b
	}
	if v, ok := lookup(EnvPrefix + "HTML_MODE"); ok {
		c.HTMLMode = v
	}
	if v, ok := lookup(EnvPrefix + "STOPLIST"); ok {
		c.Stoplist = v
	}
	return c, nil
}

func envError(key, value string) error {
	return &internalerr.ConfigError{Field: EnvPrefix + key, Msg: fmt.Sprintf("cannot parse %q", value)}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
