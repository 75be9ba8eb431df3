package config

import (
	"fmt"

	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
	"github.com/cognicore/newsdedup/pkg/newsdedup/stoplist"
)

// Loader resolves configuration from its sources, in increasing precedence:
// defaults, the YAML file, then the environment (and dotenv file).
type Loader struct {
	ConfigPath string
	DotEnvPath string
}

// Components holds all loaded configuration components
type Components struct {
	Config     Config
	Stoplist   *stoplist.Manager
	Normalizer *ingest.Normalizer
}

// Config merges defaults, file and environment. The result is not validated
// so callers can overlay command-line flags first.
func (l *Loader) Config() (Config, error) {
	cfg := Default()

	if l.ConfigPath != "" {
		var err error
		cfg, err = LoadFile(l.ConfigPath, cfg)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	lookup, err := EnvLookup(l.DotEnvPath)
	if err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}
	return cfg.ApplyEnv(lookup)
}

// Build validates cfg and constructs the components it describes.
func Build(cfg Config) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{Config: cfg}

	if cfg.Stoplist != "" {
		sl, err := LoadStoplist(cfg.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms)
	} else {
		comp.Stoplist = stoplist.English()
	}

	var opts []ingest.Option
	if cfg.HTMLMode == HTMLModeParse {
		opts = append(opts, ingest.WithHTMLParser())
	}
	comp.Normalizer = ingest.NewNormalizer(comp.Stoplist, opts...)

	return comp, nil
}

// Load resolves the configuration and builds its components.
func (l *Loader) Load() (*Components, error) {
	cfg, err := l.Config()
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}
