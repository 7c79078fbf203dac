package client

import (
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const configfile = ".mindmirror.yml"

// A Config holds client's configuration.
type Config struct {
	Endpoint string
	// Token is the bearer token obtained from the identity provider.
	Token string
	// Identity partitions the local blob store. Recordings made under one
	// identity are invisible to the others.
	Identity   string
	StorageDir string
}

// Load gets the configuration from the current folder according to `configfile` const.
func Load() (Config, error) {
	konf := koanf.New(".")
	if err := konf.Load(file.Provider(configfile), yaml.Parser()); err != nil {
		return Config{}, errors.Wrap(err, "could not read config file")
	}

	cfg := Config{
		Endpoint:   konf.String("endpoint"),
		Token:      konf.String("token"),
		Identity:   konf.String("identity"),
		StorageDir: konf.String("storage_dir"),
	}
	if cfg.Endpoint == "" {
		return cfg, errors.New("endpoint not found")
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "."
	}
	return cfg, nil
}
