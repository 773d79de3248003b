// Package config resolves the settings of the recordgen command from
// flags, environment, .env files and the recordgen.yaml config file.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/syssam/recordgen/dialect"
)

// Name is the base name of the config file.
const Name = "recordgen"

// EnvPrefix prefixes the environment variables read as settings, as in
// RECORDGEN_DSN.
const EnvPrefix = "RECORDGEN"

// Setting keys. Flags use the same names.
const (
	KeyDialect      = "dialect"
	KeyDSN          = "dsn"
	KeySchema       = "schema"
	KeySchemaFile   = "schema-file"
	KeyNamespace    = "namespace"
	KeyPackage      = "package"
	KeyExtend       = "extend"
	KeyFilter       = "filter"
	KeyForce        = "force"
	KeyFromDatabase = "from-database"
	KeyWatch        = "watch"
	KeyLogLevel     = "log-level"
	KeyLogJSON      = "log-json"
	KeyHeader       = "header"
)

// Config holds the resolved settings of one run.
type Config struct {
	// Driver is the database/sql driver name as configured.
	Driver string
	// Dialect is the normalised dialect of Driver.
	Dialect      string
	DSN          string
	Schemas      []string
	SchemaFile   string
	Namespace    string
	Package      string
	Extend       string
	Filters      []string
	Force        bool
	FromDatabase bool
	Watch        bool
	LogLevel     string
	LogJSON      bool
	Header       string
	// File is the config file that was read, if any.
	File string
}

// Loader reads settings through a viper instance.
type Loader struct {
	// Fs is the filesystem config and .env files are read from.
	Fs afero.Fs
	// Viper holds the bound flags. A fresh instance is used when nil.
	Viper *viper.Viper
	// Dir is the working directory searched for config and .env files.
	Dir string
}

// NewLoader returns a loader over the OS filesystem and the current
// directory.
func NewLoader(v *viper.Viper) *Loader {
	return &Loader{Fs: afero.NewOsFs(), Viper: v, Dir: "."}
}

// Load resolves the settings. file, when set, names the config file
// explicitly and must exist; otherwise recordgen.yaml is searched in the
// working directory and in $HOME/.config/recordgen.
func (l *Loader) Load(file string) (*Config, error) {
	v := l.Viper
	if v == nil {
		v = viper.New()
	}
	fs := l.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := l.Dir
	if dir == "" {
		dir = "."
	}
	if err := loadDotEnv(fs, dir); err != nil {
		return nil, err
	}
	v.SetFs(fs)
	v.SetDefault(KeyLogLevel, "info")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return nil, errors.Wrapf(err, "config: expand %s", file)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithHint(errors.Wrapf(err, "config: read %s", path), "check the --config path")
		}
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "config: read config file")
			}
		}
	}

	cfg := &Config{
		Driver:       dialect.DriverName(v.GetString(KeyDialect)),
		Dialect:      dialect.Normalize(v.GetString(KeyDialect)),
		DSN:          v.GetString(KeyDSN),
		Schemas:      v.GetStringSlice(KeySchema),
		Namespace:    v.GetString(KeyNamespace),
		Package:      v.GetString(KeyPackage),
		Extend:       v.GetString(KeyExtend),
		Filters:      v.GetStringSlice(KeyFilter),
		Force:        v.GetBool(KeyForce),
		FromDatabase: v.GetBool(KeyFromDatabase),
		Watch:        v.GetBool(KeyWatch),
		LogLevel:     v.GetString(KeyLogLevel),
		LogJSON:      v.GetBool(KeyLogJSON),
		Header:       v.GetString(KeyHeader),
		File:         v.ConfigFileUsed(),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	if sf := v.GetString(KeySchemaFile); sf != "" {
		path, err := homedir.Expand(sf)
		if err != nil {
			return nil, errors.Wrapf(err, "config: expand %s", sf)
		}
		cfg.SchemaFile = path
	}
	return cfg, nil
}

// Validate checks that the settings name a metadata source.
func (c *Config) Validate() error {
	switch {
	case c.FromDatabase && c.DSN == "":
		return errors.WithHint(errors.New("config: --from-database requires a data source name"),
			"pass --dsn or set RECORDGEN_DSN or DATABASE_URL")
	case c.FromDatabase && c.Dialect == "":
		return errors.WithHint(errors.New("config: --from-database requires a dialect"),
			"pass --dialect postgres, mysql or sqlite3")
	case c.FromDatabase && !dialect.Supported(c.Dialect):
		return errors.Newf("config: unsupported dialect %q", c.Dialect)
	case !c.FromDatabase && c.SchemaFile == "":
		return errors.WithHint(errors.New("config: no metadata source"),
			"pass --from-database with --dsn, or --schema-file")
	case c.Watch && c.SchemaFile == "":
		return errors.WithHint(errors.New("config: --watch requires a schema file"),
			"watch mode re-runs the conversion when --schema-file changes")
	}
	return nil
}

// loadDotEnv sets the variables of dir/.env and then dir/.env.local.
// Variables already present in the environment win over .env, while
// .env.local overrides both.
func loadDotEnv(fs afero.Fs, dir string) error {
	for _, f := range []struct {
		name     string
		override bool
	}{{".env", false}, {".env.local", true}} {
		path := filepath.Join(dir, f.name)
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			continue
		}
		vars, err := godotenv.Parse(bytes.NewReader(b))
		if err != nil {
			return errors.Wrapf(err, "config: parse %s", path)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); set && !f.override {
				continue
			}
			if err := os.Setenv(k, val); err != nil {
				return errors.Wrapf(err, "config: set %s", k)
			}
		}
	}
	return nil
}
