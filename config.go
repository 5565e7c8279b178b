package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"personal-library/library"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "LIBRARY"

	cfgKeyDBPath       = "db.path"
	cfgKeyDriver       = "db.driver"
	cfgKeySearchFields = "search.fields"
	cfgKeyExportDir    = "export.dir"
	cfgKeyUser         = "auth.user"
	cfgKeyPassword     = "auth.password"

	defaultDBPath = "library.db"
)

// loadConfig reads config.yaml with Viper. An explicit file must exist; when
// none is given, ./config.yaml and $XDG_CONFIG_HOME/personal-library/config.yaml
// are tried and a missing file is not an error. flags are bound over the file
// values, and LIBRARY_* environment variables over both.
func loadConfig(file string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDBPath, defaultDBPath)
	v.SetDefault(cfgKeyDriver, library.DriverCGO)
	v.SetDefault(cfgKeySearchFields, []string{string(library.FieldAuthor), string(library.FieldCategory)})
	v.SetDefault(cfgKeyExportDir, ".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		cfgKeyDBPath: "db",
		cfgKeyDriver: "driver",
		cfgKeyUser:   "user",
	}
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "personal-library"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// databaseOptions turns configuration into library.Options.
func databaseOptions(v *viper.Viper) ([]library.Option, error) {
	driver := v.GetString(cfgKeyDriver)
	switch driver {
	case library.DriverCGO, library.DriverPure:
	default:
		return nil, fmt.Errorf("unknown db.driver %q: must be %s or %s", driver, library.DriverCGO, library.DriverPure)
	}

	fields, err := library.ParseSearchFields(v.GetStringSlice(cfgKeySearchFields))
	if err != nil {
		return nil, err
	}
	return []library.Option{
		library.WithDriver(driver),
		library.WithSearchFields(fields...),
	}, nil
}
