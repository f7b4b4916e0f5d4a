// Package config reads the settings of the server and genrectl from the
// environment (and a .env file, when the binary loads one).
package config

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"submissions/internal/locale"
	"submissions/internal/logger"
	"submissions/internal/storage"
)

type Config struct {
	DatabaseURL string `validate:"required"`
	DBDriver    string `validate:"oneof=postgres sqlite"`

	LogLevel  slog.Level
	LogFormat string `validate:"oneof=json text"`

	BindAddr  string `validate:"required"`
	DebugMode bool

	// RegistryDir replaces the bundled default registry when set.
	RegistryDir string
	// LocaleDir replaces the bundled translations when set.
	LocaleDir string

	// Locales default names are installed in, PrimaryLocale first.
	Locales       []string `validate:"min=1"`
	PrimaryLocale string   `validate:"required"`
}

var defaults = map[string]string{
	"DATABASE_URL":   "",
	"DB_DRIVER":      storage.DriverPostgres,
	"LOG_LEVEL":      "debug",
	"LOG_FORMAT":     "text",
	"BIND_ADDR":      ":8080",
	"DEBUG_MODE":     "",
	"REGISTRY_DIR":   "",
	"LOCALE_DIR":     "",
	"LOCALES":        "en",
	"PRIMARY_LOCALE": "",
}

// Load reads every key from the environment, falling back to the defaults.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key); err != nil {
			return Config{}, errors.Wrapf(err, "bind %s", key)
		}
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		DatabaseURL: getString(v, "DATABASE_URL"),
		DBDriver:    strings.ToLower(getString(v, "DB_DRIVER")),
		LogFormat:   strings.ToLower(getString(v, "LOG_FORMAT")),
		BindAddr:    getString(v, "BIND_ADDR"),
		DebugMode:   getBool(v, "DEBUG_MODE"),
		RegistryDir: getString(v, "REGISTRY_DIR"),
		LocaleDir:   getString(v, "LOCALE_DIR"),
	}

	lvl, err := logger.ParseLevel(getString(v, "LOG_LEVEL"))
	if err != nil {
		return Config{}, errors.Wrap(err, "LOG_LEVEL")
	}
	c.LogLevel = lvl

	var locales []string
	for _, loc := range strings.Split(getString(v, "LOCALES"), ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locales = append(locales, loc)
		}
	}

	if c.Locales, err = locale.NormalizeAll(locales); err != nil {
		return Config{}, errors.Wrap(err, "LOCALES")
	}

	c.PrimaryLocale = getString(v, "PRIMARY_LOCALE")
	if c.PrimaryLocale == "" && len(c.Locales) > 0 {
		c.PrimaryLocale = c.Locales[0]
	}

	if c.PrimaryLocale != "" {
		if c.PrimaryLocale, err = locale.Normalize(c.PrimaryLocale); err != nil {
			return Config{}, errors.Wrap(err, "PRIMARY_LOCALE")
		}

		// the primary locale leads: it decides the designation of default genres
		c.Locales = slices.DeleteFunc(c.Locales, func(loc string) bool { return loc == c.PrimaryLocale })
		c.Locales = append([]string{c.PrimaryLocale}, c.Locales...)
	}

	if err := validator.New().Struct(c); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}

	return c, nil
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func getBool(v *viper.Viper, key string) bool {
	switch strings.ToLower(getString(v, key)) {
	case "1", "yes", "on", "true":
		return true
	}

	return false
}
