// Package config owns the viper-backed settings, their defaults and the typed snapshot handed to playback.
package config

import (
	"errors"
	"strings"

	"github.com/avsync-cli/avsync/constant"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps configuration keys onto environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers defaults and environment bindings, then reads avsync.toml from the config directory if present.
func Setup() error {
	viper.SetConfigName(constant.Avsync)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Avsync)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}
