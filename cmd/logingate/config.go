package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/p-kaiser/logingate/internal/userdb"
)

type Config struct {
	Environment string
	Server      struct {
		Host                  string
		Port                  string
		UnixSocket            string
		UnixSocketPermissions uint32
	}
	Proxy struct {
		Port   string
		Target string
	}
	// Extra credential entries merged over the built-in test users.
	Users []userdb.User
}

func readConfig() (Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/logingate/")
	viper.AddConfigPath(".")

	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.port", "3091")
	viper.SetDefault("proxy.port", "3081")
	viper.SetDefault("proxy.target", "localhost:3080")

	// The stub must be runnable without any config file at all.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("can't read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("LGW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("can't unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c Config) table() userdb.Table {
	table := userdb.Defaults()
	table.Merge(c.Users)
	return table
}
