// Package config wires Viper to the CLI's persistent flags.
package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tunepull/internal/dirs"
)

// Init wires Viper with config paths, env, and flag bindings. Non-fatal:
// errors are returned for optional handling by the caller.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: TUNEPULL_*
	viper.SetEnvPrefix("TUNEPULL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("dl_binary", root.PersistentFlags().Lookup("dl-binary"))
	_ = viper.BindPFlag("jobs", root.PersistentFlags().Lookup("jobs"))
	_ = viper.BindPFlag("retries", root.PersistentFlags().Lookup("retries"))
	_ = viper.BindPFlag("retry_delay", root.PersistentFlags().Lookup("retry-delay"))
	_ = viper.BindPFlag("cookies_from", root.PersistentFlags().Lookup("cookies-from"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}
