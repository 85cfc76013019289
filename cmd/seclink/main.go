package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvusHold/seclink/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	root := &cobra.Command{
		Use:   "seclink",
		Short: "Security event bridge between the legacy and new listener APIs",
		Long: `seclink relays authentication and login events between the legacy
listener API and the new one, in both directions, without echo loops.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seclink.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().String("propagation", "", "dispatch propagation (all, stop_on_false)")
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("dispatch_propagation", root.PersistentFlags().Lookup("propagation"))

	root.AddCommand(newServeCmd(v))
	root.AddCommand(newFireCmd(v))
	root.AddCommand(newTokenCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".seclink")
	}

	// Environment variables
	v.SetEnvPrefix("SECLINK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// loadConfig reads the process environment and lets flags, SECLINK_* variables
// and the config file override it.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if s := v.GetString("addr"); s != "" {
		cfg.AppAddr = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = strings.ToLower(s)
	}
	if s := v.GetString("dispatch_propagation"); s != "" {
		cfg.DispatchPropagation = strings.ToLower(s)
	}
	if s := v.GetString("jwt_signing_key"); s != "" {
		cfg.JWTSigningKey = s
	}
	if s := v.GetString("redis_addr"); s != "" {
		cfg.RedisAddr = s
	}
	if v.IsSet("audit_enabled") {
		cfg.AuditEnabled = v.GetBool("audit_enabled")
	}
	if n := v.GetInt("rate_limit_per_minute"); n > 0 {
		cfg.RateLimitPerMinute = n
	}
	return cfg, nil
}
