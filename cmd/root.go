// Package cmd wires the lnk command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/madc/lnk/internal/config"
	"github.com/madc/lnk/internal/log"
	"github.com/madc/lnk/internal/store"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lnk",
	Short: "A flat-file link registry and redirect server",
	Long: `lnk maintains a registry of short link ids in a plain tab-separated
text file and serves permanent redirects from it.

The registry format is one record per line:

  <id>	<url>	<updatedAt>	<comment>

Edit it with add/rm/import/fmt, inspect it with list, and serve
redirects from it with serve.`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/lnk/config.yaml)")
	rootCmd.PersistentFlags().StringP("file", "f", "",
		"registry file to edit (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (see also LNK_DEBUG / LNK_LOG)")

	// Bind flags to viper
	_ = viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("file", defaults.File)
	viper.SetDefault("base_url", defaults.BaseURL)
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.links_path", defaults.Server.LinksPath)
	viper.SetDefault("server.index_path", defaults.Server.IndexPath)
	viper.SetDefault("server.cache_ttl", defaults.Server.CacheTTL)
	viper.SetDefault("server.watch", defaults.Server.Watch)
	viper.SetDefault("server.fetch_timeout", defaults.Server.FetchTimeout)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .lnk/config.yaml (current directory)
		// 2. ~/.config/lnk/config.yaml (user config)
		if _, err := os.Stat(".lnk/config.yaml"); err == nil {
			viper.SetConfigFile(".lnk/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "lnk"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .lnk/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".lnk/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setupLogging(_ *cobra.Command, _ []string) error {
	debug := debugFlag || os.Getenv("LNK_DEBUG") != ""
	if !debug {
		return nil
	}

	logPath := os.Getenv("LNK_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	cobra.OnFinalize(cleanup)

	// The env var alone keeps the log at info; --debug opens it up.
	if debugFlag {
		log.SetMinLevel(log.LevelDebug)
	} else {
		log.SetMinLevel(log.LevelInfo)
	}

	log.Info(log.CatConfig, "lnk starting", "version", version, "logPath", logPath)
	return nil
}

// boundHandle returns the handle for the configured registry file, or a
// nil Handle when no file is bound. Mutations against a nil handle are
// dropped by the store, so commands print a notice in that case.
func boundHandle() store.Handle {
	if cfg.File == "" {
		return nil
	}
	return store.NewFileHandle(cfg.File)
}

// warnUnbound tells the user a mutation went nowhere.
func warnUnbound(cmd *cobra.Command) {
	cmd.PrintErrln("no registry file bound; nothing written (set --file or 'file' in config)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
