package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/mixvfs/internal/config"
	"github.com/ossyrian/mixvfs/internal/logging"
	"github.com/ossyrian/mixvfs/internal/vfs"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mixvfs",
	Short: "Browse the layered game archives of Tiberian Sun and Red Alert 2",
	Long: `mixvfs mounts a game install directory the way the engine does (loose files,
expansion and mod containers, language packs) and resolves asset names through it.
The first mounted archive that holds a name supplies it.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// game
	rootCmd.PersistentFlags().StringP("engine", "e", "auto", "engine variant (ts, fs, ra2, yr, auto)")
	rootCmd.PersistentFlags().StringP("install-dir", "i", "", "game install directory (default: located from config or registry)")
	rootCmd.PersistentFlags().StringSliceP("mount", "m", nil, "extra directories or containers mounted before the game archives")
	rootCmd.PersistentFlags().String("wildcards", "after-core", "placement of discovered containers (after-core, first)")

	// other opts
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	viper.BindPFlag("install_dir", rootCmd.PersistentFlags().Lookup("install-dir"))
	viper.BindPFlag("mounts", rootCmd.PersistentFlags().Lookup("mount"))
	viper.BindPFlag("wildcards", rootCmd.PersistentFlags().Lookup("wildcards"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	rootCmd.AddCommand(
		planCmd,
		mountsCmd,
		existsCmd,
		whichCmd,
		catCmd,
		extractCmd,
		verifyCmd,
	)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mixvfs"))
		}
		viper.AddConfigPath("/etc/mixvfs")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("MIXVFS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup decodes the configuration and installs the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	return nil
}

// openRegistry mounts the configured extra paths, then the engine archives
func openRegistry() (*vfs.Registry, error) {
	engine, err := cfg.EngineVariant()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.PlanOptions()
	if err != nil {
		return nil, err
	}
	installDir, err := cfg.ResolveInstallDir(engine)
	if err != nil {
		return nil, err
	}

	r := vfs.New(vfs.WithLogger(slog.Default()))

	for _, path := range cfg.Mounts {
		if err := r.Mount(path); err != nil {
			slog.Warn("skipping extra mount", "path", path, "error", err)
		}
	}

	if err := r.Scan(engine, installDir, opts); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
