package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/config"
	"github.com/btouchard/gox/internal/logging"
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// globalFlags override the loaded configuration.
type globalFlags struct {
	config     string
	verbose    bool
	cacheDir   string
	noCache    bool
	runtimeDir string
	offline    bool
}

var (
	flags globalFlags
	cfg   *config.Config
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(gerrors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gox",
		Short:         "Run Gox scripts, interpreted or built with the Go toolchain",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config file (default $GOX_CONFIG or ~/.config/gox/config.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log build stages and cache activity")
	pf.StringVar(&flags.cacheDir, "cache-dir", "", "directory for native build workspaces")
	pf.BoolVar(&flags.noCache, "no-cache", false, "rebuild native programs on every run")
	pf.StringVar(&flags.runtimeDir, "runtime-dir", "", "local gox checkout native workspaces build against")
	pf.BoolVar(&flags.offline, "offline", false, "resolve Go modules from the local module cache only")

	root.AddCommand(
		newRunCmd(),
		newBuildCmd(),
		newTranspileCmd(),
		newTokensCmd(),
		newASTCmd(),
		newFmtCmd(),
		newReplCmd(),
		newCacheCmd(),
	)
	return root
}

func loadConfig() error {
	getenv := os.Getenv
	if flags.config != "" {
		getenv = func(k string) string {
			if k == "GOX_CONFIG" {
				return flags.config
			}
			return os.Getenv(k)
		}
	}
	c, err := config.LoadEnv(getenv)
	if err != nil {
		return err
	}

	if flags.cacheDir != "" {
		c.CacheDir = flags.cacheDir
	}
	if flags.runtimeDir != "" {
		c.RuntimeDir = flags.runtimeDir
	}
	c.NoCache = c.NoCache || flags.noCache
	c.Offline = c.Offline || flags.offline
	if flags.verbose {
		c.LogLevel = zerolog.DebugLevel.String()
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logging.Setup(os.Stderr, c.Level())
	log.Debug().Str("config", c.Path).Str("cache", c.CacheDir).Msg("configuration loaded")
	cfg = c
	return nil
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
