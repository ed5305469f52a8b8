// Command worldstate polls the Warframe world state, resolves it into a
// readable document and serves it over HTTP, websockets and MCP.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/worldstate/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:           "worldstate",
		Short:         "Resolve and serve the Warframe world state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(serveCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(duviriCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "worldstate: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config. A missing file is only an
// error when the flag was set explicitly; otherwise the defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	switch {
	case err == nil:
		return cfg, path, nil
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		return config.Default(), "", nil
	default:
		return nil, "", err
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger installs a text logger on stderr as the default and returns its
// level so config reloads can adjust it.
func newLogger(level config.LogLevel) *slog.LevelVar {
	lvl := new(slog.LevelVar)
	lvl.Set(level.Level())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return lvl
}
