package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/worldstate/internal/app"
	"github.com/MrWong99/worldstate/internal/contract"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Resolve a raw world-state file and print the result",
		Long:  `Resolve a raw world-state file and print the result as JSON.

The resolution context is built from the configured manifests and data
directories. With --offline no context is loaded and every lookup falls back
to its raw value.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().Bool("validate", false, "check the result against the output schema")
	cmd.Flags().Bool("offline", false, "resolve without a context")
	cmd.Flags().Bool("compact", false, "print compact JSON")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cfg.Server.LogLevel)

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var ws *worldstate.WorldState
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		ws, err = worldstate.Parse(raw, nil)
	} else {
		p, perr := app.NewProvider(cfg, nil)
		if perr != nil {
			return perr
		}
		ws, err = worldstate.FromProvider(cmd.Context(), raw, p)
	}
	if err != nil {
		return err
	}

	var out []byte
	if compact, _ := cmd.Flags().GetBool("compact"); compact {
		out, err = json.Marshal(ws)
	} else {
		out, err = json.MarshalIndent(ws, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if validate, _ := cmd.Flags().GetBool("validate"); validate {
		if err := contract.Validate(out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "document matches the output schema")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
