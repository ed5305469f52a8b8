package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrWong99/worldstate/internal/app"
	"github.com/MrWong99/worldstate/internal/store"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw world state once",
		Args:  cobra.NoArgs,
		RunE:  runFetch,
	}
	cmd.Flags().StringP("out", "o", "", "write the document to this file instead of stdout")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cfg.Server.LogLevel)

	start := time.Now()
	doc, err := app.NewFetcher(cfg, nil).Fetch(cmd.Context())
	if err != nil {
		return err
	}
	took := time.Since(start)

	fmt.Fprintf(cmd.ErrOrStderr(), "fetched %s from %s in %s (sha256 %.12s)\n",
		humanize.Bytes(uint64(len(doc.Body))), doc.Source, took.Round(time.Millisecond), store.Hash(doc.Body))

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err = cmd.OutOrStdout().Write(doc.Body)
		return err
	}
	return os.WriteFile(out, doc.Body, 0o644)
}
