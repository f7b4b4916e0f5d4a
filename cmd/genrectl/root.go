package main

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"runtime"
	"strconv"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"submissions/internal/app"
	"submissions/internal/config"
	"submissions/internal/logger"
)

var (
	a *app.App

	rootCmd = &cobra.Command{
		Use:           "genrectl",
		Short:         "genrectl manages contexts and the genres of their submissions",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, thisFile, _, _ := runtime.Caller(0)

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			err = logger.SetupSLog(cfg.LogLevel, cfg.LogFormat, path.Dir(path.Dir(path.Dir(thisFile))), nil)
			if err != nil {
				return err
			}

			a, err = app.New(cmd.Context(), cfg, slog.Default())
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Create the tables when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(schemaCmd, contextsCmd, genresCmd)
}

func parseId(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printInstalled(w io.Writer, what string, installed bool) {
	if installed {
		fmt.Fprintln(w, what+": done")
		return
	}

	fmt.Fprintln(w, what+": no default data available, nothing changed")
}

