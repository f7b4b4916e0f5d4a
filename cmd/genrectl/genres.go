package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"submissions/internal/storage"
	"submissions/internal/storage/genres"
	"submissions/internal/types"
)

var (
	listAll      bool
	listCategory string
	listLocale   string
	listRange    storage.Range

	genresCmd = &cobra.Command{
		Use:   "genres",
		Short: "Inspect and (re)install the genres of a context",
	}

	genresListCmd = &cobra.Command{
		Use:   "list CONTEXT_ID",
		Short: "List the enabled genres of a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextId, err := parseId(args[0])
			if err != nil {
				return err
			}

			var rs *genres.ResultSet
			switch {
			case listCategory != "":
				category, ok := types.ParseGenreCategory(listCategory)
				if !ok {
					return fmt.Errorf("unknown category %q", listCategory)
				}
				rs, err = a.Genres.GetByCategory(cmd.Context(), category, contextId, &listRange)
			case listAll:
				rs, err = a.Genres.GetAllByContext(cmd.Context(), contextId, &listRange)
			default:
				rs, err = a.Genres.GetEnabledByContext(cmd.Context(), contextId, &listRange)
			}
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSEQ\tKEY\tCATEGORY\tDEPENDENT\tSORTABLE\tENABLED\tDESIGNATION\tNAME")
			for g, err := range rs.All(cmd.Context()) {
				if err != nil {
					return err
				}

				fmt.Fprintf(tw, "%d\t%g\t%s\t%s\t%t\t%t\t%t\t%s\t%s\n", g.Id, g.Sequence, g.EntryKey,
					g.Category, g.Dependent, g.Sortable, g.Enabled, g.Designation, g.Name.Get(listLocale))
			}

			return tw.Flush()
		},
	}

	genresInstallCmd = &cobra.Command{
		Use:   "install CONTEXT_ID",
		Short: "Install the default genres into a context",
		Args:  cobra.ExactArgs(1),
		RunE: defaultsCommand("install", func(cmd *cobra.Command, contextId int64) (bool, error) {
			return a.Genres.InstallDefaults(cmd.Context(), contextId)
		}),
	}

	genresRestoreCmd = &cobra.Command{
		Use:   "restore CONTEXT_ID",
		Short: "Replace every genre of a context with the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: defaultsCommand("restore", func(cmd *cobra.Command, contextId int64) (bool, error) {
			return a.Genres.RestoreDefaults(cmd.Context(), contextId)
		}),
	}

	genresInstallLocaleCmd = &cobra.Command{
		Use:   "install-locale CONTEXT_ID LOCALE",
		Short: "Add the default genre names of a locale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextId, err := parseId(args[0])
			if err != nil {
				return err
			}

			installed, err := a.Genres.InstallLocale(cmd.Context(), contextId, args[1])
			if err != nil {
				return err
			}

			printInstalled(cmd.OutOrStdout(), "locale "+args[1], installed)
			return nil
		},
	}

	genresPurgeCmd = &cobra.Command{
		Use:   "purge CONTEXT_ID",
		Short: "Remove every genre of a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextId, err := parseId(args[0])
			if err != nil {
				return err
			}

			if err := a.Genres.DeleteAllByContext(cmd.Context(), contextId); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "genres of context %d removed\n", contextId)
			return nil
		},
	}

	genresDisableCmd = &cobra.Command{
		Use:   "disable GENRE_ID",
		Short: "Soft delete a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}

			return a.Genres.SoftDelete(cmd.Context(), id)
		},
	}

	genresRemoveCmd = &cobra.Command{
		Use:   "remove GENRE_ID",
		Short: "Delete a genre and its settings for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}

			g, err := a.Genres.GetById(cmd.Context(), id, 0)
			if err != nil {
				return err
			}
			if g == nil {
				return fmt.Errorf("genre %d not found", id)
			}

			return a.Genres.HardDelete(cmd.Context(), g)
		},
	}
)

func defaultsCommand(what string, fn func(cmd *cobra.Command, contextId int64) (bool, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		contextId, err := parseId(args[0])
		if err != nil {
			return err
		}

		installed, err := fn(cmd, contextId)
		if err != nil {
			return err
		}

		printInstalled(cmd.OutOrStdout(), what, installed)
		return nil
	}
}

func init() { //nolint: gochecknoinits
	genresListCmd.Flags().BoolVar(&listAll, "all", false, "Include disabled genres")
	genresListCmd.Flags().StringVar(&listCategory, "category", "", "Only genres of this category (DOCUMENT, ARTWORK or SUPPLEMENTARY)")
	genresListCmd.Flags().StringVar(&listLocale, "locale", "en", "Locale of the displayed names")
	genresListCmd.Flags().UintVar(&listRange.Page, "page", 1, "Page to show")
	genresListCmd.Flags().UintVar(&listRange.Count, "count", 0, "Genres per page, 0 for all")

	genresCmd.AddCommand(genresListCmd, genresInstallCmd, genresRestoreCmd, genresInstallLocaleCmd,
		genresPurgeCmd, genresDisableCmd, genresRemoveCmd)
}
