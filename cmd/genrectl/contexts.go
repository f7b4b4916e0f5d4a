package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"submissions/internal/types"
)

var (
	contextName   string
	contextLocale string

	contextsCmd = &cobra.Command{
		Use:   "contexts",
		Short: "List, create and delete contexts",
	}

	contextsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List every context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := a.Contexts.GetAll(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tPATH\tLOCALE\tENABLED\tNAME")
			for _, c := range cs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", c.Id, c.Path, c.PrimaryLocale, c.Enabled,
					c.Name.Get(c.PrimaryLocale))
			}

			return tw.Flush()
		},
	}

	contextsCreateCmd = &cobra.Command{
		Use:   "create PATH",
		Short: "Create a context and install its default genres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &types.Context{
				Path:          args[0],
				PrimaryLocale: contextLocale,
				Name:          types.LocalizedString{},
			}
			if contextName != "" {
				c.Name[contextLocale] = contextName
			}

			id, installed, err := a.Contexts.Insert(cmd.Context(), c)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "context %d created\n", id)
			printInstalled(cmd.OutOrStdout(), "default genres", installed)
			return nil
		},
	}

	contextsDeleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a context with all of its genres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}

			if err := a.Contexts.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "context %d deleted\n", id)
			return nil
		},
	}
)

func init() { //nolint: gochecknoinits
	contextsCreateCmd.Flags().StringVar(&contextName, "name", "", "Context name in its primary locale")
	contextsCreateCmd.Flags().StringVar(&contextLocale, "locale", "en", "Primary locale")

	contextsCmd.AddCommand(contextsListCmd, contextsCreateCmd, contextsDeleteCmd)
}
