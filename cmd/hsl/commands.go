package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"hsl/internal/repl"
	"hsl/internal/store"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.runtime(cmd.OutOrStdout())
			if err != nil {
				return a.fail(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hsl %s, :quit to leave\n", a.cfg.Version)
			return repl.Start(rt, a.cfg.HistoryFile(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored scripts and results",
	}

	open := func(cmd *cobra.Command) (*store.Store, error) {
		db, err := store.Open(cmd.Context(), a.cfg.Store.Driver, a.cfg.Store.DSN, store.WithLogger(a.logger))
		if err != nil {
			return nil, a.fail(cmd, err)
		}
		return db, nil
	}

	save := &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Store the contents of file under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return a.fail(cmd, err)
			}
			db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.SaveScript(cmd.Context(), args[0], string(data)); err != nil {
				return a.fail(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			scripts, err := db.ListScripts(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Updated"})
			for _, s := range scripts {
				table.Append([]string{s.Name, s.UpdatedAt.Local().Format(time.DateTime)})
			}
			table.Render()
			return nil
		},
	}

	results := &cobra.Command{
		Use:   "results <run-id>",
		Short: "Show the stored results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			rows, err := db.LoadResults(cmd.Context(), args[0])
			if err != nil {
				return a.fail(cmd, err)
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Script", "Name", "Kind", "Value"})
			for _, r := range rows {
				table.Append([]string{r.Script, r.Name, r.Kind, r.Value})
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(save, list, results)
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hsl version 'v%s' %s %s\n", a.cfg.Version, a.cfg.BuildDate, a.cfg.Commit)
		},
	}
}
