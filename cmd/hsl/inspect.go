package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"hsl/internal/parser"
	"hsl/internal/script"
)

func readFile(a *app, cmd *cobra.Command, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", a.fail(cmd, fmt.Errorf("reading script: %w", err))
	}
	return string(data), nil
}

// compile takes source through the stages up to stop.
func compile(a *app, cmd *cobra.Command, path string, stop script.State) (*script.ScriptContext, error) {
	source, err := readFile(a, cmd, path)
	if err != nil {
		return nil, err
	}
	rt, err := a.runtime(cmd.OutOrStdout())
	if err != nil {
		return nil, a.fail(cmd, err)
	}
	sc, err := rt.NewContext(source)
	if err != nil {
		return nil, a.fail(cmd, err)
	}

	stages := []struct {
		state script.State
		run   func(*script.ScriptContext) error
	}{
		{script.LEXED, rt.Tokenize},
		{script.PARSED, rt.Parse},
		{script.RESOLVED, rt.Resolve},
	}
	for _, stage := range stages {
		if err := stage.run(sc); err != nil {
			report(cmd.ErrOrStderr(), path, err)
			return nil, err
		}
		if stage.state == stop {
			break
		}
	}
	return sc, nil
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Lex, parse and resolve scripts without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				if _, err := compile(a, cmd, path, script.RESOLVED); err != nil {
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return a.fail(cmd, fmt.Errorf("%d of %d scripts failed", failed, len(args)))
			}
			return nil
		},
	}
}

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the tokens of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := compile(a, cmd, args[0], script.LEXED)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Line", "Column", "Type", "Lexeme"})
			table.SetAutoWrapText(false)
			for _, tok := range sc.Tokens() {
				table.Append([]string{
					strconv.Itoa(tok.Line),
					strconv.Itoa(tok.Column),
					string(tok.Type),
					tok.Lexeme,
				})
			}
			table.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "%d tokens, %d comments\n", len(sc.Tokens()), len(sc.Comments()))
			return nil
		},
	}
}

func newASTCmd(a *app) *cobra.Command {
	var asJSON, dump bool
	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the syntax tree of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := compile(a, cmd, args[0], script.PARSED)
			if err != nil {
				return err
			}
			program := sc.Program()
			out := cmd.OutOrStdout()

			switch {
			case dump:
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
				cfg.Fdump(out, program)
			case asJSON:
				text, err := parser.RenderASTAsJSON(program)
				if err != nil {
					return a.fail(cmd, err)
				}
				fmt.Fprintln(out, text)
			default:
				fmt.Fprintln(out, parser.RenderASTAsText(program, 0))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the Go values of the tree")
	return cmd
}
