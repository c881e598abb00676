package main

import (
	"fmt"

	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/common"
	"github.com/spf13/cobra"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match A.json B.json",
		Short: "Match two documents and print the report",
		Long: `Match two documents and print the match report.

The certainty comes from the configured scorer unless --certainty is given.

Examples:
  docmatch match invoice.json po.json
  docmatch match invoice.json delivery.json --certainty 0.9 -o json`,
		Args: cobra.ExactArgs(2),
		RunE: runMatch,
	}

	cmd.Flags().Float64("certainty", 0, "use this certainty instead of the scorer")
	addOutputFlag(cmd)

	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	a, err := readDocument(args[0])
	if err != nil {
		return err
	}
	b, err := readDocument(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, s, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if cmd.Flags().Changed("certainty") {
		certainty, _ := cmd.Flags().GetFloat64("certainty")
		if certainty < 0 || certainty > 1 {
			return common.NewUserError(fmt.Sprintf("certainty %v must be within [0,1]", certainty), nil)
		}
		rep := e.Compare(a, b, &certainty)
		return writeOutput(cmd, rep, func() string { return cli.RenderReport(rep) })
	}

	rep, err := e.Match(cmd.Context(), a, b)
	if err != nil {
		return fmt.Errorf("failed to match documents: %w", err)
	}
	return writeOutput(cmd, rep, func() string { return cli.RenderReport(rep) })
}
