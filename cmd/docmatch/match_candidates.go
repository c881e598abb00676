package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/docmatch/internal/api"
	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/engine"
	"github.com/Veraticus/docmatch/internal/tui"
	"github.com/spf13/cobra"
)

func matchCandidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match-candidates REQUEST.json",
		Short: "Match a document against candidate documents",
		Long: `Match a document against a list of candidates and print the reports,
best candidate first.

The request file holds {"document": {...}, "candidate-documents": [...]}.`,
		Args: cobra.ExactArgs(1),
		RunE: runMatchCandidates,
	}

	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	cmd.Flags().BoolP("interactive", "i", false, "browse the reports in the terminal")
	addOutputFlag(cmd)

	return cmd
}

func runMatchCandidates(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	var req api.CandidateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return common.NewUserError(fmt.Sprintf("%s is not a valid candidate request", args[0]), err)
	}
	if req.Document == nil {
		return common.NewUserError(fmt.Sprintf("%s has no document", args[0]), nil)
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

	var progress engine.ProgressFunc
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress && len(req.Candidates) > 0 {
		bar := cli.NewProgress(cmd.ErrOrStderr(), len(req.Candidates), "Matching candidates...")
		defer bar.Finish()
		progress = bar.Update
	}

	reports, err := e.MatchCandidates(cmd.Context(), *req.Document, req.Candidates, progress)
	if err != nil {
		return fmt.Errorf("failed to match candidates: %w", err)
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return tui.Run(cmd.Context(), reports, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	return writeOutput(cmd, api.CandidateResponse{Reports: reports}, func() string {
		return cli.RenderReports(reports)
	})
}
