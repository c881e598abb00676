package main

import (
	"github.com/Veraticus/docmatch/internal/api"
	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/grouping"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/spf13/cobra"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group DOCS.json...",
		Short: "Group documents into three-way matches",
		Long: `Group invoices and delivery receipts with the purchase orders whose
lines they reference. Each file holds a document or an array of documents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGroup,
	}

	addOutputFlag(cmd)

	return cmd
}

func runGroup(cmd *cobra.Command, args []string) error {
	var docs []model.Document
	for _, path := range args {
		loaded, err := readDocuments(path)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
	}

	groups := grouping.Group(docs)
	if groups == nil {
		groups = []grouping.ThreeWayGroup{}
	}
	return writeOutput(cmd, api.GroupsResponse{Groups: groups}, func() string {
		return cli.RenderGroups(groups)
	})
}
