package main

import (
	"fmt"

	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/grouping"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/spf13/cobra"
)

func mergeCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-check INVOICE.json DELIVERY.json PO.json",
		Short: "Check whether an invoice and a delivery share purchase order lines",
		Args:  cobra.ExactArgs(3),
		RunE:  runMergeCheck,
	}

	addOutputFlag(cmd)

	return cmd
}

func runMergeCheck(cmd *cobra.Command, args []string) error {
	kinds := []model.Kind{model.KindInvoice, model.KindDeliveryReceipt, model.KindPurchaseOrder}
	docs := make([]model.Document, len(args))
	for i, path := range args {
		doc, err := readDocument(path)
		if err != nil {
			return err
		}
		if doc.Kind != kinds[i] {
			return common.NewUserError(fmt.Sprintf("%s is a %s, expected a %s", path, doc.Kind, kinds[i]), nil)
		}
		docs[i] = doc
	}

	decision := grouping.MergeCheck(docs[0], docs[1], docs[2])
	return writeOutput(cmd, decision, func() string {
		return cli.RenderMergeDecision(decision)
	})
}
