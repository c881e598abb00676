package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/config"
	"github.com/Veraticus/docmatch/internal/engine"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
	"github.com/Veraticus/docmatch/internal/scorer"
	"github.com/Veraticus/docmatch/internal/similarity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Output formats.
const (
	outputJSON    = "json"
	outputSummary = "summary"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, common.NewUserError("Invalid configuration", err)
	}
	return cfg, nil
}

// scoring bundles the scorer with the remote client behind it, if any.
type scoring struct {
	scorer engine.Scorer
	client *scorer.Client
}

// ready reports whether the remote model can be called.
func (s scoring) ready() bool {
	return s.client == nil || s.client.BreakerState() != scorer.StateOpen
}

func (s scoring) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// newScoring routes whitelisted sites to the remote model and all others
// to the fallback scorer.
func newScoring(cfg config.Config) (scoring, error) {
	fallback := scorer.NewFallback(pairing.Options{
		Comparer: similarity.Comparer{Language: cfg.Matching.Language},
		MinScore: cfg.Matching.MinPairScore,
	})

	var s scoring
	var remote scorer.Scorer
	if cfg.Scorer.Endpoint != "" && !cfg.Scorer.Disabled {
		client, err := scorer.NewClient(cfg.Client())
		if err != nil {
			return scoring{}, fmt.Errorf("failed to create scorer client: %w", err)
		}
		s.client = client
		remote = client
	}

	s.scorer = scorer.NewRouter(remote, fallback, cfg.Router())
	return s, nil
}

// newEngine builds the engine and its scorer.
func newEngine(cfg config.Config) (*engine.Engine, scoring, error) {
	s, err := newScoring(cfg)
	if err != nil {
		return nil, scoring{}, err
	}

	e, err := engine.New(s.scorer, cfg.Engine())
	if err != nil {
		s.Close()
		return nil, scoring{}, err
	}
	return e, s, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readDocument loads one document from a JSON file ("-" for stdin).
func readDocument(path string) (model.Document, error) {
	data, err := readInput(path)
	if err != nil {
		return model.Document{}, err
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Document{}, common.NewUserError(fmt.Sprintf("%s is not a valid document", path), err)
	}
	if err := doc.Validate(); err != nil {
		return model.Document{}, common.NewUserError(fmt.Sprintf("%s is not a valid document", path), err)
	}
	return doc, nil
}

// readDocuments loads a file holding one document or an array of documents.
func readDocuments(path string) ([]model.Document, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var docs []model.Document
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &docs)
	} else {
		var doc model.Document
		err = json.Unmarshal(trimmed, &doc)
		docs = []model.Document{doc}
	}
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("%s holds no valid documents", path), err)
	}

	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return nil, common.NewUserError(fmt.Sprintf("%s holds an invalid document", path), err)
		}
	}
	return docs, nil
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputSummary, "output format (summary, json)")
}

// writeOutput prints v as indented JSON or as the rendered summary.
func writeOutput(cmd *cobra.Command, v any, summary func() string) error {
	format, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()

	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	case outputSummary:
		_, err := fmt.Fprintln(out, summary())
		return err
	default:
		return common.NewUserError(fmt.Sprintf("unknown output format %q", format), nil)
	}
}
