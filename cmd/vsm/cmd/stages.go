package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "Process the query XML into processed queries and expected results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline(cmd.Context(), false)
			if err != nil {
				return err
			}
			qs, err := p.ProcessQueries(cmd.Context())
			if err != nil {
				return interrupted(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queries, %d judgments\n", len(qs.Queries), len(qs.Judgments))
			return nil
		},
	}
}

func newInvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invert",
		Short: "Build the inverted list from the corpus files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline(cmd.Context(), false)
			if err != nil {
				return err
			}
			inv, err := p.Invert(cmd.Context())
			if err != nil {
				return interrupted(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d documents, %d terms\n", inv.CollectionSize, inv.Index.Len())
			return nil
		},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	var universe, tfNorm string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Derive the TF-IDF vector model from the inverted list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if universe != "" {
				a.cfg.Indexer.Universe = universe
			}
			if tfNorm != "" {
				a.cfg.Indexer.TFNorm = tfNorm
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context(), false)
			if err != nil {
				return err
			}
			model, err := p.Index(cmd.Context(), nil)
			if err != nil {
				return interrupted(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d terms, %d documents\n", model.Len(), len(model.DocumentIDs()))
			return nil
		},
	}
	cmd.Flags().StringVar(&universe, "universe", "", "idf universe: indexed-documents, distinct-terms or collection")
	cmd.Flags().StringVar(&tfNorm, "tf-norm", "", "tf normalization: term-occurrences or document-length")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var similarity string
	var prune bool
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Rank every document for every processed query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if similarity != "" {
				a.cfg.Search.Similarity = similarity
			}
			if cmd.Flags().Changed("prune") {
				a.cfg.Search.Prune = prune
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context(), true)
			if err != nil {
				return err
			}
			results, err := p.Search(cmd.Context(), nil, nil)
			if err != nil {
				return interrupted(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queries ranked\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&similarity, "similarity", "", "similarity: binary-query or tf-weighted-query")
	cmd.Flags().BoolVar(&prune, "prune", false, "score only documents sharing a term with the query")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score the results file against the expected results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline(cmd.Context(), false)
			if err != nil {
				return err
			}
			report, err := p.Evaluate(cmd.Context(), nil, nil)
			if err != nil {
				return interrupted(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queries=%d MAP=%.4f MRR=%.4f P@10=%.4f nDCG@10=%.4f\n",
				len(report.Queries), report.MAP, report.MRR, report.MeanPrecisionAt10, report.MeanNDCGAt10)
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline(cmd.Context(), true)
			if err != nil {
				return err
			}
			summary, err := p.Run(cmd.Context())
			if err != nil {
				return interrupted(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d queries, %d documents, %d terms in %s\n",
				summary.RunID, summary.Queries, summary.Documents, summary.Terms, summary.Duration.Round(1e6))
			if r := summary.Evaluation; r != nil {
				fmt.Fprintf(out, "MAP=%.4f MRR=%.4f P@10=%.4f nDCG@10=%.4f\n",
					r.MAP, r.MRR, r.MeanPrecisionAt10, r.MeanNDCGAt10)
			}
			return nil
		},
	}
}
