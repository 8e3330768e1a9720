package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// Stage selectors shared with the batch runner.
const (
	stageAll     = ""
	stageExtract = "extract"
	stageMerge   = "merge"
	stageDivide  = "divide"
)

var extractCmd = &cobra.Command{
	Use:   "extract [doc-id]",
	Short: "Fuse layout output into a canonical document",
	Long: `Read every layout JSON file in the document's workspace directory,
fuse them into one ordered element list and write the canonical document.

Extraction is skipped when the document already has an artifact, unless
--force is given. A forced extraction starts the document over.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStageCommand(stageExtract),
}

var mergeCmd = &cobra.Command{
	Use:   "merge [doc-id]",
	Short: "Repair paragraphs split across pages and columns",
	Long: `Join paragraph fragments that the layout parser split at page or
column breaks. Titles, tables, images, code and equations are never merged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStageCommand(stageMerge),
}

var divideCmd = &cobra.Command{
	Use:   "divide [doc-id]",
	Short: "Divide the document into head, body and tail",
	Long: `Locate where the main body begins and ends and record the
head/body/tail region division on the document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStageCommand(stageDivide),
}

var runCmd = &cobra.Command{
	Use:   "run [doc-id]",
	Short: "Run the full pipeline",
	Long: `Extract the document, then apply every configured stage in order
(merge and divide by default). Completed stages are skipped unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStageCommand(stageAll),
}

func init() {
	for _, cmd := range []*cobra.Command{extractCmd, mergeCmd, divideCmd, runCmd} {
		cmd.Flags().Bool("all", false, "process every document in the workspace")
		cmd.Flags().BoolP("force", "f", false, "re-apply stages that already ran")
		cmd.Flags().IntP("workers", "w", 0, "concurrent documents with --all (0 = configured)")
		rootCmd.AddCommand(cmd)
	}
}

func runStageCommand(stage string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if structurer == nil {
			return errors.New("structure service not configured")
		}

		all, _ := cmd.Flags().GetBool("all")
		force, _ := cmd.Flags().GetBool("force")
		workers, _ := cmd.Flags().GetInt("workers")

		if all {
			if len(args) > 0 {
				return errors.New("cannot combine a document id with --all")
			}
			return runBatch(cmd, stage, force, workers)
		}
		if len(args) == 0 {
			return errors.New("document id required (or use --all)")
		}

		results, err := runSingle(cmd.Context(), stage, args[0], force)
		for i := range results {
			printStageResult(cmd, &results[i])
		}
		return err
	}
}

func runSingle(ctx context.Context, stage, docID string, force bool) ([]driving.StageResult, error) {
	var (
		result *driving.StageResult
		err    error
	)
	switch stage {
	case stageExtract:
		result, err = structurer.Extract(ctx, docID, force)
	case stageMerge:
		result, err = structurer.Merge(ctx, docID, force)
	case stageDivide:
		result, err = structurer.Divide(ctx, docID, force)
	default:
		return structurer.Run(ctx, docID, force)
	}
	if result == nil {
		return nil, err
	}
	return []driving.StageResult{*result}, err
}

func runBatch(cmd *cobra.Command, stage string, force bool, workers int) error {
	if batchRunner == nil {
		return errors.New("batch runner not configured")
	}

	ids, err := structurer.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No documents found in workspace.")
		return nil
	}

	cmd.Printf("Processing %d documents...\n", len(ids))

	result, err := batchRunner.RunAll(cmd.Context(), ids, driving.BatchOptions{
		Force:   force,
		Workers: workers,
		Stage:   stage,
	})
	if result == nil {
		return err
	}

	printBatchResult(cmd, result)
	if err != nil {
		return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total)
	}
	return nil
}

func printStageResult(cmd *cobra.Command, r *driving.StageResult) {
	st := newStyles(cmd.OutOrStdout())

	if r.Skipped {
		cmd.Printf("%s: %s %s (already %s)\n", r.DocID, r.Stage, st.Muted.Render("skipped"), r.ParseStage)
		return
	}

	cmd.Printf("%s: %s %s, %d -> %d elements (%s)\n",
		r.DocID, r.Stage, st.Success.Render("applied"), r.ElementsBefore, r.ElementsAfter, r.ParseStage)
	for _, w := range r.Warnings {
		cmd.Printf("  %s %s\n", st.Warning.Render("warning"), w)
	}
}

func printBatchResult(cmd *cobra.Command, r *driving.BatchResult) {
	cmd.Printf("Done in %s: %d succeeded, %d skipped, %d failed\n",
		r.Elapsed.Round(time.Millisecond), r.Succeeded, r.Skipped, r.Failed)

	if len(r.Failures) == 0 {
		return
	}
	ids := make([]string, 0, len(r.Failures))
	for id := range r.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	st := newStyles(cmd.OutOrStdout())
	for _, id := range ids {
		cmd.Printf("  %s %s: %v\n", st.Error.Render("failed"), id, r.Failures[id])
	}
}
