package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [doc-id]",
	Short: "Download layout output from object storage",
	Long: `Download a document's layout JSON files from object storage into
its workspace directory. Use --all to fetch every remote document and
--run to structure each document once it has been fetched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("all", false, "fetch every document in object storage")
	fetchCmd.Flags().Bool("run", false, "run the pipeline after fetching")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetcher == nil {
		return errors.New("object storage not configured (set minio.enabled)")
	}

	all, _ := cmd.Flags().GetBool("all")
	run, _ := cmd.Flags().GetBool("run")
	if run && structurer == nil {
		return errors.New("structure service not configured")
	}

	var ids []string
	switch {
	case all && len(args) > 0:
		return errors.New("cannot combine a document id with --all")
	case all:
		remote, err := fetcher.Remote(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list remote documents: %w", err)
		}
		ids = remote
	case len(args) == 1:
		ids = args
	default:
		return errors.New("document id required (or use --all)")
	}

	if len(ids) == 0 {
		cmd.Println("No documents found in object storage.")
		return nil
	}

	var errs []error
	for _, id := range ids {
		n, err := fetcher.Fetch(cmd.Context(), id)
		if err != nil {
			cmd.Printf("%s: fetch failed: %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		cmd.Printf("%s: fetched %d files\n", id, n)

		if !run {
			continue
		}
		results, err := structurer.Run(cmd.Context(), id, true)
		for i := range results {
			printStageResult(cmd, &results[i])
		}
		if err != nil {
			cmd.Printf("%s: %v\n", id, err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(errs), len(ids), errors.Join(errs...))
	}
	return nil
}
