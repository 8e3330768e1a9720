package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show document processing status",
	Long: `Show how far a document has progressed through the pipeline, its
element counts, region division and last recorded run.

Without a document id, a one-line summary is printed for every document
in the workspace.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Long: `List the document ids found in the workspace.

Use --remote to list the documents available in object storage instead.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().Bool("remote", false, "list documents in object storage")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if structurer == nil {
		return errors.New("structure service not configured")
	}

	if len(args) == 1 {
		status, err := structurer.Status(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		printStatus(cmd, status)
		return nil
	}

	ids, err := structurer.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No documents found in workspace.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Heading.Render(fmt.Sprintf("%-32s %-20s %8s", "DOCUMENT", "STAGE", "ELEMENTS")))
	for _, id := range ids {
		status, err := structurer.Status(cmd.Context(), id)
		if err != nil {
			cmd.Printf("%-32s %s\n", id, st.Error.Render(err.Error()))
			continue
		}
		cmd.Printf("%-32s %-20s %8d\n", id, stageLabel(status), status.TotalElements)
	}
	return nil
}

func printStatus(cmd *cobra.Command, s *driving.DocumentStatus) {
	st := newStyles(cmd.OutOrStdout())

	cmd.Println(st.Heading.Render(s.DocID))
	if !s.HasArtifact {
		cmd.Println("  Stage:    not extracted")
		return
	}

	cmd.Printf("  Title:    %s\n", s.Title)
	cmd.Printf("  Stage:    %s\n", s.ParseStage)
	cmd.Printf("  Language: %s\n", s.Language)
	cmd.Printf("  Pages:    %d\n", s.TotalPages)
	cmd.Printf("  Elements: %d\n", s.TotalElements)

	if rd := s.RegionDivision; rd != nil {
		cmd.Printf("  Regions:  %s %s  %s %s  %s %s\n",
			st.Head.Render("head"), spanLabel(rd.Head),
			st.Body.Render("body"), spanLabel(rd.Body),
			st.Tail.Render("tail"), spanLabel(rd.Tail))
	}

	if run := s.LastRun; run != nil {
		cmd.Printf("  Last run: %s %s at %s (%s)\n",
			run.Stage, st.status(run.Status).Render(string(run.Status)),
			run.FinishedAt.Local().Format(time.DateTime), run.Duration().Round(time.Millisecond))
		if run.Error != "" {
			cmd.Printf("  Error:    %s\n", run.Error)
		}
		for _, w := range run.Warnings {
			cmd.Printf("  %s %s\n", st.Warning.Render("warning"), w)
		}
	}
}

func stageLabel(s *driving.DocumentStatus) string {
	if !s.HasArtifact || s.ParseStage == domain.StageNone {
		return "not extracted"
	}
	return s.ParseStage.String()
}

func spanLabel(s domain.Span) string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

func runList(cmd *cobra.Command, _ []string) error {
	remote, _ := cmd.Flags().GetBool("remote")

	var (
		ids []string
		err error
	)
	if remote {
		if fetcher == nil {
			return errors.New("object storage not configured (set minio.enabled)")
		}
		ids, err = fetcher.Remote(cmd.Context())
	} else {
		if structurer == nil {
			return errors.New("structure service not configured")
		}
		ids, err = structurer.List(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(ids) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}
