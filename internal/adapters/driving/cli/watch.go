package cli

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Structure documents as layout output arrives",
	Long: `Watch the workspace root and run the full pipeline for a document
whenever one of its layout JSON files is created or rewritten.

Runs are forced so that rewritten layout output replaces the previous
artifact. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if newWatcher == nil {
		return errors.New("watcher not configured")
	}

	var mu sync.Mutex
	w := newWatcher(func(docID string, results []driving.StageResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		for i := range results {
			printStageResult(cmd, &results[i])
		}
		if err != nil {
			cmd.Printf("%s: %v\n", docID, err)
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	announced := make(chan struct{})
	go func() {
		defer close(announced)
		select {
		case <-w.Ready():
		case <-ctx.Done():
			select {
			case <-w.Ready():
			default:
				return
			}
		}
		mu.Lock()
		defer mu.Unlock()
		root := workspaceRoot
		if root == "" {
			root = "workspace"
		}
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", root)
	}()

	err := w.Start(ctx)
	stop()
	<-announced
	if err != nil {
		return err
	}
	cmd.Println("Stopped.")
	return nil
}
