// Command docstruct structures PDF layout-parser output into canonical documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/docstruct/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version, bootstrap); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
