package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// defaultTextWidth is used when output is not a terminal.
const defaultTextWidth = 72

var inspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "List a document's elements by region",
	Long: `Print the canonical document's elements in reading order, coloured
by region once the document has been divided.

Use --region to show only the head, body or tail, and --limit to cap the
number of elements printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringP("region", "r", "", "only show one region (head, body, tail)")
	inspectCmd.Flags().IntP("limit", "n", 0, "maximum elements to print (0 = all)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if structurer == nil {
		return errors.New("structure service not configured")
	}

	regionName, _ := cmd.Flags().GetString("region")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return errors.New("--limit must not be negative")
	}

	doc, err := structurer.Document(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	rd := doc.Metadata.RegionDivision
	elements := doc.Elements
	if regionName != "" {
		if rd == nil {
			return fmt.Errorf("document %s has no region division; run divide first", args[0])
		}
		span, ok := rd.Span(domain.Region(regionName))
		if !ok {
			return fmt.Errorf("unknown region %q (want head, body or tail)", regionName)
		}
		if err := rd.Validate(len(elements)); err != nil {
			return err
		}
		elements = elements[span.Start:span.End]
	}
	if limit > 0 && len(elements) > limit {
		elements = elements[:limit]
	}

	out := cmd.OutOrStdout()
	st := newStyles(out)
	textWidth := defaultTextWidth
	if w := terminalWidth(out); w > 0 {
		textWidth = max(w-30, 20)
	}

	cmd.Println(st.Heading.Render(doc.Metadata.DocTitle))
	cmd.Printf("%s  stage %s  language %s  pages %d  elements %d\n",
		st.Muted.Render(doc.Metadata.DocID), doc.Metadata.ParseStage,
		doc.Metadata.Language, doc.Metadata.TotalPages, doc.Metadata.TotalElements)
	if rd != nil {
		cmd.Printf("%s %s  %s %s  %s %s\n",
			st.Head.Render("head"), spanLabel(rd.Head),
			st.Body.Render("body"), spanLabel(rd.Body),
			st.Tail.Render("tail"), spanLabel(rd.Tail))
	}
	cmd.Println()

	for i := range elements {
		el := &elements[i]
		region := "-"
		if rd != nil {
			region = string(rd.RegionOf(el.ID))
		}
		line := fmt.Sprintf("%4d %-5s %-9s p%-3d %s",
			el.ID, region, el.Type, el.Source.Page+1, truncate(summarise(el), textWidth))

		if rd != nil {
			style := st.region(domain.Region(region))
			if el.Type == domain.ElementTitle {
				style = style.Bold(true)
			}
			line = style.Render(line)
		}
		cmd.Println(line)
	}
	return nil
}

// summarise returns a one-line description of the element's content.
func summarise(el *domain.DocumentElement) string {
	var text string
	switch el.Type {
	case domain.ElementTable, domain.ElementImage:
		text = "[" + string(el.Type) + "]"
		if caps := captionText(el.Content); caps != "" {
			text += " " + caps
		}
	default:
		text = el.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

func captionText(c domain.Content) string {
	switch v := c[domain.ContentCaptions].(type) {
	case []string:
		return strings.Join(v, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
