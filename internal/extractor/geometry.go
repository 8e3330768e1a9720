package extractor

import (
	"math"
	"strings"
)

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

// tableShape counts rows and the widest row's cells in table HTML.
func tableShape(html string) (rows, cols int) {
	lower := strings.ToLower(html)
	chunks := strings.Split(lower, "<tr")
	for _, row := range chunks[1:] {
		if row == "" || (row[0] != '>' && row[0] != ' ') {
			continue
		}
		rows++
		cols = max(cols, countTag(row, "td")+countTag(row, "th"))
	}
	if rows == 0 && strings.TrimSpace(html) != "" {
		rows, cols = 1, 1
	}
	return rows, cols
}

// countTag counts opening tags such as <td> and <td colspan="2">.
func countTag(s, tag string) int {
	return strings.Count(s, "<"+tag+">") + strings.Count(s, "<"+tag+" ")
}
