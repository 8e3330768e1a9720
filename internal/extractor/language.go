package extractor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// DefaultCJKRatio is the Han character share above which text is "zh".
const DefaultCJKRatio = 0.3

// minLanguageSample is the paragraph length preferred for detection.
const minLanguageSample = 20

// DetectLanguage classifies text as "zh" or "en" by its Han ratio.
func DetectLanguage(text string, ratio float64) string {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return "en"
	}
	han := 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if float64(han)/float64(total) > ratio {
		return "zh"
	}
	return "en"
}

// documentLanguage detects the language of the first paragraph that is
// long enough to be representative, falling back to the first non-empty one.
func (e *Extractor) documentLanguage(elements []domain.DocumentElement) string {
	fallback := ""
	for i := range elements {
		if elements[i].Type != domain.ElementParagraph {
			continue
		}
		text := strings.TrimSpace(elements[i].Text())
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) >= minLanguageSample {
			return DetectLanguage(text, e.cjkRatio)
		}
		if fallback == "" {
			fallback = text
		}
	}
	return DetectLanguage(fallback, e.cjkRatio)
}

// abstractLanguage returns the abstract language for a section title,
// or "" when the section is not an abstract.
func abstractLanguage(section string) string {
	s := strings.TrimSpace(section)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "摘要"):
		return "zh"
	case strings.HasPrefix(strings.ToLower(s), "abstract"):
		return "en"
	default:
		return ""
	}
}

// abstracts collects paragraphs under abstract sections, one entry per
// language, sorted by language.
func (e *Extractor) abstracts(elements []domain.DocumentElement) []domain.Abstract {
	parts := make(map[string][]string)
	for i := range elements {
		el := &elements[i]
		if el.Type != domain.ElementParagraph {
			continue
		}
		lang := abstractLanguage(el.Source.SectionTitle)
		if lang == "" {
			continue
		}
		if text := strings.TrimSpace(el.Text()); text != "" {
			parts[lang] = append(parts[lang], text)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	langs := make([]string, 0, len(parts))
	for lang := range parts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	out := make([]domain.Abstract, 0, len(langs))
	for _, lang := range langs {
		out = append(out, domain.Abstract{Language: lang, Text: strings.Join(parts[lang], "\n")})
	}
	return out
}
