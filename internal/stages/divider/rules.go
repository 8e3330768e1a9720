package divider

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Role is what a matching title means for region boundaries.
type Role int

const (
	// RoleNone marks a title no rule recognised.
	RoleNone Role = iota
	// RoleIgnore marks table-of-contents entries such as "1 Introduction ..... 3".
	RoleIgnore
	// RoleTOC marks the table-of-contents heading itself.
	RoleTOC
	// RoleFrontMatter marks abstract and keyword headings.
	RoleFrontMatter
	// RoleTailOpener marks references, appendix and acknowledgement headings.
	RoleTailOpener
	// RoleBodyOpener marks the first top-level section of the main text.
	RoleBodyOpener
)

var roleNames = map[Role]string{
	RoleNone:        "none",
	RoleIgnore:      "ignore",
	RoleTOC:         "toc",
	RoleFrontMatter: "front_matter",
	RoleTailOpener:  "tail_opener",
	RoleBodyOpener:  "body_opener",
}

// String returns the role name.
func (r Role) String() string {
	return roleNames[r]
}

// Rule pairs a pattern over normalised title text with a role.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Role    Role
}

// Matches reports whether the rule applies to already normalised text.
func (r Rule) Matches(normalized string) bool {
	return r.Pattern.MatchString(normalized)
}

// DefaultRules returns the built-in bilingual rules. Order matters: the
// first matching rule decides the role.
func DefaultRules() []Rule {
	return []Rule{
		{"toc-leader", regexp.MustCompile(`…|\.{3}|·{3}`), RoleIgnore},
		{"chapter-one", regexp.MustCompile(`^(chapter|part)\s+(1|i|one)$`), RoleBodyOpener},
		{"appendix-label", regexp.MustCompile(`^(appendix|附录)\s*([a-z]|[0-9]{1,2}|[ivx]+)$`), RoleTailOpener},
		{"toc-page-number", regexp.MustCompile(`\S\s+\d+$`), RoleIgnore},
		{"toc-colon-entry", regexp.MustCompile(`^[0-9一二三i].*:$`), RoleIgnore},
		{"toc-heading", regexp.MustCompile(`^(目 ?录|目 ?次|contents|table of contents):?$`), RoleTOC},
		{"abstract-zh", regexp.MustCompile(`^(摘 ?要|关键词|关键字)`), RoleFrontMatter},
		{"abstract-en", regexp.MustCompile(`^(abstract|keywords|key words)\b`), RoleFrontMatter},
		{"references-zh", regexp.MustCompile(`^(参考 ?文献|參考文獻|引用文献|参考资料)`), RoleTailOpener},
		{"appendix-zh", regexp.MustCompile(`^(附录|致 ?谢|鸣谢)`), RoleTailOpener},
		{"references-en", regexp.MustCompile(`^(references?|bibliography|works cited)\b`), RoleTailOpener},
		{"appendix-en", regexp.MustCompile(`^(appendix|appendices|acknowledge?ments?)\b`), RoleTailOpener},
		{"intro-numbered", regexp.MustCompile(`^(1|i)\s*[.:]?\s*(introduction\b|绪论|引言|概述|绪言|前言)`), RoleBodyOpener},
		{"intro-plain", regexp.MustCompile(`^(introduction|绪论|引言)$`), RoleBodyOpener},
		{"chapter-one-titled", regexp.MustCompile(`^(chapter|part)\s+(1|i|one)\b`), RoleBodyOpener},
		{"chapter-one-zh", regexp.MustCompile(`^第\s*[一1]\s*[章部]`), RoleBodyOpener},
		{"list-marker-one", regexp.MustCompile(`^[一1i]\s*[、.]\s*\S`), RoleBodyOpener},
	}
}

// Classify returns the first rule matching the normalised text.
func Classify(rules []Rule, normalized string) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(normalized) {
			return r, true
		}
	}
	return Rule{Role: RoleNone}, false
}

// Normalize folds width, applies NFKC, lowercases and collapses
// whitespace so that full-width and half-width headings compare equal.
func Normalize(text string) string {
	s := width.Fold.String(text)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
