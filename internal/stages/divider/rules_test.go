package divider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1. introduction", Normalize("１．　ＩＮＴＲＯＤＵＣＴＩＯＮ"))
	assert.Equal(t, "references", Normalize("  REFERENCES \n"))
	assert.Equal(t, "1 绪论 :", Normalize("1 绪论 ："))
	assert.Equal(t, "", Normalize("   "))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Role
	}{
		{"1 Introduction", RoleBodyOpener},
		{"1. Introduction", RoleBodyOpener},
		{"I. INTRODUCTION", RoleBodyOpener},
		{"Introduction", RoleBodyOpener},
		{"Chapter 1", RoleBodyOpener},
		{"Part I", RoleBodyOpener},
		{"1 绪论", RoleBodyOpener},
		{"1绪论", RoleBodyOpener},
		{"第一章 绪论", RoleBodyOpener},
		{"一、研究背景", RoleBodyOpener},
		{"1 引言", RoleBodyOpener},
		{"1. Problem statement", RoleBodyOpener},
		{"1 Introduction and Motivation", RoleBodyOpener},
		{"1: Introduction", RoleBodyOpener},
		{"Chapter 1: Introduction", RoleBodyOpener},
		{"Chapter One Background", RoleBodyOpener},
		{"Partial results", RoleNone},
		{"1 绪论 ：", RoleIgnore},
		{"1 Introduction ........ 1", RoleIgnore},
		{"参考文献 … 45", RoleIgnore},
		{"Introduction 3", RoleIgnore},
		{"目录", RoleTOC},
		{"目 录", RoleTOC},
		{"Table of Contents", RoleTOC},
		{"摘要", RoleFrontMatter},
		{"摘 要", RoleFrontMatter},
		{"Abstract", RoleFrontMatter},
		{"Key words", RoleFrontMatter},
		{"关键词：路径规划", RoleFrontMatter},
		{"References", RoleTailOpener},
		{"REFERENCES:", RoleTailOpener},
		{"参考文献", RoleTailOpener},
		{"参考 文献", RoleTailOpener},
		{"參考文獻", RoleTailOpener},
		{"Bibliography", RoleTailOpener},
		{"Works Cited", RoleTailOpener},
		{"Appendix A", RoleTailOpener},
		{"Appendix 1", RoleTailOpener},
		{"附录 1", RoleTailOpener},
		{"附录A", RoleTailOpener},
		{"Appendix 120", RoleIgnore},
		{"附录A 源代码", RoleTailOpener},
		{"致 谢", RoleTailOpener},
		{"Acknowledgments", RoleTailOpener},
		{"Acknowledgement(s)", RoleTailOpener},
		{"2 Related Work", RoleNone},
		{"Results", RoleNone},
		{"Content available at ScienceDirect", RoleNone},
		{"Abstraction layers", RoleNone},
	}
	rules := DefaultRules()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			rule, _ := Classify(rules, Normalize(tt.text))
			assert.Equal(t, tt.want, rule.Role, "rule %q", rule.Name)
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "body_opener", RoleBodyOpener.String())
	assert.Equal(t, "tail_opener", RoleTailOpener.String())
}
