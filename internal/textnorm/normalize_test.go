package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"lowercases", "Senior GO Engineer", "senior go engineer"},
		{"strips digits", "5 years of Python 3", "years of python"},
		{"punctuation keeps word boundaries", "Go,Python;SQL", "go python sql"},
		{"collapses whitespace", "a   b\n\nc", "a b c"},
		{"drops symbols", "C++ and C#", "c and c"},
		{"full width letters fold", "ＰＹＴＨＯＮ", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeKeywordText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"keeps plus and sharp", "C++ and C#", "c++ and c#"},
		{"keeps hyphen", "Front-End Developer", "front-end developer"},
		{"keeps slash", "CI/CD pipelines", "ci/cd pipelines"},
		{"still strips periods", "Node.js", "node js"},
		{"still strips digits", "Python 3.11", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKeywordText(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Hello, World! 123", "C++ / C#", "  multiple   spaces  "}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
		kw := NormalizeKeywordText(in)
		assert.Equal(t, kw, NormalizeKeywordText(kw))
	}
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "node.js", NormalizeTerm("  Node.js "))
	assert.Equal(t, "machine learning", NormalizeTerm("Machine \t Learning"))
	assert.Equal(t, "", NormalizeTerm("   "))
}
