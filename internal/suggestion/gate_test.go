package suggestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodSuggestion = `✨ STRENGTHS
• Five years of production Python and SQL line up directly with the core stack of this role.
• Containerizing services with Docker shows the delivery experience the team asks for.

🔍 IMPROVEMENTS NEEDED
• Add Kubernetes explicitly: describe how your Docker images were deployed and scaled, and name the orchestrator.
• Quantify the data pipeline work, for example "cut nightly ETL runtime from 4h to 45m", to prove impact.

💡 PRO TIP
Lead your summary with "Python backend engineer shipping containerized services on Kubernetes" so recruiters see the match instantly.`

func TestQualityGate_AcceptsGoodSuggestion(t *testing.T) {
	assert.NoError(t, DefaultPrimaryGate().Check(goodSuggestion))
}

func TestQualityGate_Rules(t *testing.T) {
	tests := []struct {
		name string
		text string
		rule string
	}{
		{
			name: "too short",
			text: "✨ STRENGTHS good 🔍 IMPROVEMENTS more 💡 PRO TIP tip",
			rule: "length",
		},
		{
			name: "missing marker",
			text: strings.Replace(goodSuggestion, "💡 PRO TIP", "PRO TIP", 1),
			rule: "sections",
		},
		{
			name: "markers out of order",
			text: strings.Replace(strings.Replace(goodSuggestion, "✨ STRENGTHS", "XX", 1), "💡 PRO TIP", "✨ STRENGTHS", 1) + "\n💡 PRO TIP short",
			rule: "sections",
		},
		{
			name: "single improvement bullet",
			text: strings.Replace(goodSuggestion, "\n• Quantify", " Quantify", 1),
			rule: "bullets",
		},
		{
			name: "too generic",
			text: goodSuggestion + "\nCustomize your resume, tailor your application, add more keywords and improve your resume.",
			rule: "generic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultPrimaryGate().Check(tt.text)
			var gateErr *QualityGateError
			require.ErrorAs(t, err, &gateErr)
			assert.Equal(t, tt.rule, gateErr.Rule)
		})
	}
}

func TestQualityGate_Relaxed(t *testing.T) {
	gate := DefaultPrimaryGate()
	relaxed := gate.Relaxed(200)
	assert.Equal(t, 200, relaxed.MinTotalChars)
	assert.Equal(t, 300, gate.MinTotalChars, "original gate is unchanged")
}

func TestSplit(t *testing.T) {
	sections, ok := Split(goodSuggestion)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(sections.Strengths, "• Five years"))
	assert.True(t, strings.HasPrefix(sections.Improvements, "• Add Kubernetes"), "heading remainder is dropped")
	assert.True(t, strings.HasPrefix(sections.ProTip, "Lead your summary"))
}

func TestCountBullets(t *testing.T) {
	section := "• one\n- two\n* three\n1. four\n2) five\nplain line\n-nospace"
	assert.Equal(t, 5, CountBullets(section))
}
