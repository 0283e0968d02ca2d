package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/portfolio-generator/internal/types"
)

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Golang to Go", "Golang", "Go"},
		{"GOLANG to Go", "GOLANG", "Go"},
		{"go lang to Go", "go lang", "Go"},
		{"JS to JavaScript uppercase", "JS", "JavaScript"},
		{"ts to TypeScript", "ts", "TypeScript"},
		{"k8s to Kubernetes", "k8s", "Kubernetes"},
		{"reactjs to React", "reactjs", "React"},
		{"nodejs to Node.js", "nodejs", "Node.js"},
		{"postgres to PostgreSQL", "postgres", "PostgreSQL"},
		{"acronym kept", "aws", "AWS"},
		{"python to Python", "python", "Python"},
		{"PYTHON to Python", "PYTHON", "Python"},
		{"inner whitespace collapsed", "  Distributed   Systems ", "Distributed Systems"},
		{"Empty string", "", ""},
		{"Whitespace only", "   ", ""},
		{"Mixed case kept", "FastAPI", "FastAPI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestNormalizeSkills(t *testing.T) {
	input := []types.SkillFact{
		{Name: "Golang", Sources: []types.FactSource{types.SourceResume}},
		{Name: "python", Sources: []types.FactSource{types.SourceResume}},
		{Name: "Go", Sources: []types.FactSource{types.SourceLinkedIn}},
		{Name: "", Sources: []types.FactSource{types.SourceResume}},
		{Name: "Python", Sources: []types.FactSource{types.SourceResume}},
	}

	got := NormalizeSkills(input)
	assert.Equal(t, []types.SkillFact{
		{Name: "Go", Sources: []types.FactSource{types.SourceResume, types.SourceLinkedIn}},
		{Name: "Python", Sources: []types.FactSource{types.SourceResume}},
	}, got)
}

func TestNormalizeSkills_Empty(t *testing.T) {
	assert.Empty(t, NormalizeSkills(nil))
}
