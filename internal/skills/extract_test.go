package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/types"
)

func TestLanguageProficiency(t *testing.T) {
	tests := []struct {
		repos int
		want  int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{9, 5},
		{10, 5},
		{40, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageProficiency(tt.repos), "repos=%d", tt.repos)
	}
}

func TestExtract_Union(t *testing.T) {
	languages := []github.LanguageCount{{Language: "Python", Count: 4}, {Language: "Go", Count: 1}}
	resume := &types.NormalizedFacts{
		Source: types.SourceResume,
		Skills: []types.SkillFact{
			{Name: "Python", Sources: []types.FactSource{types.SourceResume}},
			{Name: "Docker", Sources: []types.FactSource{types.SourceResume}},
		},
	}

	got := Extract(languages, resume)
	require.Len(t, got, 3)

	byName := map[string]types.GeneratedSkill{}
	for _, s := range got {
		byName[s.Name] = s
	}

	assert.ElementsMatch(t, []types.FactSource{types.SourceGitHub, types.SourceResume}, byName["Python"].DerivedFrom)
	assert.Equal(t, 2, byName["Python"].Proficiency)
	assert.Equal(t, types.SkillCategoryLanguage, byName["Python"].Category)

	assert.Equal(t, []types.FactSource{types.SourceGitHub}, byName["Go"].DerivedFrom)
	assert.Equal(t, 1, byName["Go"].Proficiency)

	assert.Equal(t, []types.FactSource{types.SourceResume}, byName["Docker"].DerivedFrom)
	assert.Equal(t, 3, byName["Docker"].Proficiency)
	assert.Equal(t, types.SkillCategoryTool, byName["Docker"].Category)
}

func TestExtract_NormalizesNames(t *testing.T) {
	languages := []github.LanguageCount{{Language: "Go", Count: 3}}
	resume := &types.NormalizedFacts{
		Source: types.SourceResume,
		Skills: []types.SkillFact{{Name: "golang"}, {Name: "python"}, {Name: "Python"}, {Name: "  "}},
	}
	linkedin := &types.NormalizedFacts{
		Source: types.SourceLinkedIn,
		Skills: []types.SkillFact{{Name: "PYTHON"}},
	}

	got := Extract(languages, resume, nil, linkedin)
	require.Len(t, got, 2)

	assert.Equal(t, "Go", got[0].Name)
	assert.Equal(t, []types.FactSource{types.SourceGitHub, types.SourceResume}, got[0].DerivedFrom)

	assert.Equal(t, "Python", got[1].Name)
	assert.Equal(t, []types.FactSource{types.SourceResume, types.SourceLinkedIn}, got[1].DerivedFrom)
	assert.Equal(t, 1, got[1].DisplayOrder)
	assert.True(t, got[1].Visible)
}

func TestExtract_Empty(t *testing.T) {
	assert.Empty(t, Extract(nil))
	got := Extract(nil, &types.NormalizedFacts{
		Source: types.SourceResume,
		Skills: []types.SkillFact{{Name: "react"}},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "React", got[0].Name)
}
