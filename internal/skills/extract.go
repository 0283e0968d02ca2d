// Package skills builds the portfolio skill list as a union of the GitHub language histogram
// and the skills named in uploaded documents, tracking which sources support each skill.
package skills

import (
	"strings"

	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/parsing"
	"github.com/jonathan/portfolio-generator/internal/types"
)

const (
	maxProficiency      = 5
	documentProficiency = 3
)

// LanguageProficiency maps the number of repositories using a language to a 1-5 score
func LanguageProficiency(repoCount int) int {
	p := (repoCount + 1) / 2
	if p > maxProficiency {
		return maxProficiency
	}
	return p
}

// Extract unions the language histogram with document skills.
// Languages seed the set with category language and derived_from [github]. A document skill
// that is already present gains the document's source; a new one is added as a tool with
// proficiency 3. Names are normalized so that case variants collapse into one entry.
func Extract(languages []github.LanguageCount, documents ...*types.NormalizedFacts) []types.GeneratedSkill {
	var out []types.GeneratedSkill
	index := make(map[string]int)

	for _, lc := range languages {
		name := parsing.NormalizeSkillName(lc.Language)
		if name == "" || lc.Count <= 0 {
			continue
		}
		key := strings.ToLower(name)
		if i, ok := index[key]; ok {
			out[i].Proficiency = max(out[i].Proficiency, LanguageProficiency(lc.Count))
			continue
		}
		index[key] = len(out)
		out = append(out, types.GeneratedSkill{
			Name:        name,
			Category:    types.SkillCategoryLanguage,
			Proficiency: LanguageProficiency(lc.Count),
			DerivedFrom: []types.FactSource{types.SourceGitHub},
		})
	}

	for _, doc := range documents {
		if doc == nil {
			continue
		}
		for _, skill := range doc.Skills {
			name := parsing.NormalizeSkillName(skill.Name)
			if name == "" {
				continue
			}
			sources := skill.Sources
			if len(sources) == 0 {
				sources = []types.FactSource{doc.Source}
			}

			key := strings.ToLower(name)
			if i, ok := index[key]; ok {
				out[i].DerivedFrom = addSources(out[i].DerivedFrom, sources)
				continue
			}
			index[key] = len(out)
			out = append(out, types.GeneratedSkill{
				Name:        name,
				Category:    types.SkillCategoryTool,
				Proficiency: documentProficiency,
				DerivedFrom: addSources(nil, sources),
			})
		}
	}

	for i := range out {
		out[i].DisplayOrder = i
		out[i].Visible = true
	}
	return out
}

func addSources(have, add []types.FactSource) []types.FactSource {
	for _, s := range add {
		if s == "" || containsSource(have, s) {
			continue
		}
		have = append(have, s)
	}
	return have
}

func containsSource(list []types.FactSource, s types.FactSource) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
