package parsing

import (
	"strings"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"go":         "Go",
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react":      "React",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"node":       "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"c++":        "C++",
	"cpp":        "C++",
	"c#":         "C#",
	"csharp":     "C#",
	"aws":        "AWS",
	"gcp":        "GCP",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	"graphql":    "GraphQL",
	"mongodb":    "MongoDB",
	"mysql":      "MySQL",
	"next.js":    "Next.js",
	"nextjs":     "Next.js",
	"ci/cd":      "CI/CD",
}

// NormalizeSkillName maps a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.Join(strings.Fields(skillName), " ")
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// All-caps single words are shouting, not acronyms (acronyms are in the map)
	if normalized == strings.ToUpper(normalized) && normalized != lower && !strings.Contains(lower, " ") {
		return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
	}

	if normalized == lower && !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// NormalizeSkills canonicalizes names and collapses duplicates, merging their source tags.
// First-seen order is kept.
func NormalizeSkills(skills []types.SkillFact) []types.SkillFact {
	out := make([]types.SkillFact, 0, len(skills))
	seen := make(map[string]int)

	for _, s := range skills {
		name := NormalizeSkillName(s.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if idx, ok := seen[key]; ok {
			out[idx].Sources = appendSources(out[idx].Sources, s.Sources...)
			continue
		}
		seen[key] = len(out)
		out = append(out, types.SkillFact{Name: name, Sources: appendSources(nil, s.Sources...)})
	}
	return out
}

func appendSources(dst []types.FactSource, src ...types.FactSource) []types.FactSource {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
