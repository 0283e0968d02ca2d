// Package experience merges work history and education from the connected documents.
// LinkedIn is the base; the resume only ever edits or adds, never deletes.
package experience

import (
	"sort"
	"strings"

	"github.com/jonathan/portfolio-generator/internal/types"
)

func matchKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(p), " "))
	}
	return strings.Join(parts, "\x00")
}

// MergeExperiences merges resume experiences into the LinkedIn list.
// A resume entry matching an existing (company, role) case-insensitively sets that record's
// UserEditedDescription; an unmatched entry is appended. Inputs are not modified.
func MergeExperiences(base, resume []types.Experience) []types.Experience {
	merged := make([]types.Experience, len(base), len(base)+len(resume))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, e := range merged {
		if e.Source == "" {
			merged[i].Source = types.SourceLinkedIn
		}
		key := matchKey(e.Company, e.Role)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	for _, r := range resume {
		key := matchKey(r.Company, r.Role)
		if i, ok := index[key]; ok {
			if desc := strings.TrimSpace(r.Description); desc != "" {
				merged[i].UserEditedDescription = desc
			}
			continue
		}
		if r.Source == "" {
			r.Source = types.SourceResume
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}
	return merged
}

// MergeEducation appends resume education not already present by (institution, degree)
func MergeEducation(base, resume []types.Education) []types.Education {
	merged := make([]types.Education, len(base), len(base)+len(resume))
	copy(merged, base)

	seen := make(map[string]bool, len(merged))
	for i, e := range merged {
		if e.Source == "" {
			merged[i].Source = types.SourceLinkedIn
		}
		seen[matchKey(e.Institution, e.Degree)] = true
	}

	for _, r := range resume {
		key := matchKey(r.Institution, r.Degree)
		if seen[key] {
			continue
		}
		if r.Source == "" {
			r.Source = types.SourceResume
		}
		seen[key] = true
		merged = append(merged, r)
	}
	return merged
}

// SortByRecency orders current positions first, then by start date descending.
// Dates are YYYY or YYYY-MM and compare lexically. The sort is stable.
func SortByRecency(exps []types.Experience) {
	sort.SliceStable(exps, func(i, j int) bool {
		if exps[i].Current != exps[j].Current {
			return exps[i].Current
		}
		return exps[i].StartDate > exps[j].StartDate
	})
}

// Generated converts merged experiences to rows in display order
func Generated(exps []types.Experience) []types.GeneratedExperience {
	out := make([]types.GeneratedExperience, 0, len(exps))
	for i, e := range exps {
		out = append(out, types.GeneratedExperience{
			Company:               e.Company,
			Role:                  e.Role,
			StartDate:             e.StartDate,
			EndDate:               e.EndDate,
			Description:           e.Description,
			UserEditedDescription: e.UserEditedDescription,
			Current:               e.Current,
			Location:              e.Location,
			DisplayOrder:          i,
			Visible:               true,
			Source:                e.Source,
		})
	}
	return out
}

// GeneratedEducation converts merged education to rows in display order
func GeneratedEducation(edu []types.Education) []types.GeneratedEducation {
	out := make([]types.GeneratedEducation, 0, len(edu))
	for i, e := range edu {
		out = append(out, types.GeneratedEducation{
			Institution:  e.Institution,
			Degree:       e.Degree,
			Field:        e.Field,
			StartDate:    e.StartDate,
			EndDate:      e.EndDate,
			DisplayOrder: i,
			Source:       e.Source,
		})
	}
	return out
}
