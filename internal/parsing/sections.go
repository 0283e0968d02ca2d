package parsing

import (
	"regexp"
	"strings"
)

// Section is a document block isolated by a heading
type Section string

// Section constants
const (
	SectionHeader         Section = "header"
	SectionSummary        Section = "summary"
	SectionContact        Section = "contact"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionOther          Section = "other"
)

// sectionHeadings are the case-insensitive heading texts recognized for each section
var sectionHeadings = map[Section][]string{
	SectionSummary: {
		"summary", "professional summary", "about", "about me", "profile", "objective", "career objective",
	},
	SectionContact: {"contact", "contact information", "contact info"},
	SectionExperience: {
		"experience", "work experience", "professional experience", "relevant experience",
		"employment", "employment history", "work history", "career history",
	},
	SectionEducation: {"education", "academic background", "education and training", "academics"},
	SectionSkills: {
		"skills", "technical skills", "top skills", "core competencies", "technologies", "tech stack",
		"skills and tools", "languages and tools", "tools and technologies", "key skills",
	},
	SectionProjects: {
		"projects", "personal projects", "side projects", "selected projects", "key projects",
		"open source", "open source projects",
	},
	SectionCertifications: {
		"certifications", "certificates", "licenses and certifications", "certifications and licenses",
	},
	SectionOther: {
		"awards", "honors", "honors and awards", "publications", "interests", "volunteer",
		"volunteering", "volunteer experience", "languages", "references", "activities",
	},
}

var headingIndex = buildHeadingIndex()

func buildHeadingIndex() map[string]Section {
	idx := make(map[string]Section)
	for section, headings := range sectionHeadings {
		for _, h := range headings {
			idx[h] = section
		}
	}
	return idx
}

var headingNoise = regexp.MustCompile(`^[#=*_\s]+|[:#=*_\s]+$`)

// headingSection reports which section a line opens, if it is a heading
func headingSection(line string) (Section, bool) {
	if len(line) > 40 {
		return "", false
	}
	cleaned := strings.ToLower(headingNoise.ReplaceAllString(line, ""))
	cleaned = strings.ReplaceAll(cleaned, "&", " and ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	section, ok := headingIndex[cleaned]
	return section, ok
}

// SplitSections isolates the blocks of a document by heading. Lines before the first heading
// belong to SectionHeader. A repeated heading appends to the earlier block.
func SplitSections(text string) map[Section][]string {
	sections := make(map[Section][]string)
	current := SectionHeader
	for _, line := range strings.Split(text, "\n") {
		if section, ok := headingSection(line); ok {
			current = section
			if _, exists := sections[section]; !exists {
				sections[section] = []string{}
			}
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections
}
