// Package parsing turns uploaded resume and LinkedIn documents into normalized facts.
// Extraction is line-oriented pattern matching: results are a best-effort draft for review.
package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// maxHeaderLine is the longest line treated as an entry header rather than prose
const maxHeaderLine = 80

// Parse dispatches on the connected-source kind
func Parse(kind types.SourceKind, data []byte, fileName string) (*types.NormalizedFacts, error) {
	switch kind {
	case types.SourceKindResume:
		return ParseResume(data, fileName)
	case types.SourceKindLinkedIn:
		return ParseLinkedIn(data, fileName)
	default:
		return nil, &ParseError{FileName: fileName, Message: "unsupported source kind " + string(kind)}
	}
}

// ParseResume extracts normalized facts from a PDF or plain-text resume
func ParseResume(data []byte, fileName string) (*types.NormalizedFacts, error) {
	text, err := ExtractText(data, fileName)
	if err != nil {
		return nil, err
	}
	facts := ParseText(text, types.SourceResume)
	if !hasRecords(facts) {
		return nil, &ParseError{FileName: fileName, Message: "no experience, education, skills or projects found"}
	}
	return facts, nil
}

// ParseText applies the section heuristics to already-extracted text
func ParseText(text string, source types.FactSource) *types.NormalizedFacts {
	sections := SplitSections(text)

	facts := &types.NormalizedFacts{
		Source:         source,
		Contact:        parseContact(append(sections[SectionHeader], sections[SectionContact]...)),
		Experiences:    parseExperiences(sections[SectionExperience], source),
		Education:      parseEducation(sections[SectionEducation], source),
		Projects:       parseProjects(sections[SectionProjects], source),
		Certifications: parseCertifications(sections[SectionCertifications]),
	}

	skillLines := sections[SectionSkills]
	if len(skillLines) > 0 {
		facts.Skills = parseSkills(skillLines, source)
	} else {
		facts.Skills = skillFacts(matchKnownSkills(text), source)
	}

	if facts.Experiences == nil {
		facts.Experiences = []types.Experience{}
	}
	if facts.Education == nil {
		facts.Education = []types.Education{}
	}
	if facts.Projects == nil {
		facts.Projects = []types.Project{}
	}
	return facts
}

func hasRecords(f *types.NormalizedFacts) bool {
	return len(f.Experiences) > 0 || len(f.Education) > 0 || len(f.Skills) > 0 || len(f.Projects) > 0
}

// parseExperiences treats each non-bullet line carrying a date range as an entry header.
// Short non-bullet lines directly above it supply the company or role when the header line
// holds only part of them.
func parseExperiences(lines []string, source types.FactSource) []types.Experience {
	var out []types.Experience
	var pending []string
	var description []string

	flush := func() {
		if len(out) > 0 && len(description) > 0 {
			out[len(out)-1].Description = strings.Join(description, "\n")
		}
		description = nil
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		if isBullet(line) {
			description = append(description, pending...)
			pending = nil
			if text := stripBullet(line); text != "" {
				description = append(description, text)
			}
			continue
		}

		r, ok := findDateRange(line)
		if !ok {
			pending = append(pending, line)
			continue
		}

		headerLines, prose := splitPending(pending)
		description = append(description, prose...)
		flush()
		pending = nil

		exp := types.Experience{StartDate: r.Start, EndDate: r.End, Current: r.Current, Source: source}
		rest := parenthetical.ReplaceAllString(removeSpan(line, r.span[0], r.span[1]), "")
		fillExperienceHeader(&exp, splitParts(rest), headerLines)
		if exp.Company == "" && exp.Role == "" {
			continue
		}
		out = append(out, exp)
	}

	description = append(description, pending...)
	flush()
	return out
}

// splitPending separates the trailing header-like lines (at most two) from earlier prose
func splitPending(pending []string) (header, prose []string) {
	i := len(pending)
	for i > 0 && len(pending)-i < 2 && isHeaderLike(pending[i-1]) {
		i--
	}
	return pending[i:], pending[:i]
}

func isHeaderLike(line string) bool {
	return len(line) <= maxHeaderLine && !strings.HasSuffix(line, ".")
}

// fillExperienceHeader assigns role, company and location from the date line's parts and the
// header lines above it. Candidates are ordered date line first, then nearest line above, so the
// first candidate is the role unless a role keyword points elsewhere.
func fillExperienceHeader(exp *types.Experience, parts, above []string) {
	candidates := append([]string{}, parts...)
	for i := len(above) - 1; i >= 0; i-- {
		candidates = append(candidates, splitParts(above[i])...)
	}
	if len(candidates) == 0 {
		return
	}
	if len(candidates) == 1 {
		if looksLikeRole(candidates[0]) {
			exp.Role = candidates[0]
		} else {
			exp.Company = candidates[0]
		}
		return
	}

	roleIdx := 0
	for i, c := range candidates {
		if looksLikeRole(c) {
			roleIdx = i
			break
		}
	}
	exp.Role = candidates[roleIdx]

	var rest []string
	for i, c := range candidates {
		if i != roleIdx {
			rest = append(rest, c)
		}
	}
	exp.Company = rest[0]
	if len(rest) > 1 {
		exp.Location = rest[1]
	}
}

var (
	institutionPattern = regexp.MustCompile(`(?i)\b(university|college|institute|school|academy|polytechnic|universidad|universit)`)
	degreePattern      = regexp.MustCompile(`(?i)\b(bachelor|master|ph\.?\s?d|doctor|associate|diploma|mba|b\.?\s?s\.?c?|m\.?\s?s\.?c?|b\.?\s?a\.|m\.?\s?a\.|b\.?\s?eng|m\.?\s?eng|b\.?\s?tech|m\.?\s?tech|a\.?\s?s\.)(?:\W|$)`)
	fieldSeparator     = regexp.MustCompile(`(?i)\s+in\s+|,\s*`)
)

// parseEducation starts a new entry whenever a line names a second institution or a second degree
func parseEducation(lines []string, source types.FactSource) []types.Education {
	var out []types.Education
	var cur *types.Education

	for _, raw := range lines {
		line := stripBullet(raw)
		if line == "" {
			continue
		}

		var start, end string
		if r, ok := findDateRange(line); ok {
			start, end = r.Start, r.End
			line = removeSpan(line, r.span[0], r.span[1])
		} else if loc := singleDate.FindStringIndex(line); loc != nil && yearPattern.MatchString(line[loc[0]:loc[1]]) {
			end = normalizeDate(line[loc[0]:loc[1]])
			line = removeSpan(line, loc[0], loc[1])
		}

		var institution, degree, field string
		for _, part := range splitParts(parenthetical.ReplaceAllString(line, "")) {
			switch {
			case institution == "" && institutionPattern.MatchString(part):
				institution = part
			case degree == "" && degreePattern.MatchString(part):
				degree, field = splitDegree(part)
			case degree != "" && field == "" && institution == "":
				field = part
			}
		}

		newEntry := cur == nil ||
			(institution != "" && cur.Institution != "") ||
			(degree != "" && cur.Degree != "" && institution == "")
		if newEntry && (institution != "" || degree != "") {
			out = append(out, types.Education{Source: source})
			cur = &out[len(out)-1]
		}
		if cur == nil {
			continue
		}
		if institution != "" {
			cur.Institution = institution
		}
		if degree != "" {
			cur.Degree, cur.Field = degree, field
		}
		if start != "" {
			cur.StartDate = start
		}
		if end != "" {
			cur.EndDate = end
		}
	}

	kept := out[:0]
	for _, e := range out {
		if e.Institution != "" {
			kept = append(kept, e)
		}
	}
	return kept
}

// splitDegree separates "Bachelor of Science in Computer Science" into degree and field
func splitDegree(part string) (degree, field string) {
	if loc := fieldSeparator.FindStringIndex(part); loc != nil && loc[0] > 0 {
		return trimSeparators(part[:loc[0]]), trimSeparators(part[loc[1]:])
	}
	loc := degreePattern.FindStringSubmatchIndex(part)
	if loc == nil {
		return part, ""
	}
	rest := strings.TrimSpace(part[loc[3]:])
	rest = strings.TrimLeft(rest, ". ")
	if rest == "" || strings.HasPrefix(strings.ToLower(rest), "of ") {
		return part, ""
	}
	return trimSeparators(part[:loc[3]]), trimSeparators(rest)
}

var skillSeparators = regexp.MustCompile(`\s*(?:,|;|\||•|·)\s*`)

// parseSkills splits the skills block into tokens, dropping "Label:" prefixes
func parseSkills(lines []string, source types.FactSource) []types.SkillFact {
	var names []string
	for _, raw := range lines {
		line := stripBullet(raw)
		if idx := strings.Index(line, ":"); idx >= 0 && idx < 40 && !strings.Contains(line[:idx], "//") {
			line = line[idx+1:]
		}
		for _, token := range skillSeparators.Split(line, -1) {
			token = trimSeparators(token)
			if token == "" || len(token) > 40 || len(strings.Fields(token)) > 4 {
				continue
			}
			names = append(names, token)
		}
	}
	return skillFacts(names, source)
}

func skillFacts(names []string, source types.FactSource) []types.SkillFact {
	facts := make([]types.SkillFact, 0, len(names))
	for _, n := range names {
		facts = append(facts, types.SkillFact{Name: n, Sources: []types.FactSource{source}})
	}
	return NormalizeSkills(facts)
}

var projectTitleSeparator = regexp.MustCompile(`\s+[-–—|]\s+|:\s+`)

// parseProjects opens a project on each short non-bullet line; bullets and long lines describe it
func parseProjects(lines []string, source types.FactSource) []types.Project {
	var out []types.Project
	var description []string

	finish := func() {
		if len(out) == 0 {
			return
		}
		p := &out[len(out)-1]
		p.Description = strings.TrimSpace(strings.Join(append(splitNonEmpty(p.Description), description...), "\n"))
		p.Tags = matchKnownSkills(p.Title + "\n" + p.Description)
		description = nil
	}

	for _, raw := range lines {
		if raw == "" {
			continue
		}
		line, urls := extractURLs(raw)
		bullet := isBullet(line)
		line = stripBullet(line)

		if !bullet && len(line) <= maxHeaderLine && line != "" {
			finish()
			p := types.Project{Source: source}
			if loc := projectTitleSeparator.FindStringIndex(line); loc != nil {
				p.Title = trimSeparators(line[:loc[0]])
				p.Description = trimSeparators(line[loc[1]:])
			} else {
				p.Title = trimSeparators(line)
			}
			out = append(out, p)
		} else if line != "" {
			description = append(description, line)
		}

		if len(out) > 0 {
			assignURLs(&out[len(out)-1], urls)
		}
	}
	finish()

	kept := out[:0]
	for _, p := range out {
		if p.Title != "" {
			kept = append(kept, p)
		}
	}
	return kept
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func extractURLs(line string) (string, []string) {
	urls := urlPattern.FindAllString(line, -1)
	if len(urls) == 0 {
		return line, nil
	}
	line = strings.ReplaceAll(urlPattern.ReplaceAllString(line, ""), "()", "")
	return strings.TrimSpace(line), urls
}

func assignURLs(p *types.Project, urls []string) {
	for _, u := range urls {
		u = canonicalURL(u)
		if strings.Contains(strings.ToLower(u), "github.com/") || strings.Contains(strings.ToLower(u), "gitlab.com/") {
			if p.RepoURL == "" {
				p.RepoURL = u
			}
			continue
		}
		if p.URL == "" {
			p.URL = u
		}
	}
}

func canonicalURL(u string) string {
	u = strings.TrimRight(u, ".,;)")
	if !strings.HasPrefix(strings.ToLower(u), "http") {
		u = "https://" + u
	}
	return u
}

func parseCertifications(lines []string) []string {
	var out []string
	for _, raw := range lines {
		if line := stripBullet(raw); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseContact classifies the parts of the lines above the first heading.
// The first plain line is the name; the next plain line is the headline.
func parseContact(lines []string) *types.ContactInfo {
	var c types.ContactInfo
	for _, line := range lines {
		if line == "" {
			continue
		}
		plain := true
		for _, part := range headerSeparators.Split(line, -1) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if classifyContactPart(&c, part) {
				plain = false
			}
		}
		if !plain {
			continue
		}
		switch {
		case c.Name == "" && len(strings.Fields(line)) <= 5:
			c.Name = line
		case c.Headline == "" && c.Name != "" && len(line) <= 120:
			c.Headline = line
		}
	}
	if c == (types.ContactInfo{}) {
		return nil
	}
	return &c
}

// classifyContactPart fills the contact field a part belongs to, reporting whether it matched
func classifyContactPart(c *types.ContactInfo, part string) bool {
	lower := strings.ToLower(part)
	switch {
	case emailPattern.MatchString(part):
		if c.Email == "" {
			c.Email = emailPattern.FindString(part)
		}
	case strings.Contains(lower, "linkedin.com/"):
		if c.LinkedIn == "" {
			c.LinkedIn = canonicalURL(urlPattern.FindString(part))
		}
	case strings.Contains(lower, "github.com/"):
		if c.GitHub == "" {
			c.GitHub = canonicalURL(urlPattern.FindString(part))
		}
	case urlPattern.MatchString(part):
		if c.Website == "" {
			c.Website = canonicalURL(urlPattern.FindString(part))
		}
	case phonePattern.MatchString(part) && !strings.ContainsAny(part, "abcdefghijklmnopqrstuvwxyz"):
		if c.Phone == "" {
			c.Phone = strings.TrimSpace(phonePattern.FindString(part))
		}
	case locationPattern.MatchString(part) && len(part) <= 60:
		if c.Location == "" {
			c.Location = part
		}
	default:
		return false
	}
	return true
}
