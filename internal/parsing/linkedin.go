package parsing

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/jonathan/portfolio-generator/internal/types"
)

// LinkedIn data-export file names (matched case-insensitively, at any depth in the archive)
const (
	linkedInProfile        = "profile.csv"
	linkedInPositions      = "positions.csv"
	linkedInEducation      = "education.csv"
	linkedInSkills         = "skills.csv"
	linkedInProjects       = "projects.csv"
	linkedInCertifications = "certifications.csv"
	linkedInEmails         = "email addresses.csv"
)

// ParseLinkedIn extracts normalized facts from a LinkedIn data export (ZIP of CSVs)
// or a saved profile PDF/text
func ParseLinkedIn(data []byte, fileName string) (*types.NormalizedFacts, error) {
	format, err := DetectFormat(data, fileName)
	if err != nil {
		return nil, err
	}

	var facts *types.NormalizedFacts
	if format == FormatZIP {
		facts, err = parseLinkedInExport(data, fileName)
		if err != nil {
			return nil, err
		}
	} else {
		text, err := ExtractText(data, fileName)
		if err != nil {
			return nil, err
		}
		facts = ParseText(text, types.SourceLinkedIn)
	}

	if !hasRecords(facts) {
		return nil, &ParseError{FileName: fileName, Message: "no positions, education, skills or projects found"}
	}
	return facts, nil
}

// csvTable is a CSV file keyed by lowercased header
type csvTable []map[string]string

func (t csvTable) col(row map[string]string, name string) string {
	return strings.TrimSpace(row[strings.ToLower(name)])
}

func parseLinkedInExport(data []byte, fileName string) (*types.NormalizedFacts, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{FileName: fileName, Message: "invalid ZIP archive", Cause: err}
	}

	files := make(map[string]*zip.File)
	for _, f := range zr.File {
		name := strings.ToLower(path.Base(strings.ReplaceAll(f.Name, "\\", "/")))
		files[name] = f
	}

	tables := make(map[string]csvTable)
	for name, keyColumn := range map[string]string{
		linkedInProfile:        "First Name",
		linkedInPositions:      "Company Name",
		linkedInEducation:      "School Name",
		linkedInSkills:         "Name",
		linkedInProjects:       "Title",
		linkedInCertifications: "Name",
		linkedInEmails:         "Email Address",
	} {
		f, ok := files[name]
		if !ok {
			continue
		}
		table, err := readCSV(f, keyColumn)
		if err != nil {
			return nil, &ParseError{FileName: fileName, Message: "failed to read " + f.Name, Cause: err}
		}
		tables[name] = table
	}
	if len(tables) == 0 {
		return nil, &ParseError{FileName: fileName, Message: "archive contains no LinkedIn export files"}
	}

	src := types.SourceLinkedIn
	facts := &types.NormalizedFacts{
		Source:      src,
		Contact:     linkedInContact(tables[linkedInProfile], tables[linkedInEmails]),
		Experiences: []types.Experience{},
		Education:   []types.Education{},
		Projects:    []types.Project{},
	}

	t := tables[linkedInPositions]
	for _, row := range t {
		exp := types.Experience{
			Company:     t.col(row, "Company Name"),
			Role:        t.col(row, "Title"),
			Description: t.col(row, "Description"),
			Location:    t.col(row, "Location"),
			StartDate:   normalizeDate(t.col(row, "Started On")),
			EndDate:     normalizeDate(t.col(row, "Finished On")),
			Source:      src,
		}
		exp.Current = exp.EndDate == ""
		if exp.Company == "" && exp.Role == "" {
			continue
		}
		facts.Experiences = append(facts.Experiences, exp)
	}

	t = tables[linkedInEducation]
	for _, row := range t {
		edu := types.Education{
			Institution: t.col(row, "School Name"),
			StartDate:   normalizeDate(t.col(row, "Start Date")),
			EndDate:     normalizeDate(t.col(row, "End Date")),
			Source:      src,
		}
		edu.Degree, edu.Field = splitLinkedInDegree(t.col(row, "Degree Name"))
		if edu.Institution == "" {
			continue
		}
		facts.Education = append(facts.Education, edu)
	}

	t = tables[linkedInSkills]
	var skillNames []string
	for _, row := range t {
		if name := t.col(row, "Name"); name != "" {
			skillNames = append(skillNames, name)
		}
	}
	facts.Skills = skillFacts(skillNames, src)

	t = tables[linkedInProjects]
	for _, row := range t {
		p := types.Project{
			Title:       t.col(row, "Title"),
			Description: t.col(row, "Description"),
			Source:      src,
		}
		if u := t.col(row, "Url"); u != "" {
			assignURLs(&p, []string{u})
		}
		if p.Title == "" {
			continue
		}
		p.Tags = matchKnownSkills(p.Title + "\n" + p.Description)
		facts.Projects = append(facts.Projects, p)
	}

	t = tables[linkedInCertifications]
	for _, row := range t {
		name := t.col(row, "Name")
		if name == "" {
			continue
		}
		if authority := t.col(row, "Authority"); authority != "" {
			name += " - " + authority
		}
		facts.Certifications = append(facts.Certifications, name)
	}

	return facts, nil
}

// splitLinkedInDegree separates "Bachelor of Science - BS, Computer Science" style values
func splitLinkedInDegree(s string) (degree, field string) {
	if s == "" {
		return "", ""
	}
	if idx := strings.Index(s, ", "); idx > 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:])
	}
	return s, ""
}

func linkedInContact(profile, emails csvTable) *types.ContactInfo {
	var c types.ContactInfo
	if len(profile) > 0 {
		row := profile[0]
		c.Name = strings.TrimSpace(profile.col(row, "First Name") + " " + profile.col(row, "Last Name"))
		c.Headline = profile.col(row, "Headline")
		c.Location = profile.col(row, "Geo Location")
		for _, u := range urlPattern.FindAllString(profile.col(row, "Websites"), -1) {
			u = canonicalURL(u)
			switch {
			case strings.Contains(strings.ToLower(u), "github.com/") && c.GitHub == "":
				c.GitHub = u
			case c.Website == "":
				c.Website = u
			}
		}
	}
	for _, row := range emails {
		addr := emails.col(row, "Email Address")
		if addr == "" {
			continue
		}
		if c.Email == "" || strings.EqualFold(emails.col(row, "Primary"), "yes") {
			c.Email = addr
		}
	}
	if c == (types.ContactInfo{}) {
		return nil
	}
	return &c
}

// readCSV reads a zipped CSV, skipping any preamble rows before the header containing keyColumn
func readCSV(f *zip.File, keyColumn string) (csvTable, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var header []string
	var table csvTable
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header == nil {
			for _, cell := range record {
				if strings.EqualFold(strings.TrimSpace(cell), keyColumn) {
					header = record
					break
				}
			}
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.ToLower(strings.TrimSpace(name))] = record[i]
			}
		}
		table = append(table, row)
	}
	return table, nil
}
