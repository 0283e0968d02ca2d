package parsing

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-generator/internal/types"
)

const sampleResume = `Jane Doe
Senior Software Engineer
jane@example.com | (555) 123-4567 | San Francisco, CA
github.com/janedoe | linkedin.com/in/janedoe

Experience
Senior Engineer | Acme Corp | Jan 2020 - Present
- Built the billing platform in Go
- Led a team of 4
Globex
Software Engineer, Jun 2017 - Dec 2019
- Shipped React dashboards

Education
Stanford University
B.S. in Computer Science, 2013 - 2017

Skills
Languages: Go, Python, TypeScript
Tools: Docker, k8s

Projects
Portfolio Generator - Builds sites from GitHub (github.com/janedoe/pg)
- Written in Go with PostgreSQL

Certifications
- AWS Certified Developer
`

func TestParseResume_Text(t *testing.T) {
	facts, err := ParseResume([]byte(sampleResume), "resume.txt")
	require.NoError(t, err)
	assert.Equal(t, types.SourceResume, facts.Source)

	require.NotNil(t, facts.Contact)
	assert.Equal(t, types.ContactInfo{
		Name:     "Jane Doe",
		Headline: "Senior Software Engineer",
		Email:    "jane@example.com",
		Phone:    "(555) 123-4567",
		Location: "San Francisco, CA",
		LinkedIn: "https://linkedin.com/in/janedoe",
		GitHub:   "https://github.com/janedoe",
	}, *facts.Contact)

	require.Len(t, facts.Experiences, 2)
	assert.Equal(t, types.Experience{
		Company:     "Acme Corp",
		Role:        "Senior Engineer",
		StartDate:   "2020-01",
		Current:     true,
		Description: "Built the billing platform in Go\nLed a team of 4",
		Source:      types.SourceResume,
	}, facts.Experiences[0])
	assert.Equal(t, "Globex", facts.Experiences[1].Company)
	assert.Equal(t, "Software Engineer", facts.Experiences[1].Role)
	assert.Equal(t, "2017-06", facts.Experiences[1].StartDate)
	assert.Equal(t, "2019-12", facts.Experiences[1].EndDate)
	assert.False(t, facts.Experiences[1].Current)
	assert.Equal(t, "Shipped React dashboards", facts.Experiences[1].Description)

	require.Len(t, facts.Education, 1)
	assert.Equal(t, types.Education{
		Institution: "Stanford University",
		Degree:      "B.S.",
		Field:       "Computer Science",
		StartDate:   "2013",
		EndDate:     "2017",
		Source:      types.SourceResume,
	}, facts.Education[0])

	var skillNames []string
	for _, s := range facts.Skills {
		skillNames = append(skillNames, s.Name)
		assert.Equal(t, []types.FactSource{types.SourceResume}, s.Sources)
	}
	assert.Equal(t, []string{"Go", "Python", "TypeScript", "Docker", "Kubernetes"}, skillNames)

	require.Len(t, facts.Projects, 1)
	assert.Equal(t, "Portfolio Generator", facts.Projects[0].Title)
	assert.Equal(t, "Builds sites from GitHub\nWritten in Go with PostgreSQL", facts.Projects[0].Description)
	assert.Equal(t, "https://github.com/janedoe/pg", facts.Projects[0].RepoURL)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, facts.Projects[0].Tags)

	assert.Equal(t, []string{"AWS Certified Developer"}, facts.Certifications)
}

func TestParseResume_SkillsFallbackToKnownTokens(t *testing.T) {
	text := "John Smith\n\nExperience\nBackend Developer at Initech, 2019 - 2022\n- Wrote services in Python and Kafka\n"
	facts, err := ParseResume([]byte(text), "resume.txt")
	require.NoError(t, err)

	var names []string
	for _, s := range facts.Skills {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Python", "Kafka"}, names)
	require.Len(t, facts.Experiences, 1)
	assert.Equal(t, "Initech", facts.Experiences[0].Company)
	assert.Equal(t, "Backend Developer", facts.Experiences[0].Role)
}

func TestParseResume_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "empty document",
			data:     []byte("  \n "),
			fileName: "resume.txt",
			check: func(t *testing.T, err error) {
				var parseErr *ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "corrupt pdf",
			data:     []byte("%PDF-1.4 this is not really a pdf"),
			fileName: "resume.pdf",
			check: func(t *testing.T, err error) {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Contains(t, parseErr.Error(), "failed to read PDF")
			},
		},
		{
			name:     "binary blob",
			data:     []byte{0xff, 0xfe, 0x00, 0x81},
			fileName: "resume.docx",
			check: func(t *testing.T, err error) {
				var formatErr *UnsupportedFormatError
				assert.ErrorAs(t, err, &formatErr)
			},
		},
		{
			name:     "no recognizable records",
			data:     []byte("hello there\nthis is a note"),
			fileName: "notes.txt",
			check: func(t *testing.T, err error) {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Contains(t, parseErr.Error(), "notes.txt")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := ParseResume(tt.data, tt.fileName)
			require.Error(t, err)
			assert.Nil(t, facts)
			tt.check(t, err)
		})
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseLinkedIn_Export(t *testing.T) {
	data := buildZip(t, map[string]string{
		"Basic_LinkedInDataExport/Profile.csv": "\xef\xbb\xbfFirst Name,Last Name,Maiden Name,Address,Birth Date,Headline,Summary,Industry,Zip Code,Geo Location,Twitter Handles,Websites,Instant Messengers\n" +
			`Jane,Doe,,,,Staff Engineer,,,,San Francisco Bay Area,,"[PORTFOLIO:https://jane.dev],[OTHER:https://github.com/janedoe]",` + "\n",
		"Basic_LinkedInDataExport/Positions.csv": "Company Name,Title,Description,Location,Started On,Finished On\n" +
			`Acme Corp,Senior Engineer,Built billing,"San Francisco, CA",Jan 2020,` + "\n" +
			"Globex,Software Engineer,,,Jun 2017,Dec 2019\n",
		"Basic_LinkedInDataExport/Education.csv": "School Name,Start Date,End Date,Notes,Degree Name,Activities\n" +
			`Stanford University,2013,2017,,"Bachelor of Science - BS, Computer Science",` + "\n",
		"Basic_LinkedInDataExport/Skills.csv":          "Name\nGo\ngolang\nDocker\n",
		"Basic_LinkedInDataExport/Email Addresses.csv": "Email Address,Confirmed,Primary,Updated On\nold@example.com,Yes,No,\njane@example.com,Yes,Yes,\n",
		"Basic_LinkedInDataExport/Connections.csv":     "Notes:\nignored\n",
	})

	facts, err := ParseLinkedIn(data, "export.zip")
	require.NoError(t, err)
	assert.Equal(t, types.SourceLinkedIn, facts.Source)

	require.NotNil(t, facts.Contact)
	assert.Equal(t, "Jane Doe", facts.Contact.Name)
	assert.Equal(t, "Staff Engineer", facts.Contact.Headline)
	assert.Equal(t, "San Francisco Bay Area", facts.Contact.Location)
	assert.Equal(t, "https://jane.dev", facts.Contact.Website)
	assert.Equal(t, "https://github.com/janedoe", facts.Contact.GitHub)
	assert.Equal(t, "jane@example.com", facts.Contact.Email)

	require.Len(t, facts.Experiences, 2)
	assert.Equal(t, types.Experience{
		Company:     "Acme Corp",
		Role:        "Senior Engineer",
		Description: "Built billing",
		Location:    "San Francisco, CA",
		StartDate:   "2020-01",
		Current:     true,
		Source:      types.SourceLinkedIn,
	}, facts.Experiences[0])
	assert.Equal(t, "2019-12", facts.Experiences[1].EndDate)
	assert.False(t, facts.Experiences[1].Current)

	require.Len(t, facts.Education, 1)
	assert.Equal(t, "Bachelor of Science - BS", facts.Education[0].Degree)
	assert.Equal(t, "Computer Science", facts.Education[0].Field)

	require.Len(t, facts.Skills, 2)
	assert.Equal(t, "Go", facts.Skills[0].Name)
	assert.Equal(t, "Docker", facts.Skills[1].Name)
}

func TestParseLinkedIn_ProfileText(t *testing.T) {
	text := `Jane Doe
Staff Engineer at Acme
Experience
Acme Corp
Staff Engineer
March 2021 - Present (3 years)
Education
Massachusetts Institute of Technology
Master of Science, Computer Science (2015 - 2017)
`
	facts, err := ParseLinkedIn([]byte(text), "profile.txt")
	require.NoError(t, err)

	require.NotNil(t, facts.Contact)
	assert.Equal(t, "Jane Doe", facts.Contact.Name)
	assert.Equal(t, "Staff Engineer at Acme", facts.Contact.Headline)

	require.Len(t, facts.Experiences, 1)
	assert.Equal(t, "Acme Corp", facts.Experiences[0].Company)
	assert.Equal(t, "Staff Engineer", facts.Experiences[0].Role)
	assert.Equal(t, "2021-03", facts.Experiences[0].StartDate)
	assert.True(t, facts.Experiences[0].Current)
	assert.Equal(t, types.SourceLinkedIn, facts.Experiences[0].Source)

	require.Len(t, facts.Education, 1)
	assert.Equal(t, types.Education{
		Institution: "Massachusetts Institute of Technology",
		Degree:      "Master of Science",
		Field:       "Computer Science",
		StartDate:   "2015",
		EndDate:     "2017",
		Source:      types.SourceLinkedIn,
	}, facts.Education[0])
}

func TestParseLinkedIn_Errors(t *testing.T) {
	t.Run("corrupt zip", func(t *testing.T) {
		_, err := ParseLinkedIn([]byte("PK\x03\x04garbage"), "export.zip")
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("archive without export files", func(t *testing.T) {
		data := buildZip(t, map[string]string{"photo.txt": "nothing"})
		_, err := ParseLinkedIn(data, "export.zip")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Contains(t, parseErr.Message, "no LinkedIn export files")
	})

	t.Run("export without records", func(t *testing.T) {
		data := buildZip(t, map[string]string{"Profile.csv": "First Name,Last Name\nJane,Doe\n"})
		_, err := ParseLinkedIn(data, "export.zip")
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestParse_Dispatch(t *testing.T) {
	facts, err := Parse(types.SourceKindResume, []byte(sampleResume), "resume.txt")
	require.NoError(t, err)
	assert.Equal(t, types.SourceResume, facts.Source)

	_, err = Parse(types.SourceKindGitHub, []byte(sampleResume), "resume.txt")
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSplitSections(t *testing.T) {
	text := "Name\nEXPERIENCE:\nline a\n## Technical Skills\nGo\nAwards\nBest\nexperience\nline b"
	sections := SplitSections(text)

	assert.Equal(t, []string{"Name"}, sections[SectionHeader])
	assert.Equal(t, []string{"line a", "line b"}, sections[SectionExperience])
	assert.Equal(t, []string{"Go"}, sections[SectionSkills])
	assert.Equal(t, []string{"Best"}, sections[SectionOther])
}

func TestFindDateRange(t *testing.T) {
	tests := []struct {
		line    string
		start   string
		end     string
		current bool
		ok      bool
	}{
		{"Jan 2020 - Present", "2020-01", "", true, true},
		{"Engineer, September 2018 – March 2020", "2018-09", "2020-03", false, true},
		{"03/2016 to 11/2017", "2016-03", "2017-11", false, true},
		{"2014 - 2018", "2014", "2018", false, true},
		{"Since 2020", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, ok := findDateRange(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
			assert.Equal(t, tt.current, r.Current)
		})
	}
}

func TestMatchKnownSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "C++", "Docker"}, matchKnownSkills("Built in Go and C++, shipped with docker"))
	assert.Empty(t, matchKnownSkills("let's go get some rest on GitHub"))
}
