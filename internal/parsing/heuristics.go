package parsing

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	monthPattern = `\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`
	datePattern  = `(?:` + monthPattern + `\s+\d{4}|\d{1,2}/\d{4}|\d{4})`
)

var (
	dateRangePattern = regexp.MustCompile(`(?i)(` + datePattern + `)\s*(?:-|–|—|to)\s*(` + datePattern + `|present|current|now|today)`)
	singleDate       = regexp.MustCompile(`(?i)` + datePattern)
	yearPattern      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	bulletPrefix     = regexp.MustCompile(`^(?:[-*•▪◦●‣–>]|\d{1,2}[.)])\s+`)
	parenthetical    = regexp.MustCompile(`\([^)]*\)`)
	urlPattern       = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s()<>\[\]]+|\b(?:github\.com|linkedin\.com|gitlab\.com)/[^\s()<>\[\]]+`)
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern     = regexp.MustCompile(`\+?\(?\d[\d\s().-]{7,}\d`)
	locationPattern  = regexp.MustCompile(`^[A-Z][A-Za-z .'-]+,\s*[A-Z][A-Za-z .]+$`)
	headerSeparators = regexp.MustCompile(`\s*(?:\||·|•|\s[-–—]\s)\s*`)
	atSeparator      = regexp.MustCompile(`(?i)\s+(?:at|@)\s+`)
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// dateRange is a start/end pair found on a line
type dateRange struct {
	Start   string
	End     string
	Current bool
	span    [2]int
}

// findDateRange locates a "start - end" range. Dates are normalized to YYYY-MM or YYYY;
// an open end (present, current) sets Current and leaves End empty.
func findDateRange(line string) (dateRange, bool) {
	m := dateRangePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return dateRange{}, false
	}
	r := dateRange{
		Start: normalizeDate(line[m[2]:m[3]]),
		span:  [2]int{m[0], m[1]},
	}
	end := line[m[4]:m[5]]
	switch strings.ToLower(end) {
	case "present", "current", "now", "today":
		r.Current = true
	default:
		r.End = normalizeDate(end)
	}
	return r, true
}

// normalizeDate converts "Jan 2020", "01/2020" and "2020" to YYYY-MM or YYYY.
// Unrecognized input is returned trimmed.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if slash := strings.Index(s, "/"); slash > 0 {
		month, err1 := strconv.Atoi(s[:slash])
		year, err2 := strconv.Atoi(s[slash+1:])
		if err1 == nil && err2 == nil && month >= 1 && month <= 12 {
			return formatYearMonth(year, month)
		}
	}
	fields := strings.Fields(s)
	if len(fields) == 2 {
		key := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		if len(key) >= 3 {
			if month, ok := monthNumbers[key[:3]]; ok {
				if year, err := strconv.Atoi(fields[1]); err == nil {
					return formatYearMonth(year, month)
				}
			}
		}
	}
	if year := yearPattern.FindString(s); year != "" && len(s) == 4 {
		return year
	}
	return s
}

func formatYearMonth(year, month int) string {
	return strconv.Itoa(year) + "-" + twoDigits(month)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func isBullet(line string) bool {
	return bulletPrefix.MatchString(line)
}

func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
}

// removeSpan cuts [start,end) out of line and trims leftover separators
func removeSpan(line string, start, end int) string {
	return trimSeparators(line[:start] + " " + line[end:])
}

func trimSeparators(s string) string {
	return strings.Trim(strings.TrimSpace(s), " ,|·•-–—:;")
}

// splitParts splits a header line on visual separators, falling back to ", " when none is present
func splitParts(s string) []string {
	var raw []string
	if at := atSeparator.FindStringIndex(s); at != nil {
		raw = append(raw, s[:at[0]])
		raw = append(raw, headerSeparators.Split(s[at[1]:], -1)...)
	} else {
		raw = headerSeparators.Split(s, -1)
		if len(raw) == 1 {
			raw = strings.SplitN(s, ", ", 2)
		}
	}
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = trimSeparators(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// roleKeywords identify which header part names a position rather than an employer
var roleKeywords = []string{
	"engineer", "developer", "programmer", "manager", "lead", "intern", "scientist", "analyst",
	"designer", "architect", "consultant", "director", "founder", "cto", "ceo", "head of",
	"specialist", "administrator", "researcher", "assistant", "associate", "officer", "sre",
	"devops", "principal", "staff", "member of technical staff",
}

func looksLikeRole(s string) bool {
	lower := strings.ToLower(s)
	for _, k := range roleKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// knownSkills is the token list matched when a document has no explicit skills block,
// and for tagging project entries
var knownSkills = []string{
	"Go", "Python", "JavaScript", "TypeScript", "Java", "Kotlin", "Rust", "C++", "C#", "Ruby", "PHP",
	"Swift", "Scala", "Elixir", "SQL", "HTML", "CSS", "Bash",
	"React", "Vue", "Angular", "Svelte", "Next.js", "Node.js", "Django", "Flask", "FastAPI", "Rails",
	"Spring", "Express", "GraphQL", "gRPC", "REST",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "RabbitMQ", "Elasticsearch", "SQLite",
	"Docker", "Kubernetes", "Terraform", "Ansible", "AWS", "GCP", "Azure", "Linux", "Git", "CI/CD",
	"TensorFlow", "PyTorch", "Pandas", "NumPy", "Machine Learning", "Spark", "Airflow",
}

// caseSensitiveSkills are names that are also ordinary English words in lowercase
var caseSensitiveSkills = map[string]bool{
	"Go": true, "REST": true, "Express": true, "Spring": true, "Rails": true, "Spark": true, "Swift": true,
}

var knownSkillPatterns = buildKnownSkillPatterns()

func buildKnownSkillPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(knownSkills))
	for i, s := range knownSkills {
		flags := "(?i)"
		if caseSensitiveSkills[s] {
			flags = ""
		}
		patterns[i] = regexp.MustCompile(flags + `(?:^|[^A-Za-z0-9+#])` + regexp.QuoteMeta(s) + `(?:$|[^A-Za-z0-9+#])`)
	}
	return patterns
}

// matchKnownSkills returns the known skills mentioned in text, in list order
func matchKnownSkills(text string) []string {
	var found []string
	for i, p := range knownSkillPatterns {
		if p.MatchString(text) {
			found = append(found, knownSkills[i])
		}
	}
	return found
}
