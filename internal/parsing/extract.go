package parsing

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Format is the container format of an uploaded document
type Format string

// Format constants
const (
	FormatPDF  Format = "pdf"
	FormatZIP  Format = "zip"
	FormatText Format = "text"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat sniffs the payload, falling back to the file extension
func DetectFormat(data []byte, fileName string) (Format, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		return FormatZIP, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FormatPDF, nil
	case ".zip":
		return FormatZIP, nil
	}
	if utf8.Valid(data) {
		return FormatText, nil
	}
	return "", &UnsupportedFormatError{FileName: fileName}
}

// ExtractText returns the plain text of a PDF or text document
func ExtractText(data []byte, fileName string) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &ParseError{FileName: fileName, Message: "document is empty"}
	}

	format, err := DetectFormat(data, fileName)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
		if err != nil {
			return "", &ParseError{FileName: fileName, Message: "failed to read PDF", Cause: err}
		}
	case FormatText:
		text = string(data)
	default:
		return "", &UnsupportedFormatError{FileName: fileName}
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", &ParseError{FileName: fileName, Message: "document contains no extractable text"}
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	// Row-ordered text keeps each visual line on its own line, which the section splitter needs.
	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			buf.WriteString(line.String())
			buf.WriteString("\n")
		}
	}
	if strings.TrimSpace(buf.String()) != "" {
		return buf.String(), nil
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if _, err := io.Copy(&out, plain); err != nil {
		return "", err
	}
	return out.String(), nil
}

// normalizeWhitespace unifies line endings, trims each line and collapses runs of blank lines
func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
