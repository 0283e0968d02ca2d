package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readmeNoise are elements dropped from the rendered README before text extraction
const readmeNoise = "img, svg, picture, script, style, video, iframe"

// fetchReadme fetches the rendered README and reduces it to plain text
func (c *Client) fetchReadme(ctx context.Context, name string) (string, error) {
	body, _, err := c.get(ctx, c.repoPath(name, "readme"), nil, mediaTypeHTML)
	if err != nil {
		return "", err
	}
	return ReadmeText(string(body))
}

// ReadmeText converts rendered README HTML to plain text, one block per line
func ReadmeText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse README HTML: %w", err)
	}
	doc.Find(readmeNoise).Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, td").Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (p inside li) are emitted by their outermost block only.
		if s.ParentsFiltered("li, pre, td").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if goquery.NodeName(s) == "pre" {
			text = strings.TrimSpace(s.Text())
		}
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})

	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(lines, "\n"), nil
}
