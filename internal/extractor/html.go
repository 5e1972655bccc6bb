package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xaenox/cvformat-bot/internal/classifier"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t]+`)
	blankLineRun = regexp.MustCompile(`\n\s*\n`)
)

// extractHTML flattens an HTML page to text. Pasted pages often are not CVs at
// all, so the text is only accepted when it reads like one.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("td, th").AppendHtml(" | ")
	doc.Find("p, li, tr, div, h1, h2, h3, h4, h5, h6").AppendHtml("\n")

	text := spaceRun.ReplaceAllString(doc.Text(), " ")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if !classifier.LooksLikeCV(text) {
		return "", fmt.Errorf("html content does not look like a CV")
	}
	return text, nil
}
