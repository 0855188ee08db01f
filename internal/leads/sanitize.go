package leads

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText strips markup and surrounding whitespace from user input.
// Entities are decoded, so "Tom &amp; Jerry" becomes "Tom & Jerry".
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// singleLine is plainText with inner whitespace runs collapsed to one space
func singleLine(s string) string {
	return strings.Join(strings.Fields(plainText(s)), " ")
}
