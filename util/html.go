package util

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// NodeText returns the concatenated text content of a node and its children.
func NodeText(node *html.Node) string {
	var buf bytes.Buffer
	nodeTextRecursive(node, &buf)
	return buf.String()
}

func nodeTextRecursive(node *html.Node, buf *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buf.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		nodeTextRecursive(child, buf)
	}
}

// CleanText collapses runs of whitespace into single spaces and trims the
// result. Listing markup nests titles and dates across several elements, so
// raw .Text() output is full of newlines and indentation.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most limit runes, appending an ellipsis when it had
// to cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
