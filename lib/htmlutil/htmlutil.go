package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	walkText(node, func(text string) {
		buffer.WriteString(text)
	})
	return buffer.String()
}

// GetSeparatedText joins every non-blank text node under node with a single
// space, so that "<b>Valid:</b>June 1" reads as "Valid: June 1".
func GetSeparatedText(node *html.Node) string {
	parts := []string{}
	walkText(node, func(text string) {
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// SelectionText is GetSeparatedText over every node of sel.
func SelectionText(sel *goquery.Selection) string {
	parts := []string{}
	for _, n := range sel.Nodes {
		text := GetSeparatedText(n)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func walkText(node *html.Node, visit func(string)) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		visit(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walkText(child, visit)
	}
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non printable runes and collapses runs of whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = innerWhitespace.ReplaceAllString(s, " ")
	s = removeNonPrintable(s)
	return strings.TrimSpace(s)
}

// GetAnchors returns the name and href of every <a> in sel that carries an
// href, hrefs that do not parse as urls are skipped.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href, ok := "", false
		for _, a := range n.Attr {
			if a.Key == "href" {
				href, ok = strings.TrimSpace(a.Val), true
				break
			}
		}
		if !ok {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}
		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Href: link.String(),
		})
	}
	return anchors
}
