package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Valid until: June 1, 2024", CleanText("  Valid until:\n\n  June 1, 2024 \t"))
	require.Equal(t, "", CleanText(" \n"))
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><b>Discovered:</b>May 1<br><b>Valid:</b>(indefinite)</div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "Discovered: May 1 Valid: (indefinite)", SelectionText(doc.Find("div")))
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p>
		<a href=" https://hsr.hoyoverse.com/gift?code=X ">redeem</a>
		<a name="no-href">anchor</a>
		<a href="http://[::1">broken</a>
		<a href="#cite_note-1">[1]</a>
	</p>`))
	require.NoError(t, err)

	require.Equal(t, []Anchor{
		{Name: "redeem", Href: "https://hsr.hoyoverse.com/gift?code=X"},
		{Name: "[1]", Href: "#cite_note-1"},
	}, GetAnchors(doc.Find("a")))
}
