// Package compose renders the article body and the channel message from
// gallery metadata and resolved media URLs.
package compose

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/exmirror/gallerysync/model"
)

// tokenFolds normalizes tag text into hashtag-safe tokens. The "_|_" fold
// splits a combined tag into two hashtags and must run after the space fold.
var tokenFolds = []struct{ from, to string }{
	{" ", "_"},
	{"_|_", " #"},
	{"-", "_"},
	{"/", "_"},
	{"·", "_"},
}

// hashtag turns one translated tag value into a hashtag token.
func hashtag(value string) string {
	for _, f := range tokenFolds {
		value = strings.ReplaceAll(value, f.from, f.to)
	}
	return "#" + value
}

// TagsBlock renders the tag mapping as one line per category: a fixed-width
// label followed by space-joined hashtag tokens. Categories render in sorted
// order so the output is stable between syncs.
func TagsBlock(tags map[string][]string, tr *Translator) string {
	categories := make([]string, 0, len(tags))
	for c := range tags {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	lines := make([]string, 0, len(categories))
	for _, category := range categories {
		tokens := make([]string, 0, len(tags[category]))
		for _, value := range tags[category] {
			tokens = append(tokens, hashtag(tr.Translate(category, value)))
		}
		lines = append(lines, fmt.Sprintf("<code>%8s</code>: %s",
			tr.CategoryLabel(category), strings.Join(tokens, " ")))
	}
	return strings.Join(lines, "\n")
}

// Message builds the channel message text: the tag block, a preview link to
// the article and a link back to the source item.
func Message(g *model.FullGalleryInfo, articleURL string, tr *Translator) string {
	var b strings.Builder
	b.WriteString(TagsBlock(g.Tags, tr))
	b.WriteString(fmt.Sprintf("\n<code> preview</code>: <a href=\"%s\">%s</a>",
		articleURL, html.EscapeString(g.PreferredTitle())))
	b.WriteString(fmt.Sprintf("\n<code>  source</code>: %s", g.URL))
	return b.String()
}
