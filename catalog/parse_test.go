package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, src string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return d
}

const searchPage = `
<table class="itg">
  <tr><td class="glname"><a href="https://example.org/g/2/b"><div class="glink">Second</div></a></td></tr>
  <tr><td class="glname"><a href="https://example.org/g/1/a"><div class="glink">First</div></a></td></tr>
</table>`

func TestParseSearchPage(t *testing.T) {
	galleries := parseSearchPage(doc(t, searchPage))
	require.Len(t, galleries, 2)

	// Listing order is preserved, newest first.
	assert.Equal(t, "https://example.org/g/2/b", galleries[0].URL)
	assert.Equal(t, "Second", galleries[0].Title)
	assert.True(t, galleries[0].Limit)
	assert.Equal(t, "First", galleries[1].Title)
}

const galleryPage = `
<h1 id="gn">english title</h1>
<h1 id="gj">日本語タイトル</h1>
<div id="gdd"><table>
  <tr><td class="gdt1">Posted:</td><td class="gdt2">2024-06-01 10:30</td></tr>
  <tr><td class="gdt1">Length:</td><td class="gdt2">42 pages</td></tr>
</table></div>
<p id="rating_label">Average: 4.53</p>
<div id="taglist"><table>
  <tr><td class="tc">artist:</td><td><div><a href="#">alice</a></div><div><a href="#">bob</a></div></td></tr>
  <tr><td class="tc">language:</td><td><div><a href="#">english</a></div></td></tr>
</table></div>
<div id="gdt">
  <a href="https://example.org/s/aa/1-1"></a>
  <a href="https://example.org/s/bb/1-2"></a>
</div>
<table class="ptt"><tr>
  <td>&lt;</td><td>1</td><td>2</td><td>3</td><td>&gt;</td>
</tr></table>`

func TestParseGalleryPage(t *testing.T) {
	info := parseGalleryPage(doc(t, galleryPage))

	assert.Equal(t, "english title", info.Title)
	assert.Equal(t, "日本語タイトル", info.TitleAlt)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), info.PublishDate)
	assert.Equal(t, 4.53, info.Score)

	assert.Equal(t, map[string][]string{
		"artist":   {"alice", "bob"},
		"language": {"english"},
	}, info.Tags)

	assert.Equal(t, []string{
		"https://example.org/s/aa/1-1",
		"https://example.org/s/bb/1-2",
	}, info.ImagePages)
}

func TestGalleryPageCount(t *testing.T) {
	assert.Equal(t, 3, galleryPageCount(doc(t, galleryPage)))

	// No paginator means a single listing page.
	assert.Equal(t, 1, galleryPageCount(doc(t, `<div id="gdt"></div>`)))
}
