package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exmirror/gallerysync/model"
)

func TestArticleComplete(t *testing.T) {
	body := Article([]string{"https://h/a.jpg", "https://h/b.jpg"}, 2, nil)
	assert.Equal(t, `<img src="https://h/a.jpg"><img src="https://h/b.jpg">`, body)
}

func TestArticleTruncated(t *testing.T) {
	body := Article([]string{"https://h/a.jpg"}, 3, nil)
	assert.Contains(t, body, `<img src="https://h/a.jpg">`)
	assert.Contains(t, body, "<p>uploaded 1/3, view the full gallery at the source</p>")
}

func TestArticleResumed(t *testing.T) {
	last := 5
	urls := make([]string, 10)
	for i := range urls {
		urls[i] = "u"
	}
	body := Article(urls, 10, &last)
	assert.Contains(t, body, "<p>uploaded 10/10, resumed from 5</p>")
	assert.NotContains(t, body, "source")
}

func TestHashtagFolding(t *testing.T) {
	assert.Equal(t, "#full_color", hashtag("full color"))
	assert.Equal(t, "#multi_part", hashtag("multi-part"))
	assert.Equal(t, "#a_b", hashtag("a/b"))
	assert.Equal(t, "#a_b", hashtag("a·b"))
	// The split marker yields two hashtags from one value.
	assert.Equal(t, "#big_breasts #paizuri", hashtag("big breasts_|_paizuri"))
}

func TestTagsBlockSortedWithLabels(t *testing.T) {
	tr := &Translator{table: map[string]map[string]string{
		"rows":   {"artist": "author"},
		"artist": {"alice": "アリス"},
	}}

	block := TagsBlock(map[string][]string{
		"language": {"english"},
		"artist":   {"alice"},
	}, tr)

	assert.Equal(t,
		"<code>  author</code>: #アリス\n<code>language</code>: #english",
		block)
}

func TestMessageLinksAndEscaping(t *testing.T) {
	g := &model.FullGalleryInfo{
		URL:      "https://example.org/g/1/abc",
		Title:    "A <Special> Title",
		Tags:     map[string][]string{"artist": {"alice"}},
	}

	text := Message(g, "https://host/page-1", NewTranslator())
	assert.Contains(t, text, `<a href="https://host/page-1">A &lt;Special&gt; Title</a>`)
	assert.Contains(t, text, "<code>  source</code>: https://example.org/g/1/abc")
	assert.Contains(t, text, "#alice")
}

func TestMessagePrefersLocalizedTitle(t *testing.T) {
	g := &model.FullGalleryInfo{
		URL:      "https://example.org/g/1/abc",
		Title:    "english title",
		TitleAlt: "日本語タイトル",
		Tags:     map[string][]string{},
	}

	text := Message(g, "https://host/p", NewTranslator())
	assert.Contains(t, text, ">日本語タイトル</a>")
}
