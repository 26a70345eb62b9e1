package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/exmirror/gallerysync/model"
)

// parseSearchPage extracts gallery links from one listing page, in the
// catalog's newest-first order.
func parseSearchPage(doc *goquery.Document) []model.DiscoveredGallery {
	var galleries []model.DiscoveredGallery

	doc.Find("table.itg td.glname a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(sel.Find("div.glink").Text())
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}
		galleries = append(galleries, model.DiscoveredGallery{
			URL:   href,
			Title: title,
			Limit: true,
		})
	})

	return galleries
}

// parseGalleryPage extracts titles, tags, metadata rows and the first page of
// image references from a gallery page.
func parseGalleryPage(doc *goquery.Document) *model.FullGalleryInfo {
	info := &model.FullGalleryInfo{
		Title:    strings.TrimSpace(doc.Find("#gn").Text()),
		TitleAlt: strings.TrimSpace(doc.Find("#gj").Text()),
		Tags:     parseTags(doc),
	}

	doc.Find("#gdd tr").Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find("td.gdt1").Text())
		val := strings.TrimSpace(row.Find("td.gdt2").Text())
		if strings.HasPrefix(key, "Posted") {
			if t, err := time.Parse("2006-01-02 15:04", val); err == nil {
				info.PublishDate = t
			}
		}
	})

	if avg := doc.Find("#rating_label").Text(); avg != "" {
		fields := strings.Fields(avg)
		if len(fields) > 0 {
			if score, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
				info.Score = score
			}
		}
	}

	info.ImagePages = parseImagePages(doc)
	return info
}

// parseTags reads the category -> values table.
func parseTags(doc *goquery.Document) map[string][]string {
	tags := make(map[string][]string)

	doc.Find("#taglist tr").Each(func(_ int, row *goquery.Selection) {
		category := strings.TrimSuffix(strings.TrimSpace(row.Find("td.tc").Text()), ":")
		if category == "" {
			return
		}
		var values []string
		row.Find("div a").Each(func(_ int, a *goquery.Selection) {
			if v := strings.TrimSpace(a.Text()); v != "" {
				values = append(values, v)
			}
		})
		if len(values) > 0 {
			tags[category] = values
		}
	})

	return tags
}

// parseImagePages reads the ordered image page references from a gallery
// listing page.
func parseImagePages(doc *goquery.Document) []string {
	var pages []string
	doc.Find("#gdt a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			pages = append(pages, href)
		}
	})
	return pages
}
