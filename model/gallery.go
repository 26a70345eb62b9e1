package model

import (
	"encoding/json"
	"sort"
	"time"
)

// ScoreDeleted is the sentinel rating for a gallery that has been withdrawn
// at the source. Records carrying it are never tag-synced again.
const ScoreDeleted = -1.0

// GalleryRecord is the persisted row for one gallery identity. Exactly one
// record exists per identity; it is created on the first successful upload
// and mutated by later syncs, never deleted.
type GalleryRecord struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	TitleAlt    string  `json:"title_alt,omitempty"`
	Tags        string  `json:"tags"`         // serialized snapshot, see TagSnapshot
	PublishDate string  `json:"publish_date"` // YYYY-MM-DD, source-asserted
	Score       float64 `json:"score"`
	// UploadedImages may be capped below the true image count. Once it has
	// exceeded the configured cap, later syncs must not re-impose the cap.
	UploadedImages int    `json:"uploaded_images"`
	ArticleURL     string `json:"article_url"`
	MessageID      int64  `json:"message_id"`
}

// PublishedAt parses the source-asserted publish date. A zero time is
// returned for records predating the date field.
func (r *GalleryRecord) PublishedAt() time.Time {
	t, err := time.Parse("2006-01-02", r.PublishDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DiscoveredGallery is one catalog search hit, alive for a single sync pass.
type DiscoveredGallery struct {
	URL   string
	Title string
	// Limit reports whether the configured image cap applies to this upload.
	Limit bool
	// ForceUpdate marks an operator-requested refresh rather than a passive
	// rediscovery.
	ForceUpdate bool
}

// FullGalleryInfo is the expanded form of a DiscoveredGallery, carrying the
// tag mapping and the ordered image page references.
type FullGalleryInfo struct {
	URL         string
	Title       string
	TitleAlt    string
	Tags        map[string][]string
	PublishDate time.Time
	Score       float64
	ImagePages  []string
}

// PreferredTitle returns the localized title when the source provides one.
func (g *FullGalleryInfo) PreferredTitle() string {
	if g.TitleAlt != "" {
		return g.TitleAlt
	}
	return g.Title
}

// TagSnapshot serializes a tag mapping into the canonical form stored on the
// record and compared during tag sync. Categories and values are emitted in
// sorted order so two equal mappings always produce identical bytes.
func TagSnapshot(tags map[string][]string) string {
	canon := make(map[string][]string, len(tags))
	for k, v := range tags {
		vals := append([]string(nil), v...)
		sort.Strings(vals)
		canon[k] = vals
	}
	b, err := json.Marshal(canon)
	if err != nil {
		return ""
	}
	return string(b)
}
