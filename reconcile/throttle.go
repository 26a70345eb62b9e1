package reconcile

import (
	"time"

	"github.com/exmirror/gallerysync/model"
)

// ShouldSyncTags is the throttle for the metadata-only refresh sweep. It
// bounds how often long-lived items hit the source and the messaging API:
// withdrawn galleries never refresh, neither does anything older than seven
// days, and items between two and seven days old refresh only every fourth
// hour.
func ShouldSyncTags(rec *model.GalleryRecord, now time.Time) bool {
	if rec.Score == model.ScoreDeleted {
		return false
	}

	age := now.Sub(rec.PublishedAt())
	days := int(age.Hours() / 24)

	if days > 7 {
		return false
	}
	if days > 2 && now.Hour()%4 != 0 {
		return false
	}
	return true
}

// TagsChanged compares the stored snapshot against a freshly fetched tag
// mapping.
func TagsChanged(rec *model.GalleryRecord, tags map[string][]string) bool {
	return rec.Tags != model.TagSnapshot(tags)
}
