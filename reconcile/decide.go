// Package reconcile classifies a freshly discovered gallery against its
// persisted record and picks the required sync action.
package reconcile

import (
	"fmt"
	"time"

	"github.com/exmirror/gallerysync/model"
)

// Action is the closed set of outcomes for one gallery.
type Action int

const (
	// Insert publishes a gallery with no persisted record.
	Insert Action = iota
	// UpdateInPlace edits the existing article and message.
	UpdateInPlace
	// Republish posts a new message for stale existing content while
	// keeping the record identity.
	Republish
	// SkipAlreadyComplete means every image of the gallery is mirrored.
	SkipAlreadyComplete
	// SkipQuotaReached means the capped upload is already complete.
	SkipQuotaReached
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case UpdateInPlace:
		return "update_in_place"
	case Republish:
		return "republish"
	case SkipAlreadyComplete:
		return "skip_already_complete"
	case SkipQuotaReached:
		return "skip_quota_reached"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// updateWindow is how long an existing message stays editable before a
// rediscovery republishes instead.
const updateWindow = 7 * 24 * time.Hour

// Decision is the outcome of classifying one gallery.
type Decision struct {
	Action Action
	// Uncap is set when a full version was committed to in the past; the
	// configured image cap must not be re-imposed for this gallery.
	Uncap bool
	// Previous carries the existing record for update and republish actions.
	Previous *model.GalleryRecord
}

// Skip reports whether the decision requires no work.
func (d Decision) Skip() bool {
	return d.Action == SkipAlreadyComplete || d.Action == SkipQuotaReached
}

// Decide maps (existing record, discovered gallery) to an action.
// trueTotal is the gallery's actual image count, cap the configured
// per-gallery upload maximum.
func Decide(existing *model.GalleryRecord, candidate model.DiscoveredGallery, trueTotal, cap int, now time.Time) Decision {
	if existing == nil {
		return Decision{Action: Insert}
	}

	if candidate.ForceUpdate {
		return Decision{Action: UpdateInPlace, Previous: existing}
	}

	cappedTotal := trueTotal
	if cappedTotal > cap {
		cappedTotal = cap
	}

	// Already fully uploaded under the current cap.
	if existing.UploadedImages == cappedTotal && candidate.Limit {
		return Decision{Action: SkipQuotaReached, Previous: existing}
	}

	// Entire gallery mirrored, capped or not.
	if existing.UploadedImages == trueTotal {
		return Decision{Action: SkipAlreadyComplete, Previous: existing}
	}

	// A full version was committed to once; never silently shrink it.
	uncap := existing.UploadedImages > cap

	if now.Sub(existing.PublishedAt()) <= updateWindow {
		return Decision{Action: UpdateInPlace, Uncap: uncap, Previous: existing}
	}
	return Decision{Action: Republish, Uncap: uncap, Previous: existing}
}
