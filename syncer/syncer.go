// Package syncer drives one synchronization pass: discover galleries,
// reconcile them against the store, acquire images and publish.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/exmirror/gallerysync/common"
	"github.com/exmirror/gallerysync/compose"
	"github.com/exmirror/gallerysync/model"
	"github.com/exmirror/gallerysync/pipeline"
	"github.com/exmirror/gallerysync/reconcile"
	"github.com/exmirror/gallerysync/state"
	"github.com/exmirror/gallerysync/telegram"
	"github.com/exmirror/gallerysync/telegraph"
)

// Catalog is the source catalog collaborator.
type Catalog interface {
	SearchRecent(ctx context.Context, pageLimit int) ([]model.DiscoveredGallery, error)
	FetchByURL(ctx context.Context, url string) (model.DiscoveredGallery, error)
	ExpandToFull(ctx context.Context, g model.DiscoveredGallery) (*model.FullGalleryInfo, error)
}

// Host is the article hosting collaborator.
type Host interface {
	CreatePage(ctx context.Context, title, htmlContent string) (telegraph.Page, error)
	EditPage(ctx context.Context, path, title, htmlContent string) (telegraph.Page, error)
}

// Messenger is the channel messaging collaborator.
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) (int64, error)
	EditMessageText(ctx context.Context, channel string, messageID int64, text string) (int64, error)
}

// ImageResolver is the image acquisition pipeline.
type ImageResolver interface {
	Resolve(ctx context.Context, gallery string, pageRefs []string) ([]pipeline.Result, error)
}

// Stats summarizes one pass.
type Stats struct {
	Discovered int
	Inserted   int
	Updated    int
	Skipped    int
	Errors     int
}

// Syncer owns one pass over the catalog. Galleries are processed one at a
// time; only image resolution within a gallery is parallel.
type Syncer struct {
	catalog    Catalog
	host       Host
	bot        Messenger
	resolver   ImageResolver
	store      state.Store
	translator *compose.Translator
	cfg        *common.Config

	now func() time.Time
}

// New wires a Syncer from its collaborators.
func New(cat Catalog, host Host, bot Messenger, resolver ImageResolver, store state.Store, tr *compose.Translator, cfg *common.Config) *Syncer {
	return &Syncer{
		catalog:    cat,
		host:       host,
		bot:        bot,
		resolver:   resolver,
		store:      store,
		translator: tr,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ScanPass fetches a batch of candidates and processes them oldest first, so
// a failure partway through leaves progress in chronological order. Failures
// on one gallery are logged and do not abort the batch; store errors are
// pass-fatal.
func (s *Syncer) ScanPass(ctx context.Context) (*Stats, error) {
	passID := uuid.New().String()
	logger := log.With().Str("pass_id", passID).Logger()
	logger.Info().Int("page_limit", s.cfg.Catalog.MaxPages).Msg("scan pass started")

	galleries, err := s.catalog.SearchRecent(ctx, s.cfg.Catalog.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	stats := &Stats{Discovered: len(galleries)}
	for i := len(galleries) - 1; i >= 0; i-- {
		g := galleries[i]
		logger.Info().Str("url", g.URL).Str("title", g.Title).Msg("checking gallery")

		rec, err := s.store.GetGallery(g.URL)
		switch {
		case err == nil:
			// Known URL revision: only the metadata sweep applies.
			if err := s.syncTags(ctx, rec); err != nil {
				logger.Error().Err(err).Str("url", g.URL).Msg("tag sync failed")
				stats.Errors++
			}
		case errors.Is(err, state.ErrNotFound):
			if err := s.syncGallery(ctx, g, stats); err != nil {
				logger.Error().Err(err).Str("url", g.URL).Msg("gallery sync failed")
				stats.Errors++
			}
		default:
			return stats, fmt.Errorf("store lookup failed: %w", err)
		}
	}

	logger.Info().
		Int("discovered", stats.Discovered).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("scan pass finished")
	return stats, nil
}

// UploadByURL forces a mirror of one gallery identity, without the image
// cap.
func (s *Syncer) UploadByURL(ctx context.Context, url string) error {
	g, err := s.catalog.FetchByURL(ctx, url)
	if err != nil {
		return err
	}
	g.Limit = false
	g.ForceUpdate, err = s.store.HasGallery(url)
	if err != nil {
		return err
	}
	return s.syncGallery(ctx, g, &Stats{})
}

// lookup finds the existing record for a candidate, first by URL and then by
// title, since the catalog assigns updated galleries a new URL revision.
func (s *Syncer) lookup(url, title string) (*model.GalleryRecord, error) {
	rec, err := s.store.GetGallery(url)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return nil, err
	}
	rec, err = s.store.GetGalleryByTitle(title)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

// syncGallery runs the full media path for one candidate.
func (s *Syncer) syncGallery(ctx context.Context, g model.DiscoveredGallery, stats *Stats) error {
	full, err := s.catalog.ExpandToFull(ctx, g)
	if err != nil {
		return err
	}

	existing, err := s.lookup(g.URL, full.Title)
	if err != nil {
		return err
	}

	trueTotal := len(full.ImagePages)
	d := reconcile.Decide(existing, g, trueTotal, s.cfg.Catalog.MaxImages, s.now())
	log.Info().Str("title", full.Title).Stringer("action", d.Action).Msg("reconciled")

	if d.Skip() {
		stats.Skipped++
		return nil
	}

	pages := full.ImagePages
	if g.Limit && !d.Uncap && len(pages) > s.cfg.Catalog.MaxImages {
		pages = pages[:s.cfg.Catalog.MaxImages]
	}

	results, err := s.resolver.Resolve(ctx, full.Title, pages)
	if err != nil {
		return err
	}
	imgURLs := hostedURLs(results)

	if !s.cfg.Telegraph.Upload {
		log.Info().Msg("article upload disabled, stopping after image resolution")
		return nil
	}

	// The resume footnote only makes sense when an old partial message is
	// replaced rather than edited.
	var lastUploaded *int
	if d.Action == reconcile.Republish && existing != nil {
		v := existing.UploadedImages
		lastUploaded = &v
	}

	body := compose.Article(imgURLs, trueTotal, lastUploaded)
	page, err := s.host.CreatePage(ctx, full.PreferredTitle(), body)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	log.Info().Str("article", page.URL).Msg("article published")

	text := compose.Message(full, page.URL, s.translator)

	rec := recordFrom(full, page.URL, len(imgURLs))
	switch d.Action {
	case reconcile.UpdateInPlace:
		rec.MessageID = existing.MessageID
		messageID, err := s.bot.EditMessageText(ctx, s.cfg.Telegram.Channel, existing.MessageID, text)
		if err != nil {
			if !telegram.IsRecoverableEdit(err) {
				return err
			}
			// Keep our own record fresh even when the channel message is
			// beyond repair.
			log.Error().Err(err).Int64("message_id", existing.MessageID).Msg("message edit rejected")
		} else {
			rec.MessageID = messageID
		}
		stats.Updated++
	case reconcile.Insert, reconcile.Republish:
		messageID, err := s.bot.SendMessage(ctx, s.cfg.Telegram.Channel, text)
		if err != nil {
			return err
		}
		rec.MessageID = messageID
		if d.Action == reconcile.Insert {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	return s.store.PutGallery(rec)
}

func recordFrom(full *model.FullGalleryInfo, articleURL string, uploaded int) *model.GalleryRecord {
	return &model.GalleryRecord{
		URL:            full.URL,
		Title:          full.Title,
		TitleAlt:       full.TitleAlt,
		Tags:           model.TagSnapshot(full.Tags),
		PublishDate:    full.PublishDate.Format("2006-01-02"),
		Score:          full.Score,
		UploadedImages: uploaded,
		ArticleURL:     articleURL,
	}
}

// hostedURLs keeps the successfully resolved URLs in page order.
func hostedURLs(results []pipeline.Result) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK {
			urls = append(urls, r.HostedURL)
		}
	}
	return urls
}
