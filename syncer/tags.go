package syncer

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/exmirror/gallerysync/compose"
	"github.com/exmirror/gallerysync/model"
	"github.com/exmirror/gallerysync/reconcile"
	"github.com/exmirror/gallerysync/telegram"
)

// syncTags is the metadata-only refresh for a known gallery: no image work,
// just the article title/body and the channel message, edited in place under
// the throttle.
func (s *Syncer) syncTags(ctx context.Context, rec *model.GalleryRecord) error {
	if !reconcile.ShouldSyncTags(rec, s.now()) {
		return nil
	}

	g, err := s.catalog.FetchByURL(ctx, rec.URL)
	if err != nil {
		return err
	}
	full, err := s.catalog.ExpandToFull(ctx, g)
	if err != nil {
		return err
	}

	if !reconcile.TagsChanged(rec, full.Tags) {
		return nil
	}
	log.Info().Str("title", full.Title).Msg("tags changed, syncing")

	// Rebuild the article body from the durable cache only; the metadata
	// sweep never touches the network for images.
	body := compose.Article(s.cachedURLs(full.ImagePages), len(full.ImagePages), nil)
	page, err := s.host.EditPage(ctx, articlePath(rec.ArticleURL), full.PreferredTitle(), body)
	if err != nil {
		return err
	}

	text := compose.Message(full, page.URL, s.translator)
	messageID, err := s.bot.EditMessageText(ctx, s.cfg.Telegram.Channel, rec.MessageID, text)
	if err != nil {
		if !telegram.IsRecoverableEdit(err) {
			return err
		}
		log.Error().Err(err).Int64("message_id", rec.MessageID).Msg("message edit rejected")
		messageID = rec.MessageID
	}

	updated := recordFrom(full, page.URL, rec.UploadedImages)
	updated.URL = rec.URL
	updated.MessageID = messageID
	return s.store.PutGallery(updated)
}

// cachedURLs collects hosted URLs for already-resolved page references, in
// page order.
func (s *Syncer) cachedURLs(pageRefs []string) []string {
	var urls []string
	for _, ref := range pageRefs {
		if hosted, ok, err := s.store.GetImageURL(ref); err == nil && ok {
			urls = append(urls, hosted)
		}
	}
	return urls
}

func articlePath(articleURL string) string {
	if i := strings.LastIndex(articleURL, "/"); i >= 0 {
		return articleURL[i+1:]
	}
	return articleURL
}
