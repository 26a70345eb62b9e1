// Package pipeline resolves gallery image pages into hosted media URLs with
// caching, bounded parallelism and per-item retry.
package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/exmirror/gallerysync/common"
)

// MediaSource resolves image pages to media addresses and downloads them.
type MediaSource interface {
	ResolveMediaAddress(ctx context.Context, pageRef string) (string, error)
	FetchBytes(ctx context.Context, addr string) ([]byte, error)
}

// Uploader stores image bytes with the article host.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// URLCache is the durable page-reference -> hosted-URL mapping.
type URLCache interface {
	GetImageURL(pageRef string) (string, bool, error)
	PutImageURL(pageRef, hostedURL string) error
	Flush() error
}

// Result is the outcome for one page reference. OK is false only when the
// item exhausted its retries.
type Result struct {
	PageRef   string
	HostedURL string
	OK        bool
}

// Resolver runs the image acquisition pipeline for one gallery at a time.
type Resolver struct {
	source  MediaSource
	host    Uploader
	cache   URLCache
	files   *FileCache // nil when the disk cache is disabled
	workers int
	retry   common.RetryPolicy
}

// NewResolver wires the pipeline. files may be nil to disable the on-disk
// resume cache.
func NewResolver(source MediaSource, host Uploader, cache URLCache, files *FileCache, workers int, retry common.RetryPolicy) *Resolver {
	return &Resolver{
		source:  source,
		host:    host,
		cache:   cache,
		files:   files,
		workers: workers,
		retry:   retry,
	}
}

// Resolve maps pageRefs to hosted URLs. The result has the same length and
// order as the input regardless of completion order; article rendering
// depends on that. The durable cache is flushed before returning, so a crash
// right after cannot lose resolved entries.
func (r *Resolver) Resolve(ctx context.Context, gallery string, pageRefs []string) ([]Result, error) {
	total := len(pageRefs)
	results := make([]Result, total)

	if r.files != nil {
		if err := r.files.Prepare(gallery); err != nil {
			return nil, err
		}
	}

	// Counts dispatches, not completions; reported numbers may interleave
	// with actual completions under concurrency.
	var dispatched atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, ref := range pageRefs {
		i, ref := i, ref
		g.Go(func() error {
			log.Info().Msgf("image %d / %d", dispatched.Add(1), total)
			results[i] = r.resolveOne(gctx, gallery, i, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := r.cache.Flush(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveOne handles a single page reference: cache lookup, then resolve,
// fetch, upload with the retry budget. A failed item is reported, never
// propagated; one bad image must not abort the gallery.
func (r *Resolver) resolveOne(ctx context.Context, gallery string, index int, pageRef string) Result {
	if hosted, ok, err := r.cache.GetImageURL(pageRef); err == nil && ok {
		log.Debug().Str("page", pageRef).Msg("image cache hit")
		return Result{PageRef: pageRef, HostedURL: hosted, OK: true}
	}

	var hosted string
	err := r.retry.Do(ctx, func() error {
		var err error
		hosted, err = r.fetchAndUpload(ctx, gallery, index, pageRef)
		if err != nil {
			log.Error().Err(err).Str("page", pageRef).Msg("failed to resolve image")
		}
		return err
	})
	if err != nil {
		return Result{PageRef: pageRef}
	}

	if err := r.cache.PutImageURL(pageRef, hosted); err != nil {
		log.Error().Err(err).Str("page", pageRef).Msg("failed to persist image URL")
		return Result{PageRef: pageRef}
	}
	return Result{PageRef: pageRef, HostedURL: hosted, OK: true}
}

func (r *Resolver) fetchAndUpload(ctx context.Context, gallery string, index int, pageRef string) (string, error) {
	var data []byte
	if r.files != nil {
		if cached, ok := r.files.Get(gallery, index); ok {
			data = cached
		}
	}

	if data == nil {
		addr, err := r.source.ResolveMediaAddress(ctx, pageRef)
		if err != nil {
			return "", err
		}
		data, err = r.source.FetchBytes(ctx, addr)
		if err != nil {
			return "", err
		}
		if r.files != nil {
			r.files.Put(gallery, index, data)
		}
	}

	return r.host.Upload(ctx, data)
}
