package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exmirror/gallerysync/common"
)

// fakeSource implements MediaSource with customizable behavior per call.
type fakeSource struct {
	resolveFunc  func(pageRef string) (string, error)
	fetchFunc    func(addr string) ([]byte, error)
	resolveCalls atomic.Int32
	fetchCalls   atomic.Int32
}

func (f *fakeSource) ResolveMediaAddress(_ context.Context, pageRef string) (string, error) {
	f.resolveCalls.Add(1)
	if f.resolveFunc != nil {
		return f.resolveFunc(pageRef)
	}
	return "media:" + pageRef, nil
}

func (f *fakeSource) FetchBytes(_ context.Context, addr string) ([]byte, error) {
	f.fetchCalls.Add(1)
	if f.fetchFunc != nil {
		return f.fetchFunc(addr)
	}
	return []byte(addr), nil
}

// fakeUploader implements Uploader, hosting bytes under a derived URL.
type fakeUploader struct {
	uploadFunc func(data []byte) (string, error)
	calls      atomic.Int32
}

func (f *fakeUploader) Upload(_ context.Context, data []byte) (string, error) {
	f.calls.Add(1)
	if f.uploadFunc != nil {
		return f.uploadFunc(data)
	}
	return "hosted:" + string(data), nil
}

// memCache is an in-memory URLCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	flushes int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) GetImageURL(pageRef string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hosted, ok := c.entries[pageRef]
	return hosted, ok, nil
}

func (c *memCache) PutImageURL(pageRef, hostedURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pageRef] = hostedURL
	return nil
}

func (c *memCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	return nil
}

func testRetry() common.RetryPolicy {
	return common.RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}
}

func newTestResolver(source *fakeSource, host *fakeUploader, cache *memCache, workers int) *Resolver {
	return NewResolver(source, host, cache, nil, workers, testRetry())
}

func TestResolvePreservesOrderAndLength(t *testing.T) {
	source := &fakeSource{
		fetchFunc: func(addr string) ([]byte, error) {
			// Vary completion order across workers.
			time.Sleep(time.Duration(len(addr)%3) * time.Millisecond)
			return []byte(addr), nil
		},
	}
	host := &fakeUploader{}
	cache := newMemCache()

	refs := make([]string, 20)
	for i := range refs {
		refs[i] = fmt.Sprintf("page-%02d", i)
	}

	results, err := newTestResolver(source, host, cache, 4).Resolve(context.Background(), "g", refs)
	require.NoError(t, err)
	require.Len(t, results, len(refs))

	for i, r := range results {
		assert.Equal(t, refs[i], r.PageRef)
		assert.True(t, r.OK)
		assert.Equal(t, "hosted:media:"+refs[i], r.HostedURL)
	}
	assert.Equal(t, 1, cache.flushes)
}

func TestResolveCacheHitSkipsNetwork(t *testing.T) {
	source := &fakeSource{}
	host := &fakeUploader{}
	cache := newMemCache()
	cache.entries["page-0"] = "hosted:cached"

	results, err := newTestResolver(source, host, cache, 2).Resolve(context.Background(), "g", []string{"page-0"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].OK)
	assert.Equal(t, "hosted:cached", results[0].HostedURL)
	assert.Zero(t, source.resolveCalls.Load())
	assert.Zero(t, host.calls.Load())
}

func TestResolveIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	host := &fakeUploader{}
	cache := newMemCache()
	resolver := newTestResolver(source, host, cache, 2)

	first, err := resolver.Resolve(context.Background(), "g", []string{"page-0"})
	require.NoError(t, err)
	require.True(t, first[0].OK)
	assert.Equal(t, int32(1), source.resolveCalls.Load())

	second, err := resolver.Resolve(context.Background(), "g", []string{"page-0"})
	require.NoError(t, err)
	assert.Equal(t, first[0].HostedURL, second[0].HostedURL)
	// No second network round trip for an already resolved reference.
	assert.Equal(t, int32(1), source.resolveCalls.Load())
	assert.Equal(t, int32(1), host.calls.Load())
}

func TestResolveFailedItemDoesNotAbortGallery(t *testing.T) {
	source := &fakeSource{
		resolveFunc: func(pageRef string) (string, error) {
			if pageRef == "page-1" {
				return "", errors.New("source unavailable")
			}
			return "media:" + pageRef, nil
		},
	}
	host := &fakeUploader{}
	cache := newMemCache()

	refs := []string{"page-0", "page-1", "page-2"}
	results, err := newTestResolver(source, host, cache, 2).Resolve(context.Background(), "g", refs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Empty(t, results[1].HostedURL)
	assert.True(t, results[2].OK)

	// The failing item burned its whole retry budget.
	assert.Equal(t, int32(2+5), source.resolveCalls.Load())

	_, ok, _ := cache.GetImageURL("page-1")
	assert.False(t, ok, "failed item must not be cached")
}

func TestResolveUsesDiskCacheForBytes(t *testing.T) {
	dir := t.TempDir()
	files := NewFileCache(dir)
	require.NoError(t, files.Prepare("g"))
	files.Put("g", 0, []byte("from-disk"))

	source := &fakeSource{}
	host := &fakeUploader{}
	cache := newMemCache()

	resolver := NewResolver(source, host, cache, files, 1, testRetry())
	results, err := resolver.Resolve(context.Background(), "g", []string{"page-0"})
	require.NoError(t, err)

	assert.True(t, results[0].OK)
	assert.Equal(t, "hosted:from-disk", results[0].HostedURL)
	assert.Zero(t, source.fetchCalls.Load(), "bytes must come from the disk cache")
	assert.Zero(t, source.resolveCalls.Load())
}
