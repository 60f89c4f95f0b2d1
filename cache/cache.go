// Package cache provides a frame-oriented decode cache: raw file
// bytes, decoded parts, and decoded frame bundles, each held in its
// own LRU map with size-bounded eviction.
//
// FrameCache guards its own state with an internal mutex, so the
// prefetch planner's concurrent workers (cache/prefetch's FrameSource
// fan-out) may call it directly without serializing amongst
// themselves first.
package cache

import (
	"container/list"
	"sync"
	"unsafe"

	"github.com/openexr-go/exrcore/exr"
)

// FrameID names one entry in the caller's frame sequence (e.g. a file
// path or shot/frame identifier). PartID is a decoded part's dense
// index within whichever file produced it.
type FrameID string
type PartID uint64

// RawEntry is an unparsed file's bytes, as read by the prefetch
// planner's first pipeline stage or by a direct decode request.
type RawEntry struct {
	Bytes []byte
}

// rawBufferPool backs every FrameCache's raw-byte storage: SetBuffer
// copies the caller's data into a pool-obtained buffer instead of
// retaining the caller's slice directly, so the buffer cache's own
// churn (eviction, overwrite) returns storage to the pool for reuse
// across frames rather than leaving it for the GC.
var rawBufferPool = exr.NewBufferPool()

// PartEntry is one decoded part, keyed only by PartID: parts from
// different files that happen to share a dense index share a cache
// slot, by design (the part cache answers "what does part N of the
// structure currently being viewed decode to", not "every part N ever
// seen").
type PartEntry struct {
	Part *exr.DecodedPart
}

// FrameEntry is a decoded frame bundle: the parsed structure plus the
// decoded part the driver cares about (this core always decodes part
// 0 of a frame; spec's "decoded planes" is DecodedPart.Channels).
type FrameEntry struct {
	PartID    PartID
	Structure *exr.File
	Part      *exr.DecodedPart
}

// byteSize estimates a cache entry's resident size in bytes.
func rawBytes(e RawEntry) int64 { return int64(len(e.Bytes)) }

func partBytes(p *exr.DecodedPart) int64 {
	if p == nil {
		return 0
	}
	var n int64
	for _, c := range p.Channels {
		n += int64(len(c.Data)) * 4
	}
	return n
}

func frameBytes(e FrameEntry) int64 { return partBytes(e.Part) }

// lruMap is a generic least-recently-used map: Get promotes the
// touched key to most-recent, Oldest reports the least-recently-used
// key for eviction.
type lruMap[K comparable, V any] struct {
	order *list.List
	items map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRUMap[K comparable, V any]() *lruMap[K, V] {
	return &lruMap[K, V]{order: list.New(), items: make(map[K]*list.Element)}
}

func (m *lruMap[K, V]) Get(k K) (V, bool) {
	if el, ok := m.items[k]; ok {
		m.order.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

func (m *lruMap[K, V]) Has(k K) bool {
	_, ok := m.items[k]
	return ok
}

func (m *lruMap[K, V]) Set(k K, v V) {
	if el, ok := m.items[k]; ok {
		el.Value.(*lruEntry[K, V]).value = v
		m.order.MoveToFront(el)
		return
	}
	el := m.order.PushFront(&lruEntry[K, V]{key: k, value: v})
	m.items[k] = el
}

func (m *lruMap[K, V]) Delete(k K) {
	if el, ok := m.items[k]; ok {
		m.order.Remove(el)
		delete(m.items, k)
	}
}

func (m *lruMap[K, V]) Oldest() (K, V, bool) {
	back := m.order.Back()
	if back == nil {
		var zk K
		var zv V
		return zk, zv, false
	}
	e := back.Value.(*lruEntry[K, V])
	return e.key, e.value, true
}

func (m *lruMap[K, V]) Len() int { return len(m.items) }

func (m *lruMap[K, V]) Clear() {
	m.order.Init()
	m.items = make(map[K]*list.Element)
}

func (m *lruMap[K, V]) All(fn func(k K, v V)) {
	for el := m.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*lruEntry[K, V])
		fn(e.key, e.value)
	}
}

// FrameCache is the decode driver's and prefetch planner's backing
// store: three independently-evicted LRU maps sharing one byte budget.
type FrameCache struct {
	mu sync.Mutex

	buffers *lruMap[FrameID, RawEntry]
	parts   *lruMap[PartID, PartEntry]
	frames  *lruMap[FrameID, FrameEntry]

	// frameIndex maps a cached FrameID to its position in the last
	// frame list Prune was called with, for the distance policy.
	frameIndex map[FrameID]int
}

// New returns an empty cache.
func New() *FrameCache {
	return &FrameCache{
		buffers:    newLRUMap[FrameID, RawEntry](),
		parts:      newLRUMap[PartID, PartEntry](),
		frames:     newLRUMap[FrameID, FrameEntry](),
		frameIndex: make(map[FrameID]int),
	}
}

func (c *FrameCache) GetBuffer(id FrameID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.buffers.Get(id)
	if !ok {
		return nil, false
	}
	return e.Bytes, true
}

// SetBuffer stores a copy of data under id, drawn from the shared raw
// buffer pool. Replacing an existing id returns its old buffer to the
// pool immediately rather than waiting for eviction.
func (c *FrameCache) SetBuffer(id FrameID, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.buffers.Get(id); ok {
		rawBufferPool.Put(old.Bytes)
	}
	buf := rawBufferPool.Get(len(data))
	copy(buf, data)
	c.buffers.Set(id, RawEntry{Bytes: buf})
}

func (c *FrameCache) HasBuffer(id FrameID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffers.Has(id)
}

func (c *FrameCache) GetPart(id PartID) (*exr.DecodedPart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.parts.Get(id)
	if !ok {
		return nil, false
	}
	return e.Part, true
}

func (c *FrameCache) SetPart(id PartID, part *exr.DecodedPart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts.Set(id, PartEntry{Part: part})
}

func (c *FrameCache) HasPart(id PartID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parts.Has(id)
}

func (c *FrameCache) GetFrame(id FrameID) (FrameEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames.Get(id)
}

func (c *FrameCache) SetFrame(id FrameID, e FrameEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames.Set(id, e)
}

func (c *FrameCache) HasFrame(id FrameID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames.Has(id)
}

// ClearAll drops every cached entry.
func (c *FrameCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers.All(func(_ FrameID, e RawEntry) { rawBufferPool.Put(e.Bytes) })
	c.buffers.Clear()
	c.parts.Clear()
	c.frames.Clear()
	c.frameIndex = make(map[FrameID]int)
}

// Stats is the result of ComputeStats.
type Stats struct {
	PartCacheBytes   int64
	FrameCacheBytes  int64
	BufferCacheBytes int64
	UniqueCacheBytes int64
	PartCount        int
	FrameCount       int
	BufferCount      int
}

// bufferIdentity returns a stable identity for a buffer's backing
// array, used to dedup bytes shared between cache entries (e.g. a
// frame bundle that aliases the part cache's decoded channel data).
func bufferIdentity(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func float32Identity(f []float32) uintptr {
	if len(f) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&f[0]))
}

// ComputeStats reports the cache's current footprint. currentRaw, if
// non-nil, is counted toward uniqueCacheBytes as an in-flight buffer
// not yet inserted into the cache (e.g. held by the caller mid-decode),
// so it is not double-counted once it is.
func (c *FrameCache) ComputeStats(currentRaw []byte) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computeStats(currentRaw)
}

// computeStats is ComputeStats without locking, for callers (Prune)
// that already hold c.mu.
func (c *FrameCache) computeStats(currentRaw []byte) Stats {
	var s Stats
	unique := make(map[uintptr]int64)

	c.buffers.All(func(_ FrameID, e RawEntry) {
		s.BufferCacheBytes += rawBytes(e)
		s.BufferCount++
		if id := bufferIdentity(e.Bytes); id != 0 {
			unique[id] = int64(len(e.Bytes))
		}
	})
	c.parts.All(func(_ PartID, e PartEntry) {
		s.PartCacheBytes += partBytes(e.Part)
		s.PartCount++
		markPartUnique(e.Part, unique)
	})
	c.frames.All(func(_ FrameID, e FrameEntry) {
		s.FrameCacheBytes += frameBytes(e)
		s.FrameCount++
		markPartUnique(e.Part, unique)
	})

	if id := bufferIdentity(currentRaw); id != 0 {
		unique[id] = int64(len(currentRaw))
	}
	for _, n := range unique {
		s.UniqueCacheBytes += n
	}
	return s
}

func markPartUnique(p *exr.DecodedPart, unique map[uintptr]int64) {
	if p == nil {
		return
	}
	for _, ch := range p.Channels {
		if id := float32Identity(ch.Data); id != 0 {
			unique[id] = int64(len(ch.Data)) * 4
		}
	}
}

// FrameRef is one entry of the sequence Prune uses to evaluate the
// distance-based eviction policy.
type FrameRef struct {
	ID    FrameID
	Index int
}

// Limits bounds the cache's unique-byte footprint. Eviction runs when
// UniqueCacheBytes exceeds MaxBytes and continues until it is at or
// below MinBytes (a high/low watermark, avoiding an evict-one-then-
// immediately-reinsert cycle at the boundary). DistanceThreshold is
// the minimum |index-current| a cached frame must exceed to be a
// distance-policy eviction candidate.
type Limits struct {
	MinBytes          int64
	MaxBytes          int64
	DistanceThreshold int
}

// Prune evicts entries until the cache's unique footprint is within
// limits, or nothing is left to evict. currentIndex, if non-nil,
// enables the distance-based policy: the cached frame farthest beyond
// DistanceThreshold from *currentIndex is evicted first. Frames not
// present in frameList are treated as having no known distance and
// fall back to plain LRU. Prune reports whether it evicted anything.
func (c *FrameCache) Prune(currentIndex *int, frameList []FrameRef, limits Limits) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frameIndex = make(map[FrameID]int, len(frameList))
	for _, fr := range frameList {
		c.frameIndex[fr.ID] = fr.Index
	}

	stats := c.computeStats(nil)
	if stats.UniqueCacheBytes <= limits.MaxBytes {
		return false
	}

	evicted := false
	for stats.UniqueCacheBytes > limits.MinBytes {
		if !c.evictOne(currentIndex, limits) {
			break
		}
		evicted = true
		stats = c.computeStats(nil)
	}
	return evicted
}

func (c *FrameCache) evictOne(currentIndex *int, limits Limits) bool {
	if currentIndex != nil {
		if id, ok := c.farthestFrame(*currentIndex, limits.DistanceThreshold); ok {
			c.frames.Delete(id)
			return true
		}
	}
	if id, e, ok := c.buffers.Oldest(); ok {
		rawBufferPool.Put(e.Bytes)
		c.buffers.Delete(id)
		return true
	}
	if id, _, ok := c.frames.Oldest(); ok {
		c.frames.Delete(id)
		return true
	}
	if id, _, ok := c.parts.Oldest(); ok {
		c.parts.Delete(id)
		return true
	}
	return false
}

// farthestFrame returns the cached frame id whose |index-current|
// exceeds threshold and is maximal among such, if any exists.
func (c *FrameCache) farthestFrame(current, threshold int) (FrameID, bool) {
	var best FrameID
	bestDist := -1
	found := false
	c.frames.All(func(id FrameID, _ FrameEntry) {
		idx, ok := c.frameIndex[id]
		if !ok {
			return
		}
		dist := idx - current
		if dist < 0 {
			dist = -dist
		}
		if dist <= threshold {
			return
		}
		if dist > bestDist {
			bestDist = dist
			best = id
			found = true
		}
	})
	return best, found
}
