package inflect

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

type cacheKey struct {
	word WordID
	key  CombinedKey
}

type cachedForm struct {
	version     uint64
	fingerprint uint64
	ruleID      int
	value       string
}

// formCache memoizes rule-generated forms. An entry is valid only while its
// part-of-speech version and word fingerprint still match, so edits never
// need to walk the cache. A nil *formCache caches nothing.
type formCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	byWord map[WordID]map[CombinedKey]struct{}
	hits   uint64
	misses uint64
}

func newFormCache(size int) *formCache {
	if size <= 0 {
		return nil
	}
	c := &formCache{
		lru:    lru.New(size),
		byWord: make(map[WordID]map[CombinedKey]struct{}),
	}
	c.lru.OnEvicted = func(k lru.Key, _ interface{}) {
		ck := k.(cacheKey)
		delete(c.byWord[ck.word], ck.key)
		if len(c.byWord[ck.word]) == 0 {
			delete(c.byWord, ck.word)
		}
	}
	return c
}

func (c *formCache) get(w Word, key CombinedKey, version uint64) (cachedForm, bool) {
	if c == nil {
		return cachedForm{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(cacheKey{w.ID, key})
	if ok {
		f := v.(cachedForm)
		if f.version == version && f.fingerprint == w.fingerprint() {
			c.hits++
			return f, true
		}
		c.lru.Remove(cacheKey{w.ID, key})
	}
	c.misses++
	return cachedForm{}, false
}

func (c *formCache) put(w Word, key CombinedKey, version uint64, ruleID int, value string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(cacheKey{w.ID, key}, cachedForm{version: version, fingerprint: w.fingerprint(), ruleID: ruleID, value: value})
	m, ok := c.byWord[w.ID]
	if !ok {
		m = make(map[CombinedKey]struct{})
		c.byWord[w.ID] = m
	}
	m[key] = struct{}{}
}

func (c *formCache) purgeWord(word WordID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.byWord[word] {
		c.lru.Remove(cacheKey{word, k})
	}
}

func (c *formCache) purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.byWord = make(map[WordID]map[CombinedKey]struct{})
}

// CacheStats reports generated-form cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

func (c *formCache) stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}
