package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache 带过期时间的本地 LRU 缓存，只做加速，不是数据源
type Cache[V any] struct {
	lru *lru.Cache[string, entry[V]]
	ttl time.Duration
	now func() time.Time
}

// NewCache 创建容量为 size、条目存活 ttl 的缓存
func NewCache[V any](size int, ttl time.Duration) *Cache[V] {
	l, err := lru.New[string, entry[V]](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &Cache[V]{lru: l, ttl: ttl, now: time.Now}
}

func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Get 不存在或已过期时 ok 为 false
func (c *Cache[V]) Get(key string) (value V, ok bool) {
	e, found := c.lru.Get(key)
	if !found {
		return value, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return value, false
	}
	return e.value, true
}

func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
