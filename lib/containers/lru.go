// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// SimpleLRUCache is a least-recently-used(ish) cache backed by
// hashicorp/golang-lru's ARCCache.  A zero SimpleLRUCache is usable
// and has a cache size of 128 items; use NewSimpleLRUCache to set a
// different size.
//
// SimpleLRUCache does not pin entries and does not block; it is meant for
// cheap memoization (e.g. per-worker TM-index scratch lookups).
type SimpleLRUCache[K comparable, V any] struct {
	initOnce sync.Once
	inner    *lru.ARCCache
}

func NewSimpleLRUCache[K comparable, V any](size int) *SimpleLRUCache[K, V] {
	c := new(SimpleLRUCache[K, V])
	c.initOnce.Do(func() {
		c.inner, _ = lru.NewARC(size)
	})
	return c
}

func (c *SimpleLRUCache[K, V]) init() {
	c.initOnce.Do(func() {
		c.inner, _ = lru.NewARC(128)
	})
}

func (c *SimpleLRUCache[K, V]) Add(key K, value V) {
	c.init()
	c.inner.Add(key, value)
}
func (c *SimpleLRUCache[K, V]) Contains(key K) bool {
	c.init()
	return c.inner.Contains(key)
}
func (c *SimpleLRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.init()
	_value, ok := c.inner.Get(key)
	if ok {
		value = _value.(V)
	}
	return value, ok
}
func (c *SimpleLRUCache[K, V]) Keys() []K {
	c.init()
	untyped := c.inner.Keys()
	typed := make([]K, len(untyped))
	for i := range untyped {
		typed[i] = untyped[i].(K)
	}
	return typed
}
func (c *SimpleLRUCache[K, V]) Len() int {
	c.init()
	return c.inner.Len()
}
func (c *SimpleLRUCache[K, V]) Peek(key K) (value V, ok bool) {
	c.init()
	_value, ok := c.inner.Peek(key)
	if ok {
		value = _value.(V)
	}
	return value, ok
}
func (c *SimpleLRUCache[K, V]) Purge() {
	c.init()
	c.inner.Purge()
}
func (c *SimpleLRUCache[K, V]) Remove(key K) {
	c.init()
	c.inner.Remove(key)
}

func (c *SimpleLRUCache[K, V]) GetOrElse(key K, fn func() V) V {
	var value V
	var ok bool
	for value, ok = c.Get(key); !ok; value, ok = c.Get(key) {
		c.Add(key, fn())
	}
	return value
}
