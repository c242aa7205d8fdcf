// Package persist provides caches for fitted model state, either in memory
// or on disk.
package persist

import (
	"bytes"
	"encoding/gob"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
)

// ErrCacheMiss is returned when a key has no snapshot in a cache.
var ErrCacheMiss = errors.New("cache miss error")

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// SnapshotToBytes encodes a snapshot to bytes.
func SnapshotToBytes(s Snapshot) ([]byte, error) {
	var buff bytes.Buffer
	enc := gob.NewEncoder(&buff)
	err := enc.Encode(s)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

func constructor() {
	gob.Register(Snapshot{})
}

// ModelCacher models a way to cache fitted model snapshots, either
// persistently or not.
type ModelCacher interface {
	Get(key string) (Snapshot, error)
	Set(key string, s Snapshot) error
}

// ModelCache embeds a privately defined model cacher into a public struct.
type ModelCache struct {
	ModelCacher
}

type mapModelCache struct {
	m map[string]Snapshot
}

func (c mapModelCache) Get(key string) (Snapshot, error) {
	if s, ok := c.m[key]; ok {
		return s, nil
	}
	return Snapshot{}, ErrCacheMiss
}

func (c mapModelCache) Set(key string, s Snapshot) error {
	c.m[key] = s
	return nil
}

// NewMapModelCache creates a model cache out of a regular go map.
func NewMapModelCache() ModelCache {
	constructor()
	return ModelCache{mapModelCache{make(map[string]Snapshot)}}
}

type lruModelCache struct {
	c *lru.Cache
}

func (c lruModelCache) Get(key string) (Snapshot, error) {
	if v, ok := c.c.Get(key); ok {
		return v.(Snapshot), nil
	}
	return Snapshot{}, ErrCacheMiss
}

func (c lruModelCache) Set(key string, s Snapshot) error {
	c.c.Add(key, s)
	return nil
}

// NewMemoryModelCache creates a bounded in-memory model cache which evicts
// the least recently used snapshot once size is exceeded.
func NewMemoryModelCache(size int) (ModelCache, error) {
	constructor()
	c, err := lru.New(size)
	if err != nil {
		return ModelCache{}, errors.Wrap(err, "could not create lru cache")
	}
	return ModelCache{lruModelCache{c}}, nil
}

type diskvModelCache struct {
	*diskv.Diskv
}

func (d diskvModelCache) Get(key string) (Snapshot, error) {
	b, err := d.Read(key)
	if err != nil {
		return Snapshot{}, ErrCacheMiss
	}
	dec := gob.NewDecoder(bytes.NewReader(b))
	var s Snapshot
	err = dec.Decode(&s)
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (d diskvModelCache) Set(key string, s Snapshot) error {
	b, err := SnapshotToBytes(s)
	if err != nil {
		return err
	}
	return d.Write(key, b)
}

// NewDiskvModelCache creates a new on-disk cache with the specified diskv
// parameters.
func NewDiskvModelCache(dv *diskv.Diskv) ModelCache {
	constructor()
	return ModelCache{diskvModelCache{dv}}
}
