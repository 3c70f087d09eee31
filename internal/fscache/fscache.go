// Package fscache is a small filesystem cache with mtime-based expiry,
// used for whole-response payloads that survive process restarts.
package fscache

import (
    "crypto/md5"
    "encoding/hex"
    "os"
    "path/filepath"
    "time"
)

type Cache struct {
    // Dir defaults to the OS temp dir.
    Dir string
    TTL time.Duration
}

// Get returns the cached payload for key if it exists and its file is
// younger than TTL.
func (c Cache) Get(key string) ([]byte, bool) {
    if c.TTL <= 0 {
        return nil, false
    }
    path := c.path(key)
    info, err := os.Stat(path)
    if err != nil || time.Since(info.ModTime()) >= c.TTL {
        return nil, false
    }
    b, err := os.ReadFile(path)
    if err != nil {
        return nil, false
    }
    return b, true
}

// Put writes the payload for key. Best effort; a write failure only means
// the next Get misses.
func (c Cache) Put(key string, payload []byte) error {
    return os.WriteFile(c.path(key), payload, 0o644)
}

func (c Cache) path(key string) string {
    dir := c.Dir
    if dir == "" {
        dir = os.TempDir()
    }
    sum := md5.Sum([]byte(key))
    return filepath.Join(dir, "marketboard-"+hex.EncodeToString(sum[:])+".json")
}
