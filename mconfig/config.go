// Package mconfig implements the kernel's process-wide configuration,
// mirroring the teacher's cmn.Config / cmn.GCO pattern: an immutable
// snapshot swapped wholesale under an atomic pointer, never mutated in
// place, so concurrent readers never observe a half-updated config.
package mconfig

import (
	"os"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RMI holds the RMI façade's retry policy.
type RMI struct {
	MaxRetries int           `json:"max_retries"`
	DialTO     time.Duration `json:"dial_timeout"`
}

// Scan holds the sequential-scan algorithm's batch k-NN tuning knobs
// (spec §4.8): chunk size D and per-worker channel capacity.
type Scan struct {
	ChunkSize   int `json:"chunk_size"`   // D, default 1000
	ChanCap     int `json:"chan_cap"`     // default 3
	PoolSize    int `json:"pool_size"`    // T
	CandidateCp int `json:"candidate_cp"` // candidate-set operation channel capacity
}

// Dispatch holds the algorithm dispatch layer's concurrency caps
// (spec §4.6).
type Dispatch struct {
	MaxRunningOps int64 `json:"max_running_ops"` // default 1024
}

// Bucket selects and configures the external bucket-store collaborator
// (spec §1 — out of scope, specified only through bucket.Store).
type Bucket struct {
	DSN string `json:"dsn"` // scheme selects the backing implementation: buntdb://, s3://, az://, gs://, hdfs://
}

type Config struct {
	RMI      RMI      `json:"rmi"`
	Scan     Scan     `json:"scan"`
	Dispatch Dispatch `json:"dispatch"`
	Bucket   Bucket   `json:"bucket"`
}

func defaultConfig() *Config {
	return &Config{
		RMI:      RMI{MaxRetries: 3, DialTO: 5 * time.Second},
		Scan:     Scan{ChunkSize: 1000, ChanCap: 3, PoolSize: 1, CandidateCp: 256},
		Dispatch: Dispatch{MaxRunningOps: 1024},
		Bucket:   Bucket{DSN: "buntdb://:memory:"},
	}
}

// gco is the Global Config Object: an atomic snapshot pointer, named after
// the teacher's own cmn.GCO.
type gco struct{ p atomic.Pointer[Config] }

func (g *gco) Get() *Config { return g.p.Load() }

func (g *gco) Put(c *Config) { g.p.Store(c) }

// GCO is the process-wide config handle.
var GCO = func() *gco {
	g := &gco{}
	g.Put(defaultConfig())
	return g
}()

// Load reads a JSON config file into a fresh snapshot and installs it
// atomically. A missing path is not an error; the default config stands.
func Load(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	c := defaultConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	GCO.Put(c)
	return nil
}
