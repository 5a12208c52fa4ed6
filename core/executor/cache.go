package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/tunestat/tunestat/core/connectors"
)

const (
	// Keep up to ~32 MiB of cached query results in-memory.
	defaultRistrettoMaxCost = 32 << 20
	// Rule of thumb from Ristretto: ~10x expected live keys.
	defaultRistrettoNumCounters = 100_000
	defaultRistrettoBufferItems = 64
)

type queryCache struct {
	store *ristretto.Cache
}

func newQueryCache() *queryCache {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultRistrettoNumCounters,
		MaxCost:     defaultRistrettoMaxCost,
		BufferItems: defaultRistrettoBufferItems,
	})
	if err != nil {
		// Invalid config should never happen with static values.
		panic(err)
	}
	return &queryCache{store: store}
}

func (c *queryCache) Get(key string) (*connectors.Result, bool) {
	value, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	result, ok := value.(*connectors.Result)
	if !ok {
		return nil, false
	}
	return cloneResult(result), true
}

func (c *queryCache) Set(key string, result *connectors.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	cloned := cloneResult(result)
	accepted := c.store.SetWithTTL(key, cloned, estimateResultCost(result), ttl)
	if accepted {
		// Ristretto sets are asynchronous. Wait ensures the value can be
		// read immediately by the next query execution.
		c.store.Wait()
	}
}

func buildCacheKey(queryName, statement string, args []any) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%v", queryName, statement, args)))
	return hex.EncodeToString(hash[:])
}

// cloneResult deep-copies rows so callers cannot mutate cached data.
func cloneResult(result *connectors.Result) *connectors.Result {
	if result == nil {
		return nil
	}
	cloned := &connectors.Result{
		Columns: append([]string(nil), result.Columns...),
		Rows:    make([]map[string]any, len(result.Rows)),
	}
	for i, row := range result.Rows {
		rowCopy := make(map[string]any, len(row))
		for k, v := range row {
			rowCopy[k] = v
		}
		cloned.Rows[i] = rowCopy
	}
	return cloned
}

func estimateResultCost(result *connectors.Result) int64 {
	if result == nil {
		return 1
	}
	var cost int64 = 64
	for _, row := range result.Rows {
		cost += 32
		for k, v := range row {
			cost += int64(len(k)) + 16
			if s, ok := v.(string); ok {
				cost += int64(len(s))
			}
		}
	}
	return cost
}
