// Package executor runs catalog queries against the relational backend.
package executor

import (
	"context"
	"time"

	"github.com/tunestat/tunestat/core/catalog"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/logger"
)

// Executor executes catalog queries against a backend connector.
// Parameters are validated against the definition before any backend
// call and bound as driver arguments, never interpolated.
type Executor struct {
	catalog  *catalog.Catalog
	conn     connectors.Connector
	cache    *queryCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewExecutor creates a query executor. A positive cacheTTL enables
// in-process caching of results; the catalog queries are read-only and
// idempotent, so a cached result is valid until the dataset is
// re-ingested.
func NewExecutor(cat *catalog.Catalog, conn connectors.Connector, cacheTTL time.Duration) *Executor {
	e := &Executor{
		catalog:  cat,
		conn:     conn,
		cacheTTL: cacheTTL,
		log:      logger.New("executor"),
	}
	if cacheTTL > 0 {
		e.cache = newQueryCache()
	}
	return e
}

// Run executes the query with the given id. Parameter mismatches fail
// with PARAMETER_VALIDATION_ERROR before any backend call is issued.
func (e *Executor) Run(ctx context.Context, queryID int, params map[string]any) (*connectors.Result, error) {
	def, err := e.catalog.Get(queryID)
	if err != nil {
		return nil, err
	}

	validated, err := catalog.ValidateParams(def, params)
	if err != nil {
		return nil, err
	}

	statement, args, err := catalog.Compile(def.Statement, validated)
	if err != nil {
		return nil, err
	}

	var key string
	if e.cache != nil {
		key = buildCacheKey(def.Name, statement, args)
		if result, ok := e.cache.Get(key); ok {
			e.log.Debugf("cache hit for query '%s'", def.Name)
			return result, nil
		}
	}

	e.log.Debugf("executing query '%s' (id %d): %s", def.Name, def.ID, statement)
	result, err := e.conn.Query(ctx, statement, args...)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(key, result, e.cacheTTL)
	}
	return result, nil
}

// Definitions returns the catalog definitions ordered by id
func (e *Executor) Definitions() []catalog.Definition {
	return e.catalog.All()
}
