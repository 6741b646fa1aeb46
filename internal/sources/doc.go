// Package sources defines the uniform adapter contract over external
// metadata catalogs, plus the per-adapter rate limiter and the shared query
// cache. Concrete catalog clients live in subpackages; the aggregator
// depends only on the Adapter interface.
package sources
