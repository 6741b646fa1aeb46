// Package aggregator resolves the metadata for one media file by fanning a
// query out to every configured catalog adapter, ranking the answers by
// confidence, and folding them into a single record seeded from the file's
// embedded tags.
package aggregator
