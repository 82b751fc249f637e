// Package cache provides a size-bounded in-memory LRU cache for synthesized
// audio, so that speaking the same word twice does not synthesize it twice.
package cache
