// Package index provides the codebase retriever that supplies context to
// analyses.
//
// The codebase (a dump file or a source directory) is split into
// overlapping chunks with a recursive character splitter and persisted in a
// SQLite database under the user cache directory ($XDG_CACHE_HOME/prsentry
// or the OS equivalent). The stored chunks are reused while the source
// fingerprint is unchanged.
//
// Retrieval ranks chunks by tf-idf weighted term overlap with the query.
package index
