// Package searcher implements the keyword query engine over the entry store.
//
// A query is split on whitespace, lowercased, and all tokens must match
// (AND semantics). The searcher dispatches to whichever index mode the store
// fixed at open time:
//
//   - full-text mode builds a single FTS5 MATCH expression from the quoted
//     tokens, so matching is token-granular
//   - substring mode tests every token as a case-insensitive substring of
//     the content column
//
// Results are full entries ordered newest first, capped by the request
// limit (default 10). An optional TTL'd LRU cache can short-circuit repeated
// queries; it is opt-in per request and never invalidated by writes.
package searcher
