package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/clipstash/clipstash/internal/storage"
	"github.com/clipstash/clipstash/pkg/types"
)

// SearchMode identifies which index strategy produced a result set
type SearchMode string

const (
	// SearchModeFullText matches whole tokens via the FTS5 shadow index
	SearchModeFullText SearchMode = "fulltext"
	// SearchModeSubstring matches case-insensitive substrings of content
	SearchModeSubstring SearchMode = "substring"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// SearchRequest contains parameters for a search operation.
//
// The cache is opt-in and TTL-based only; it is not invalidated by writes.
// Callers that need read-your-writes leave UseCache unset.
type SearchRequest struct {
	Query       string
	ContentType string // optional exact type filter
	Since       *int64 // optional minimum capture timestamp (ms)
	Limit       int    // default 10, capped at 100
	UseCache    bool
	CacheTTL    time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Entries  []*types.Entry
	Mode     SearchMode
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher dispatches keyword queries to whichever index mode the store
// selected at open time. All query tokens must match (AND semantics) in
// either mode; the modes differ only in match granularity: full-text matches
// whole tokens, the fallback matches substrings.
type Searcher struct {
	store   *storage.Store
	mode    SearchMode
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// New creates a Searcher bound to the store's fixed index mode.
func New(store *storage.Store) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	mode := SearchModeSubstring
	if store.FullTextEnabled() {
		mode = SearchModeFullText
	}

	return &Searcher{
		store: store,
		mode:  mode,
		cache: cache,
	}
}

// Mode returns the index mode fixed at construction.
func (s *Searcher) Mode() SearchMode {
	return s.mode
}

// Search tokenizes the query and returns entries matching every token,
// newest first. A query with no tokens returns an empty response without
// touching storage.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	tokens := Tokenize(req.Query)
	if len(tokens) == 0 {
		return &SearchResponse{Entries: []*types.Entry{}, Mode: s.mode}, nil
	}

	s.normalize(&req)

	if req.UseCache {
		if cached := s.checkCache(req, tokens); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	filter := types.EntryFilter{
		ContentType: req.ContentType,
		Since:       req.Since,
		Limit:       req.Limit,
	}

	var entries []*types.Entry
	var err error
	switch s.mode {
	case SearchModeFullText:
		entries, err = s.store.SearchFullText(ctx, buildMatchExpression(tokens), filter)
	case SearchModeSubstring:
		entries, err = s.store.SearchSubstring(ctx, tokens, filter)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", s.mode)
	}
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Entries:  entries,
		Mode:     s.mode,
		Duration: time.Since(startTime),
	}

	if req.UseCache && len(entries) > 0 {
		s.storeInCache(req, tokens, response)
	}

	return response, nil
}

// Tokenize splits a query on whitespace, discards empty tokens and
// lowercases the rest.
func Tokenize(query string) []string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// buildMatchExpression ANDs tokens into one FTS5 MATCH expression. Each token
// is quoted so FTS5 operators and punctuation inside it are matched
// literally; embedded double quotes are doubled per FTS5 string syntax.
func buildMatchExpression(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, token := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(token, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " AND ")
}

// normalize applies request defaults in place.
func (s *Searcher) normalize(req *SearchRequest) {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}
}

// computeQueryHash derives the cache key from the normalized request.
func computeQueryHash(req SearchRequest, tokens []string) [32]byte {
	var sb strings.Builder
	sb.WriteString(strings.Join(tokens, " "))
	sb.WriteString("|")
	sb.WriteString(req.ContentType)
	sb.WriteString("|")
	if req.Since != nil {
		sb.WriteString(strconv.FormatInt(*req.Since, 10))
	}
	sb.WriteString("|")
	sb.WriteString(strconv.Itoa(req.Limit))
	return sha256.Sum256([]byte(sb.String()))
}

// checkCache returns a copy of an unexpired cached response, or nil.
func (s *Searcher) checkCache(req SearchRequest, tokens []string) *SearchResponse {
	hash := computeQueryHash(req, tokens)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, tokens []string, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req, tokens), entry)
	s.cacheMu.Unlock()
}

// copyResponse shallow-copies the response and its entry slice. Entries are
// immutable, so sharing the pointed-to records is safe.
func copyResponse(response *SearchResponse) *SearchResponse {
	cp := *response
	cp.Entries = make([]*types.Entry, len(response.Entries))
	copy(cp.Entries, response.Entries)
	return &cp
}
