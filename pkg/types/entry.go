package types

// Entry is one immutable captured content record.
//
// Content, ContentType and Metadata are opaque to the store: no validation or
// transformation is performed on them. Timestamp is the caller-supplied
// capture time in Unix milliseconds and is not required to be monotonic
// across entries. ID and CreatedAt are assigned by the store at insert.
type Entry struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type"`
	Timestamp   int64             `json:"timestamp"`
	SourceApp   string            `json:"source_app,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   int64             `json:"created_at"`
}

// EntryFilter narrows listing and search operations.
//
// ContentType, when non-empty, requires an exact type match. Since, when
// non-nil, keeps only entries with Timestamp >= *Since. Limit caps the result
// size; callers leave it zero to get the operation's default.
type EntryFilter struct {
	ContentType string
	Since       *int64
	Limit       int
}
