package client

// Feed is the JSON envelope splunkd returns for output_mode=json.
type Feed struct {
	Entries  []Entry       `json:"entry"`
	Messages []FeedMessage `json:"messages"`
	Paging   Paging        `json:"paging"`
}

// First returns the first entry of the feed.
func (f *Feed) First() (Entry, bool) {
	if f == nil || len(f.Entries) == 0 {
		return Entry{}, false
	}
	return f.Entries[0], true
}

// Entry is one item of a feed. Content is decoded loosely because splunkd
// reports the same field as string, number or bool depending on version.
type Entry struct {
	Name    string            `json:"name"`
	ID      string            `json:"id"`
	Updated string            `json:"updated"`
	Links   map[string]string `json:"links"`
	Content Content           `json:"content"`
}

// FeedMessage is a message attached to a feed (errors, mutation results).
type FeedMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Paging is the paging block of a feed.
type Paging struct {
	Total   int `json:"total"`
	PerPage int `json:"perPage"`
	Offset  int `json:"offset"`
}

// RestResult is the outcome of a generic RestCall. Feed is nil when the
// response body is not a JSON feed.
type RestResult struct {
	Feed *Feed
	Text string
}
