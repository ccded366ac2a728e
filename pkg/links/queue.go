package links

import (
	"net/url"
	"strings"
	"sync"
)

// Item is a queued URL with its crawl depth.
type Item struct {
	URL   string
	Depth int
}

// Queue is a FIFO of URLs that only accepts each normalized URL once.
type Queue struct {
	mu      sync.Mutex
	queue   []Item
	visited map[string]bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues rawURL unless it was already queued or visited.
func (q *Queue) Add(rawURL string, depth int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	normalized := Normalize(rawURL)
	if normalized == "" || q.visited[normalized] {
		return false
	}

	q.visited[normalized] = true
	q.queue = append(q.queue, Item{URL: normalized, Depth: depth})
	return true
}

// Pop removes and returns the next item.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return Item{}, false
	}

	item := q.queue[0]
	q.queue = q.queue[1:]
	return item, true
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Seen returns how many distinct URLs the queue has accepted or been told about.
func (q *Queue) Seen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.visited)
}

// IsVisited checks if a URL has been queued or marked visited.
func (q *Queue) IsVisited(rawURL string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visited[Normalize(rawURL)]
}

// MarkVisited records a URL without queueing it.
func (q *Queue) MarkVisited(rawURL string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := Normalize(rawURL); n != "" {
		q.visited[n] = true
	}
}

// Normalize drops the fragment and a trailing slash and lowercases the
// scheme and host. Non-absolute or unparseable URLs normalize to "".
func Normalize(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return ""
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		parsed.RawPath = ""
	}

	return parsed.String()
}
