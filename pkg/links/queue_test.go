package links

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueue_AddAndPop(t *testing.T) {
	q := NewQueue()

	if !q.Add("https://example.com/page1", 0) {
		t.Fatal("Add() should return true for a new URL")
	}
	if q.Add("https://example.com/page1#section", 1) {
		t.Error("Add() should ignore fragments when deduplicating")
	}
	if q.Add("HTTPS://EXAMPLE.COM/page1", 1) {
		t.Error("Add() should ignore scheme and host case")
	}
	if !q.Add("https://example.com/page2/", 1) {
		t.Fatal("Add() should accept page2")
	}
	if q.Add("https://example.com/page2", 2) {
		t.Error("Add() should ignore trailing slashes")
	}

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	item, ok := q.Pop()
	if !ok || item.URL != "https://example.com/page1" || item.Depth != 0 {
		t.Errorf("Pop() = %+v, %v", item, ok)
	}
	item, ok = q.Pop()
	if !ok || item.URL != "https://example.com/page2" || item.Depth != 1 {
		t.Errorf("Pop() = %+v, %v", item, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue should return false")
	}
	if q.Seen() != 2 {
		t.Errorf("Seen() = %d, want 2", q.Seen())
	}
}

func TestQueue_RejectsRelativeAndInvalid(t *testing.T) {
	q := NewQueue()
	for _, u := range []string{"", "/relative/path", "::not a url", "mailto:x@example.com"} {
		if q.Add(u, 0) {
			t.Errorf("Add(%q) should be rejected", u)
		}
	}
}

func TestQueue_MarkVisited(t *testing.T) {
	q := NewQueue()
	q.MarkVisited("https://example.com/seed/")

	if !q.IsVisited("https://example.com/seed") {
		t.Error("IsVisited() should be true after MarkVisited")
	}
	if q.Add("https://example.com/seed", 1) {
		t.Error("Add() should refuse a visited URL")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Add(fmt.Sprintf("https://example.com/doc/%d", i%10), 0)
		}(i)
	}
	wg.Wait()

	if q.Len() != 10 {
		t.Errorf("Len() = %d, want 10", q.Len())
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Example.com/a/#x", "https://example.com/a"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com/a?b=1#c", "https://example.com/a?b=1"},
		{"relative.html", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
