package models

import "sort"

// URLSet is an unordered set of URL strings accumulated over one logical
// transaction.
type URLSet map[string]struct{}

// NewURLSet creates a set containing the given URLs.
func NewURLSet(urls ...string) URLSet {
	s := make(URLSet, len(urls))
	s.AddAll(urls)
	return s
}

// Add inserts a single URL.
func (s URLSet) Add(url string) {
	s[url] = struct{}{}
}

// AddAll inserts every URL from the slice.
func (s URLSet) AddAll(urls []string) {
	for _, u := range urls {
		s[u] = struct{}{}
	}
}

// Contains reports whether the URL is in the set.
func (s URLSet) Contains(url string) bool {
	_, ok := s[url]
	return ok
}

// Empty reports whether the set has no members.
func (s URLSet) Empty() bool {
	return len(s) == 0
}

// Values returns the members sorted, for deterministic logging and tests.
func (s URLSet) Values() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
