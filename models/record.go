// Package models defines data structures for the retriever.
package models

import (
	"sort"
	"time"
)

// Record represents one certified TSE entry from the BSI list.
type Record struct {
	ID           string `csv:"id" json:"id"`
	Year         string `csv:"year" json:"year"`
	Content      string `csv:"content" json:"content"`
	Manufacturer string `csv:"manufacturer" json:"manufacturer"`
	DateIssuance string `csv:"date_issuance" json:"date_issuance"`
}

// Key returns the collection key of the record, "<id>-<year>".
func (r Record) Key() string {
	return r.ID + "-" + r.Year
}

// Collection maps "<id>-<year>" keys to records.
type Collection map[string]Record

// Add stores r under its key, replacing any previous entry.
func (c Collection) Add(r Record) {
	c[r.Key()] = r
}

// Merge copies every entry of other into c. Entries of other win on collision.
func (c Collection) Merge(other Collection) {
	for k, v := range other {
		c[k] = v
	}
}

// Keys returns the collection keys in ascending order.
func (c Collection) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Report holds diagnostics of the last retrieval run.
type Report struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Attempts     int
	PagesPlanned int
	PagesFetched int
	FailedPages  []int
	ErrorsByType map[string]int
	RecordCount  int
	LastError    string
}
