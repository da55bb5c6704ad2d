package kpi

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/cabmatch/core/model"
)

type key struct {
	cat model.VehicleCategory
	day time.Time
}

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[key]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[key]*Record{}}
}

// Add inserts or updates the record aggregated by day and category.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{cat: r.Category, day: Day(r.Date)}
	rec := s.data[k]
	if rec == nil {
		rec = &Record{Category: k.cat, Date: k.day}
		s.data[k] = rec
	}
	rec.Requests += r.Requests
	rec.Matched += r.Matched
	rec.FareTotal += r.FareTotal
	rec.PickupKmTotal += r.PickupKmTotal
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end = Day(start), Day(end)
	var res []Record
	for k, r := range s.data {
		if k.day.Before(start) || k.day.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].Category < res[j].Category
	})
	return res, nil
}
