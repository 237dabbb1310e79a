package mockdata

import (
	"encoding/json"
	"fmt"
)

// Record is one generated item. Every record has an "id" string.
type Record map[string]any

// ID returns the record identifier as a string.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	switch v := r["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Store holds generated collections keyed by pluralized entity name. It is
// filled once by a Generator and read-only afterwards, so concurrent readers
// need no locking.
type Store struct {
	collections map[string][]Record
	index       map[string]map[string]int
	order       []string
}

func newStore() *Store {
	return &Store{
		collections: make(map[string][]Record),
		index:       make(map[string]map[string]int),
	}
}

func (s *Store) add(plural string, rec Record) {
	if _, ok := s.collections[plural]; !ok {
		s.order = append(s.order, plural)
		s.index[plural] = make(map[string]int)
		s.collections[plural] = []Record{}
	}
	s.index[plural][rec.ID()] = len(s.collections[plural])
	s.collections[plural] = append(s.collections[plural], rec)
}

// Collection returns the records of a collection in generation order, or nil
// when the collection does not exist. Callers must not modify the result.
func (s *Store) Collection(plural string) []Record {
	return s.collections[plural]
}

// Has reports whether the collection exists.
func (s *Store) Has(plural string) bool {
	_, ok := s.collections[plural]
	return ok
}

// Find looks a record up by id.
func (s *Store) Find(plural, id string) (Record, bool) {
	i, ok := s.index[plural][id]
	if !ok {
		return nil, false
	}
	return s.collections[plural][i], true
}

func (s *Store) Exists(plural, id string) bool {
	_, ok := s.index[plural][id]
	return ok
}

// ChildrenOf returns the records of childPlural whose foreignKey equals
// parentID, in generation order. The result is never nil.
func (s *Store) ChildrenOf(childPlural, foreignKey, parentID string) []Record {
	out := []Record{}
	for _, rec := range s.collections[childPlural] {
		if v, ok := rec[foreignKey].(string); ok && v == parentID {
			out = append(out, rec)
		}
	}
	return out
}

// Names returns collection names in generation order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Len is the number of records across all collections.
func (s *Store) Len() int {
	n := 0
	for _, c := range s.collections {
		n += len(c)
	}
	return n
}

// MarshalJSON renders the whole dataset as {"<plural>": [records...]}.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.collections)
}
