package migration

import (
	"github.com/google/btree"
)

// State is the outcome of all deployments recorded so far. Records are
// indexed and iterated by name.
type State struct {
	// Sequence is the number of deployments recorded.
	Sequence uint64
	records  *btree.BTree
}

// NewState returns a state without any records.
func NewState() *State {
	return &State{records: btree.New(2)}
}

type recordItem struct {
	Record
}

var _ btree.Item = recordItem{}

// Less orders records by name.
func (r recordItem) Less(than btree.Item) bool {
	return r.Name < than.(recordItem).Name
}

// Get returns the record of given name.
func (s *State) Get(name string) (Record, bool) {
	it := s.records.Get(recordItem{Record{Name: name}})
	if it == nil {
		return Record{}, false
	}
	return it.(recordItem).Record, true
}

// Len returns the number of records.
func (s *State) Len() int {
	return s.records.Len()
}

// Records returns all records ordered by name.
func (s *State) Records() []Record {
	out := make([]Record, 0, s.records.Len())
	s.records.Ascend(func(it btree.Item) bool {
		out = append(out, it.(recordItem).Record)
		return true
	})
	return out
}

// Clone returns a copy that can be modified independently.
func (s *State) Clone() *State {
	return &State{
		Sequence: s.Sequence,
		records:  s.records.Clone(),
	}
}

// put inserts or replaces a record.
func (s *State) put(r Record) {
	s.records.ReplaceOrInsert(recordItem{r})
}
