package migration

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/iov-one/cellkit/errors"
	"github.com/moby/sys/atomicwriter"
)

const (
	// FileName is the name of the deployment file within the environment
	// directory.
	FileName = "deployment.json"

	lockFileName = ".lock"

	// formatVersion is increased whenever the deployment file layout
	// changes in an incompatible way.
	formatVersion = 1
)

// Store persists the deployment state of a single environment.
type Store struct {
	dir  string
	lock *flock.Flock
}

// NewStore returns a store keeping its files in given directory. The
// directory is created when the first deployment is recorded.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}
}

// Dir returns the environment directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of the deployment file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Lock acquires an exclusive lock of the environment. Only one process can
// hold the lock at a time. If the lock is held by someone else, ErrLocked
// is returned immediately.
func (s *Store) Lock() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrInput, "create %q: %s", s.dir, err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "lock %q: %s", s.dir, err)
	}
	if !ok {
		return errors.Wrapf(ErrLocked, "%q is used by another deployment", s.dir)
	}
	return nil
}

// Unlock releases the lock acquired with Lock.
func (s *Store) Unlock() error {
	if err := s.lock.Unlock(); err != nil {
		return errors.Wrapf(errors.ErrInput, "unlock %q: %s", s.dir, err)
	}
	return nil
}

// deploymentFile is the content of the deployment file.
type deploymentFile struct {
	Format   int          `json:"format"`
	Sequence uint64       `json:"sequence"`
	Records  []recordJSON `json:"records"`
}

// Load returns the recorded state. If nothing was recorded yet, an empty
// state is returned.
func (s *Store) Load() (*State, error) {
	raw, err := ioutil.ReadFile(s.Path())
	switch {
	case os.IsNotExist(err):
		return NewState(), nil
	case err != nil:
		return nil, errors.Wrapf(errors.ErrInput, "read %q: %s", s.Path(), err)
	}
	state, err := decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "file %q", s.Path())
	}
	return state, nil
}

func decode(raw []byte) (*State, error) {
	var f deploymentFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(ErrMigrationCorrupt, err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.Wrap(ErrMigrationCorrupt, "unexpected data after the deployment document")
	}
	if f.Format != formatVersion {
		return nil, errors.Wrapf(ErrMigrationCorrupt, "unsupported format %d", f.Format)
	}
	state := NewState()
	state.Sequence = f.Sequence
	for i, j := range f.Records {
		r := j.record()
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(ErrMigrationCorrupt, "record %d: %s", i, err)
		}
		if r.Migration > f.Sequence {
			return nil, errors.Wrapf(ErrMigrationCorrupt, "record %q from migration %d above sequence %d", r.Name, r.Migration, f.Sequence)
		}
		if _, ok := state.Get(r.Name); ok {
			return nil, errors.Wrapf(ErrMigrationCorrupt, "record %q is duplicated", r.Name)
		}
		state.put(r)
	}
	return state, nil
}

func encode(state *State) ([]byte, error) {
	f := deploymentFile{
		Format:   formatVersion,
		Sequence: state.Sequence,
		Records:  make([]recordJSON, 0, state.Len()),
	}
	for _, r := range state.Records() {
		f.Records = append(f.Records, newRecordJSON(r))
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return append(raw, '\n'), nil
}

// Append records the outcome of a deployment. Given records replace any
// existing record of the same name. The sequence is increased and all given
// records are marked with the new sequence number. The new state is
// returned.
func (s *Store) Append(records []Record) (*State, error) {
	names := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "record %q", r.Name)
		}
		if _, ok := names[r.Name]; ok {
			return nil, errors.Wrapf(errors.ErrDuplicate, "record %q", r.Name)
		}
		names[r.Name] = struct{}{}
	}

	prev, err := s.Load()
	if err != nil {
		return nil, err
	}
	next := prev.Clone()
	next.Sequence++
	for _, r := range records {
		r.Migration = next.Sequence
		next.put(r)
	}

	raw, err := encode(next)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(s.Path(), raw); err != nil {
		return nil, err
	}
	return next, nil
}

// writeFileAtomic replaces the content of the file at path. The file is
// either left untouched or fully replaced.
func writeFileAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrInput, "create %q: %s", dir, err)
	}
	if err := atomicwriter.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(errors.ErrInput, "write %q: %s", path, err)
	}
	return nil
}
