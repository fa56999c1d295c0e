package celltest

import (
	"github.com/iov-one/cellkit/errors"
)

// Artifacts is an in memory artifact source, keyed by path.
type Artifacts map[string][]byte

func (a Artifacts) ReadArtifact(path string) ([]byte, error) {
	raw, ok := a[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "artifact %q", path)
	}
	return append([]byte(nil), raw...), nil
}
