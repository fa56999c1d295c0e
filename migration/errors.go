package migration

import (
	"github.com/iov-one/cellkit/errors"
)

// migration takes 1050-1059
var (
	ErrMigrationCorrupt = errors.Register(1050, "migration corrupt")
	ErrLocked           = errors.Register(1051, "migration locked")
)
