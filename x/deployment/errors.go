package deployment

import (
	"github.com/iov-one/cellkit/errors"
)

// deployment takes 1040-1049
var (
	ErrUnresolvedReference  = errors.Register(1040, "unresolved reference")
	ErrInsufficientCapacity = errors.Register(1041, "insufficient capacity")
	ErrChainRPC             = errors.Register(1042, "chain rpc")
	ErrConfirmationTimeout  = errors.Register(1043, "confirmation timeout")
	ErrSigner               = errors.Register(1044, "signer")
)
