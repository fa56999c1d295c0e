package multisig

import (
	"github.com/iov-one/cellkit/errors"
)

// multisig takes 1030-1039
var (
	ErrPolicyTooLarge          = errors.Register(1030, "multisig policy too large")
	ErrPolicyInconsistent      = errors.Register(1031, "multisig policy inconsistent")
	ErrSignatureLengthMismatch = errors.Register(1032, "signature length mismatch")
	ErrSignatureCountMismatch  = errors.Register(1033, "signature count mismatch")
)
