/*
Package multisig implements the threshold signature lock of the ledger.

A Policy declares N public key hashes, of which any M must sign a
transaction and the first R must always sign. The policy is encoded into
the lock arguments as

	[S, R, M, N] || blake160(pubkey_0) || ... || blake160(pubkey_N-1)

and the lock script args are the blake160 hash of that encoding.

Cosigners sign a single message computed by Message. The message covers
the transaction and all its witnesses, with the lock field of the first
witness replaced by the encoded policy followed by N zeroed signatures, so
that it does not depend on the signatures themselves. Once enough
signatures are collected, Aggregate installs them into the first witness.

Signatures are collected out of band using a Session, a TOML document that
is passed between cosigners.
*/
package multisig
