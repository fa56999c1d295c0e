/*
Package crypto provides secp256k1 keys used by the default single key lock
of the ledger, and a transaction signer built on top of them.

Signatures are 65 bytes long: the 64 byte compact signature followed by the
recovery byte.
*/
package crypto
