package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// SignatureLength is the length of a recoverable signature.
const SignatureLength = 65

// PrivateKey is a secp256k1 private key.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey returns a new random private key.
func GenerateKey() (*PrivateKey, error) {
	k, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(errors.ErrState, err.Error())
	}
	return &PrivateKey{key: k}, nil
}

// ParsePrivateKey decodes a hex encoded, 32 byte private key. The 0x prefix
// is optional.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "private key is not hex encoded")
	}
	k, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PrivateKey{key: k}, nil
}

// LoadPrivateKey reads a hex encoded private key from given file.
func LoadPrivateKey(path string) (*PrivateKey, error) {
	k, err := ethcrypto.LoadECDSA(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "load %q: %s", path, err)
	}
	return &PrivateKey{key: k}, nil
}

// Save writes the hex encoded key into given file, readable only by the
// owner.
func (k *PrivateKey) Save(path string) error {
	if err := ethcrypto.SaveECDSA(path, k.key); err != nil {
		return errors.Wrapf(errors.ErrInput, "save %q: %s", path, err)
	}
	return nil
}

// Hex returns the 0x prefixed hex representation of the key.
func (k *PrivateKey) Hex() string {
	return "0x" + hex.EncodeToString(ethcrypto.FromECDSA(k.key))
}

// PublicKey returns the compressed public key.
func (k *PrivateKey) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&k.key.PublicKey)
}

// PubkeyHash returns the blake160 hash of the compressed public key. This is
// the key identity used in lock arguments.
func (k *PrivateKey) PubkeyHash() [20]byte {
	return cellkit.Blake160(k.PublicKey())
}

// LockScript returns the default single key lock owned by this key.
func (k *PrivateKey) LockScript() cellkit.Script {
	h := k.PubkeyHash()
	return cellkit.Script{
		CodeHash: cellkit.Secp256k1Blake160CodeHash,
		HashType: cellkit.HashTypeType,
		Args:     h[:],
	}
}

// Sign returns a recoverable signature of given message.
func (k *PrivateKey) Sign(msg cellkit.Hash) ([]byte, error) {
	sig, err := ethcrypto.Sign(msg[:], k.key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return sig, nil
}

// RecoverPubkeyHash returns the identity of the key that created given
// signature for given message.
func RecoverPubkeyHash(msg cellkit.Hash, sig []byte) ([20]byte, error) {
	if len(sig) != SignatureLength {
		return [20]byte{}, errors.Wrapf(errors.ErrInput, "signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	pub, err := ethcrypto.SigToPub(msg[:], sig)
	if err != nil {
		return [20]byte{}, errors.Wrap(errors.ErrInput, err.Error())
	}
	return cellkit.Blake160(ethcrypto.CompressPubkey(pub)), nil
}
