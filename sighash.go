package cellkit

import "io"

// SigningMessage returns the digest that must be signed in order to unlock
// the first input group of the transaction.
//
// The message covers the transaction hash, the first witness with its lock
// field replaced by lockPlaceholder, and every other witness up to the
// greater of the input and the witness count. Absent witnesses are hashed as
// empty. Because the lock field is replaced, signatures already present in
// the transaction never influence the result.
func SigningMessage(tx *Transaction, lockPlaceholder []byte) (Hash, error) {
	first, err := DecodeWitnessArgs(tx.Witness(0))
	if err != nil {
		return Hash{}, err
	}
	if lockPlaceholder == nil {
		lockPlaceholder = []byte{}
	}
	first.Lock = lockPlaceholder

	txHash := tx.Hash()
	h := NewHasher()
	_, _ = h.Write(txHash[:])
	writeWitness(h, first.Serialize())

	n := len(tx.Inputs)
	if len(tx.Witnesses) > n {
		n = len(tx.Witnesses)
	}
	for i := 1; i < n; i++ {
		writeWitness(h, tx.Witness(i))
	}

	var msg Hash
	copy(msg[:], h.Sum(nil))
	return msg, nil
}

func writeWitness(h io.Writer, w []byte) {
	_, _ = h.Write(packUint64(uint64(len(w))))
	_, _ = h.Write(w)
}
