package password

// Algorithm names a digest family.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Multi hashes with its primary algorithm and verifies digests of either
// family, so accounts imported with bcrypt hashes keep working.
type Multi struct {
	primary Algorithm
	argon   *Argon2
	bcrypt  *Bcrypt
}

// NewMulti hashes with argon unless primary is AlgorithmBcrypt. Either
// hasher may be nil when its family never needs verifying.
func NewMulti(primary Algorithm, argon *Argon2, bc *Bcrypt) *Multi {
	if primary == AlgorithmBcrypt && bc == nil {
		primary = AlgorithmArgon2id
	}
	if primary != AlgorithmBcrypt {
		primary = AlgorithmArgon2id
	}
	return &Multi{primary: primary, argon: argon, bcrypt: bc}
}

func (m *Multi) Hash(plaintext string) (string, error) {
	if m.primary == AlgorithmBcrypt {
		return m.bcrypt.Hash(plaintext)
	}
	return m.argon.Hash(plaintext)
}

func (m *Multi) Verify(plaintext, digest string) (bool, error) {
	switch {
	case IsBcrypt(digest) && m.bcrypt != nil:
		return m.bcrypt.Verify(plaintext, digest)
	case IsArgon2(digest) && m.argon != nil:
		return m.argon.Verify(plaintext, digest)
	}
	return false, ErrMalformedHash
}

// NeedsUpgrade is true for every digest outside the primary family.
func (m *Multi) NeedsUpgrade(digest string) (bool, error) {
	if m.primary == AlgorithmBcrypt {
		if !IsBcrypt(digest) {
			return true, nil
		}
		return m.bcrypt.NeedsUpgrade(digest)
	}
	if !IsArgon2(digest) {
		return true, nil
	}
	return m.argon.NeedsUpgrade(digest)
}
