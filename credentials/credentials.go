// Package credentials verifies supplied client secrets against stored
// password hashes. Hash generation internals live with the backend that
// provisions users; this package only answers match questions.
package credentials

import "golang.org/x/crypto/bcrypt"

// Result of a verification attempt.
type Result int

const (
	Match Result = iota
	Mismatch
	// RehashNeeded means the secret matched but the stored hash uses a
	// weaker parameter set than currently configured and should be
	// regenerated by the directory owner.
	RehashNeeded
)

func (r Result) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case RehashNeeded:
		return "rehash-needed"
	default:
		return "unknown"
	}
}

// Verifier checks a supplied secret against a stored hash.
type Verifier interface {
	Verify(storedHash, supplied string) Result
}

// BcryptVerifier verifies bcrypt hashes.
type BcryptVerifier struct {
	// Cost below which a matching hash is reported as RehashNeeded.
	Cost int
}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{Cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Verify(storedHash, supplied string) Result {
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(supplied)); err != nil {
		return Mismatch
	}
	if cost, err := bcrypt.Cost([]byte(storedHash)); err == nil && cost < v.Cost {
		return RehashNeeded
	}
	return Match
}

// Hash generates a bcrypt hash for provisioning and tests.
func Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
