package shortlink

import "github.com/jaevor/go-nanoid"

// Alphabet is the character set short codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultCodeLength is the length of generated codes.
	DefaultCodeLength = 6

	// MinCodeLength and MaxCodeLength bound custom codes.
	MinCodeLength = 3
	MaxCodeLength = 20
)

// CodeGenerator produces a random short code of a fixed length.
type CodeGenerator func() string

// NewCodeGenerator returns a generator drawing codes of the given
// length uniformly from Alphabet, backed by a cryptographically secure
// random source so codes are not guessable.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}

// ValidCode reports whether a code is well-formed: 3-20 characters,
// all drawn from Alphabet.
func ValidCode(code string) bool {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return false
	}

	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}

	return true
}
