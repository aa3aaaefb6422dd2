package accounts

import (
	"crypto/rand"
	"errors"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

const (
	numberChars = "0123456789"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	symbolChars = "!@#$%&*"
)

// GeneratePassword returns a random password of the requested length.
// Slots 0-3 are drawn one each from digits, uppercase, lowercase and
// symbols so every class is represented; the remainder comes from the
// combined alphabet and the whole sequence is shuffled. Coupon mode
// restricts every slot to uppercase letters for readability. Lengths
// below 4 cannot hold one character per mandatory class.
func GeneratePassword(length int, coupon bool) (string, error) {
	if length < 4 {
		return "", goerrors.New("password length must be at least 4", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	classes := []string{numberChars, upperChars, lowerChars, symbolChars}
	allChars := numberChars + upperChars + lowerChars + symbolChars
	if coupon {
		classes = []string{upperChars, upperChars, upperChars, upperChars}
		allChars = upperChars
	}

	out := make([]byte, length)
	for i := range out {
		alphabet := allChars
		if i < len(classes) {
			alphabet = classes[i]
		}
		c, err := randomByte(alphabet)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	if err := shuffleBytes(out); err != nil {
		return "", err
	}

	return string(out), nil
}

func randomByte(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random source")
	}
	return alphabet[n.Int64()], nil
}

func shuffleBytes(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random source")
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
