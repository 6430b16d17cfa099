// Package secret generates random strings for generated passwords.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// PasswordLen gives about 95 bits of entropy with Chars.
const PasswordLen = 16

// Chars is the alphabet of Password.
const Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrCharset is returned for alphabets with fewer than 2 or more than 256 characters.
var ErrCharset = errors.New("charset must have between 2 and 256 characters")

// Password returns a random string of PasswordLen characters from Chars.
func Password() (string, error) {
	return String(PasswordLen, Chars)
}

// String returns a random string of length characters drawn from chars.
// Bytes that would bias the result towards the start of chars are dropped.
func String(length int, chars string) (string, error) {
	n := len(chars)
	if n < 2 || n > 256 {
		return "", ErrCharset
	}

	// largest byte value that maps evenly onto chars
	limit := 255 - (256 % n)
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) > limit {
				continue
			}

			out = append(out, chars[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
