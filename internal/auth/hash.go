// Package auth hashes and verifies account passwords.
//
// New hashes are argon2id in PHC string form. bcrypt hashes are still accepted so accounts
// imported from older systems keep working.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// is returned when email/password don't match.
var ErrInvalidCredentials = errors.New("invalid credentials")

var ErrUnknownHash = errors.New("unknown password hash format")

// upper bounds for parameters read back from stored argon2id hashes
const (
	maxArgonMemory = 256 * 1024 // KiB
	maxArgonTime   = 16
	maxArgonKeyLen = 128
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16

	// bcrypt ignores everything past 72 bytes
	bcryptMaxInput = 72
)

var b64 = base64.RawStdEncoding

// HashPassword returns an argon2id hash: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func HashPassword(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// HashBcrypt hashes with bcrypt, pre-hashing inputs bcrypt would truncate.
func HashBcrypt(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(bcryptInput(plain)), bcrypt.DefaultCost)
	return string(out), err
}

// VerifyPassword compares plain against an argon2id or bcrypt hash.
func VerifyPassword(plain, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon(plain, hash)
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(bcryptInput(plain)))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return false, ErrUnknownHash
}

// CheckPassword is VerifyPassword with malformed hashes treated as a mismatch.
func CheckPassword(hash, plain string) bool {
	ok, err := VerifyPassword(plain, hash)
	return err == nil && ok
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func bcryptInput(plain string) string {
	if len(plain) > bcryptMaxInput {
		sum := sha256.Sum256([]byte(plain))
		return hex.EncodeToString(sum[:])
	}
	return plain
}

func verifyArgon(plain, hash string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, ErrUnknownHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrUnknownHash
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrUnknownHash
	}
	if memory == 0 || memory > maxArgonMemory || time == 0 || time > maxArgonTime || threads == 0 {
		return false, ErrUnknownHash
	}
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false, ErrUnknownHash
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgonKeyLen {
		return false, ErrUnknownHash
	}

	got := argon2.IDKey([]byte(plain), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
