// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for newly produced hashes. Verification reads the
// parameters back out of the PHC string, so these can be tuned without
// invalidating existing hashes.
const (
	argon2Prefix      = "$argon2id$"
	argon2Memory      = 64 * 1024
	argon2Time        = 1
	argon2Parallelism = 4
	argon2SaltLength  = 16
	argon2KeyLength   = 32
)

// argon2Hash derives an argon2id key and encodes it in the standard PHC
// string format: $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
func argon2Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// argon2Verify recomputes the key from the password using the parameters
// embedded in the PHC string and compares in constant time.
func argon2Verify(password, encodedHash string) (bool, error) {
	memory, timeCost, parallelism, salt, expected, err := argon2Parse(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memory, parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// argon2Parse splits a PHC-formatted argon2id hash into its components.
func argon2Parse(encodedHash string) (memory, timeCost uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("sec: not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("sec: malformed argon2 version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("sec: unsupported argon2 version %d", version)
	}

	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &p); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("sec: malformed argon2 parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("sec: malformed argon2 salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("sec: malformed argon2 hash: %w", err)
	}

	return memory, timeCost, p, salt, hash, nil
}
