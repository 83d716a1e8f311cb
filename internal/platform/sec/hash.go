// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package sec

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the current scheme (argon2id).
//
// New registrations and password changes always produce argon2id hashes; the
// legacy bcrypt scheme survives only in [CheckPasswordHash] so that accounts
// created before the migration keep working without a forced rehash.
func HashPassword(plainTextPassword string) (string, error) {
	encoded, err := argon2Hash(plainTextPassword)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return encoded, nil
}

// CheckPasswordHash compares a plain-text password with its stored hash,
// accepting hashes from either the current (argon2id) or legacy (bcrypt)
// scheme without the caller knowing which one produced it.
//
// # Failure Normalization
//
// Every failure — unknown format, parameter mismatch, wrong password,
// internal error — collapses to false. No error ever escapes.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {

	// Current scheme first. Any failure falls through to the legacy scheme.
	if strings.HasPrefix(existingHash, argon2Prefix) {
		ok, err := argon2Verify(plainTextPassword, existingHash)
		if err == nil && ok {
			return true
		}
	}

	// Legacy scheme. bcrypt rejects foreign formats on its own.
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
