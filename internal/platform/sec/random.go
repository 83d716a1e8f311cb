// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// GenerateSecureToken returns a URL-safe random token of the given byte
// length, suitable for OAuth state parameters and similar one-shot secrets.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
