package integrity

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Sha256Hex returns the SHA-256 hex digest of a file.
func Sha256Hex(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Sha256Base64Stripped returns the SHA-256 base64 digest with trailing `=`
// padding stripped, the form the product manifest stores.
func Sha256Base64Stripped(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return strings.TrimRight(base64.StdEncoding.EncodeToString(sum[:]), "="), nil
}
