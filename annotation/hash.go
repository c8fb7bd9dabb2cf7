package annotation

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// HashFile returns the hex sha256 of a file's contents
func HashFile(filepath string) (string, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("while hashing %s: %w", filepath, err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
