package config

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecret reads a secret from the standard Docker Secrets path,
// falling back to the uppercased environment variable of the same name.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("failed to read secret %s: no secret file and no env var: %w", secretName, err)
}
