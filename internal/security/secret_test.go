package security

import (
	"strings"
	"testing"
)

func TestGenerateFamilySecret(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		secret, err := GenerateFamilySecret()
		if err != nil {
			t.Fatalf("GenerateFamilySecret() error = %v", err)
		}

		if len(secret) != secretLength {
			t.Errorf("expected secret length %d, got %d", secretLength, len(secret))
		}

		for _, r := range secret {
			if !strings.ContainsRune(secretAlphabet, r) {
				t.Errorf("secret contains character %q outside alphabet", r)
			}
		}

		if seen[secret] {
			t.Errorf("duplicate secret generated: %s", secret)
		}
		seen[secret] = true
	}
}
