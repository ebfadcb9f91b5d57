package pwd

import (
	"strings"
	"testing"
	"time"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

func TestLongPassword(t *testing.T) {
	start := time.Now()
	zxcvbn.PasswordStrength("68b329da9893e34099c7d8ad5cb9c940", nil)
	t.Log("Took", time.Since(start))
}

func TestStrengthPrompt(t *testing.T) {
	weak := strengthPrompt([]rune("abc"), "New ")
	if !strings.Contains(weak, "New passphrase:") {
		t.Fatalf("prompt does not mention the passphrase: %s", weak)
	}

	strong := strengthPrompt([]rune("quite l0ng and unguessable!"), "Retype ")
	if !strings.Contains(strong, "Retype passphrase:") {
		t.Fatalf("prompt does not mention the passphrase: %s", strong)
	}
}

func BenchmarkLongPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		zxcvbn.PasswordStrength("1234567890123456", nil)
	}
}
