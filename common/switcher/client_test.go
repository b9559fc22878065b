package switcher

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Reference computation of the challenge-response chain:
// base64(sha256(base64(sha256(password+salt)) + challenge))
func referenceAuth(password, salt, challenge string) string {
	secretHash := sha256.Sum256([]byte(password + salt))
	secret := base64.StdEncoding.EncodeToString(secretHash[:])
	responseHash := sha256.Sum256([]byte(secret + challenge))
	return base64.StdEncoding.EncodeToString(responseHash[:])
}

func TestAuthResponse(t *testing.T) {
	got := authResponse("supersecret", "salt123", "challenge456")
	want := referenceAuth("supersecret", "salt123", "challenge456")
	assert.Equal(t, want, got)

	// Different challenge must change the response
	other := authResponse("supersecret", "salt123", "challenge789")
	assert.NotEqual(t, got, other)

	// Deterministic
	assert.Equal(t, got, authResponse("supersecret", "salt123", "challenge456"))
}
