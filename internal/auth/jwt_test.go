package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sessionClaims() Claims {
	return Claims{
		UserID:    "client-1",
		Email:     "jane@x.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	signer, err := NewSigner("secret", "issuer")
	require.NoError(t, err)

	token, err := signer.Issue(sessionClaims(), time.Minute)
	require.NoError(t, err)

	claims, err := signer.Parse(token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims.UserID)
	assert.Equal(t, "client-1", claims.Subject)
	assert.Equal(t, "jane@x.com", claims.Email)
	assert.Equal(t, "Jane", claims.FirstName)
	assert.Equal(t, PurposeSession, claims.Purpose)
	assert.Equal(t, "issuer", claims.Issuer)
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("", "issuer")
	require.Error(t, err)
}

func TestExpiryIsEnforced(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewSigner("secret", "issuer", WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)
	token, err := issuer.Issue(sessionClaims(), 10*time.Minute)
	require.NoError(t, err)

	before, err := NewSigner("secret", "issuer", WithClock(fixedClock(issuedAt.Add(10*time.Minute-time.Second))))
	require.NoError(t, err)
	_, err = before.Parse(token, PurposeSession)
	require.NoError(t, err)

	after, err := NewSigner("secret", "issuer", WithClock(fixedClock(issuedAt.Add(10*time.Minute+time.Second))))
	require.NoError(t, err)
	_, err = after.Parse(token, PurposeSession)
	require.Error(t, err)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	signer, err := NewSigner("secret", "issuer")
	require.NoError(t, err)
	token, err := signer.Issue(sessionClaims(), time.Minute)
	require.NoError(t, err)

	otherSecret, err := NewSigner("other-secret", "issuer")
	require.NoError(t, err)
	_, err = otherSecret.Parse(token, PurposeSession)
	assert.Error(t, err, "different secret")

	otherIssuer, err := NewSigner("secret", "someone-else")
	require.NoError(t, err)
	_, err = otherIssuer.Parse(token, PurposeSession)
	assert.Error(t, err, "different issuer")

	_, err = signer.Parse("not-a-token", PurposeSession)
	assert.Error(t, err, "malformed")

	_, err = signer.Parse("", PurposeSession)
	assert.Error(t, err, "empty")
}

func TestPurposesAreNotInterchangeable(t *testing.T) {
	signer, err := NewSigner("secret", "issuer")
	require.NoError(t, err)

	reset := sessionClaims()
	reset.Purpose = PurposePasswordReset
	token, err := signer.Issue(reset, time.Minute)
	require.NoError(t, err)

	_, err = signer.Parse(token, PurposeSession)
	require.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := signer.Parse(token, PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, claims.Purpose)
}

func TestSingleBitMutationFailsVerification(t *testing.T) {
	signer, err := NewSigner("secret", "issuer")
	require.NoError(t, err)
	token, err := signer.Issue(sessionClaims(), time.Hour)
	require.NoError(t, err)

	raw := []byte(token)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit
			if _, err := signer.Parse(string(mutated), PurposeSession); err == nil {
				t.Fatalf("mutation at byte %d bit %d was accepted", i, bit)
			}
		}
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	signer, err := NewSigner("secret", "issuer")
	require.NoError(t, err)
	_, err = signer.Issue(Claims{}, time.Minute)
	require.Error(t, err)
}
