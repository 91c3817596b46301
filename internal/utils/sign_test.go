package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignRoundTrip(t *testing.T) {
	key := testKeyPair(t)

	now := time.Now().Unix()
	claims := &Claims{
		Sub:      "user-1",
		Username: "niklas",
		IsAgent:  true,
		Iat:      now,
		Exp:      now + 3600,
	}

	token, err := GenerateSign(claims, key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseAndVerifySign(token, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Sub)
	assert.Equal(t, "niklas", parsed.Username)
	assert.True(t, parsed.IsAgent, "the agent flag must survive the round trip")
}

func TestParseAndVerifySign_WrongKey(t *testing.T) {
	signer := testKeyPair(t)
	other := testKeyPair(t)

	now := time.Now().Unix()
	token, err := GenerateSign(&Claims{Sub: "user-1", Iat: now, Exp: now + 3600}, signer)
	require.NoError(t, err)

	parsed, err := ParseAndVerifySign(token, &other.PublicKey)
	assert.Error(t, err, "a token signed with a different key must be rejected")
	assert.Nil(t, parsed)
}

func TestParseAndVerifySign_Expired(t *testing.T) {
	key := testKeyPair(t)

	now := time.Now().Unix()
	token, err := GenerateSign(&Claims{Sub: "user-1", Iat: now - 7200, Exp: now - 3600}, key)
	require.NoError(t, err)

	parsed, err := ParseAndVerifySign(token, &key.PublicKey)
	assert.Error(t, err)
	assert.Nil(t, parsed)
}

func TestParseAndVerifySign_Garbage(t *testing.T) {
	key := testKeyPair(t)

	parsed, err := ParseAndVerifySign("not.a.token", &key.PublicKey)
	assert.Error(t, err)
	assert.Nil(t, parsed)
}
