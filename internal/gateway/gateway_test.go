// Package gateway - Test escape voice markup và mã hoá credential.
package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennersmai/saas-automation-sub001/config"
	"github.com/ennersmai/saas-automation-sub001/internal/global"
)

func TestEscapeVoiceMarkup(t *testing.T) {
	assert.Equal(t, "Tom &amp; Jerry", EscapeVoiceMarkup("Tom & Jerry"))
	assert.Equal(t, "&lt;Say&gt;hi&lt;/Say&gt;", EscapeVoiceMarkup("<Say>hi</Say>"))
	assert.Equal(t, "&quot;quoted&quot; &apos;text&apos;", EscapeVoiceMarkup(`"quoted" 'text'`))
	assert.Equal(t, "plain text stays the same", EscapeVoiceMarkup("plain text stays the same"))
	assert.Equal(t, "", EscapeVoiceMarkup(""))
}

func TestCredentialEncryptionRoundtrip(t *testing.T) {
	prev := global.ServerConfig
	global.ServerConfig = &config.Configuration{ServerSecret: "test-secret"}
	defer func() { global.ServerConfig = prev }()

	plaintext := []byte("twilio-auth-token-xyz")

	encrypted, err := EncryptCredential(plaintext)
	require.NoError(t, err)
	require.NotEmpty(t, encrypted)
	assert.NotContains(t, encrypted, string(plaintext))

	decrypted, err := DecryptCredential(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)

	// GCM dùng nonce ngẫu nhiên nên hai lần mã hoá cho ciphertext khác nhau
	encrypted2, err := EncryptCredential(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, encrypted, encrypted2)
}

func TestDecryptCredential_InvalidInput(t *testing.T) {
	prev := global.ServerConfig
	global.ServerConfig = &config.Configuration{ServerSecret: "test-secret"}
	defer func() { global.ServerConfig = prev }()

	_, err := DecryptCredential("not-base64!!!")
	assert.Error(t, err)

	_, err = DecryptCredential("")
	assert.Error(t, err)
}
