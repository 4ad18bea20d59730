package vaultcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shieldvault/vaultd/internal/vaultcrypto"
)

func randKey(t *testing.T) []byte {
	t.Helper()
	key, err := vaultcrypto.GenerateUserKey()
	require.NoError(t, err)
	return key
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	masterKey := randKey(t)

	blob, err := vaultcrypto.Wrap(userKey, masterKey)
	require.NoError(t, err)
	require.Len(t, blob, 60)

	unwrapped, err := vaultcrypto.Unwrap(blob, masterKey)
	require.NoError(t, err)
	require.Equal(t, userKey, unwrapped)
}

func TestWrapProducesFreshNonceEachCall(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	masterKey := randKey(t)

	a, err := vaultcrypto.Wrap(userKey, masterKey)
	require.NoError(t, err)
	b, err := vaultcrypto.Wrap(userKey, masterKey)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestUnwrapFailsUnderWrongMasterKey(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	masterKey := randKey(t)
	otherKey := randKey(t)

	blob, err := vaultcrypto.Wrap(userKey, masterKey)
	require.NoError(t, err)

	_, err = vaultcrypto.Unwrap(blob, otherKey)
	require.Error(t, err)
}

func TestUnwrapRejectsTamperedBlob(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	masterKey := randKey(t)

	blob, err := vaultcrypto.Wrap(userKey, masterKey)
	require.NoError(t, err)

	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = vaultcrypto.Unwrap(tampered, masterKey)
	require.Error(t, err)
}

func TestEncryptDecryptFieldRoundTrip(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	plaintext := []byte("Hunter2A!")

	ciphertext, nonce, tag, err := vaultcrypto.EncryptField(plaintext, userKey)
	require.NoError(t, err)

	decrypted, err := vaultcrypto.DecryptField(ciphertext, nonce, tag, userKey)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestDecryptFieldFailsOnTamperedComponents(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)
	plaintext := []byte("Hunter2A!")

	ciphertext, nonce, tag, err := vaultcrypto.EncryptField(plaintext, userKey)
	require.NoError(t, err)

	tamperedCiphertext := append([]byte(nil), ciphertext...)
	tamperedCiphertext[0] ^= 0x01
	_, err = vaultcrypto.DecryptField(tamperedCiphertext, nonce, tag, userKey)
	require.Error(t, err)

	tamperedTag := append([]byte(nil), tag...)
	tamperedTag[0] ^= 0x01
	_, err = vaultcrypto.DecryptField(ciphertext, nonce, tamperedTag, userKey)
	require.Error(t, err)

	tamperedNonce := append([]byte(nil), nonce...)
	tamperedNonce[0] ^= 0x01
	_, err = vaultcrypto.DecryptField(ciphertext, tamperedNonce, tag, userKey)
	require.Error(t, err)
}

func TestEncryptFieldEmptyPlaintext(t *testing.T) {
	t.Parallel()
	userKey := randKey(t)

	ciphertext, nonce, tag, err := vaultcrypto.EncryptField([]byte{}, userKey)
	require.NoError(t, err)

	decrypted, err := vaultcrypto.DecryptField(ciphertext, nonce, tag, userKey)
	require.NoError(t, err)
	require.Empty(t, decrypted)
}

func TestFingerprintIsDeterministicAndOneWay(t *testing.T) {
	t.Parallel()
	token := "opaque-raw-token-value"

	a := vaultcrypto.Fingerprint(token)
	b := vaultcrypto.Fingerprint(token)
	require.Equal(t, a, b)
	require.NotEqual(t, token, a)
}

func TestRandomOpaqueTokenIsUnique(t *testing.T) {
	t.Parallel()
	a, err := vaultcrypto.RandomOpaqueToken()
	require.NoError(t, err)
	b, err := vaultcrypto.RandomOpaqueToken()
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.GreaterOrEqual(t, len(a), 32)
}
