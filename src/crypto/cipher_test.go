package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp := "alpha-bravo-charlie-delta-echo-foxtrot-golf-hotel-india-juliet-kilo-lima-mike-november-oscar-papa-quebec-romeo-sierra-tango"
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext, err := Encrypt(kp, plaintext)
	require.NoError(t, err)

	got, err := Decrypt(kp, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptNonceIsRandomPerCall(t *testing.T) {
	kp := "same-key-phrase-used-twice-for-this-test-case-one-two-three-four"
	plaintext := []byte("identical plaintext")

	a, err := Encrypt(kp, plaintext)
	require.NoError(t, err)
	b, err := Encrypt(kp, plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	kp1 := "pool-one-key-phrase-aaaa-bbbb-cccc-dddd-eeee-ffff-gggg-hhhh-iiii-jjjj"
	kp2 := "pool-two-key-phrase-aaaa-bbbb-cccc-dddd-eeee-ffff-gggg-hhhh-iiii-jjjj"

	ciphertext, err := Encrypt(kp1, []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt(kp2, ciphertext)
	assert.Error(t, err)
}

func TestDecryptTruncatedInputFails(t *testing.T) {
	_, err := Decrypt("any-key-phrase", []byte("short"))
	assert.Error(t, err)
}

func TestHashIsStableAndHex(t *testing.T) {
	h1 := Hash("hello")
	h2 := Hash("hello")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
