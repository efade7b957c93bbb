package crypto

import (
	"crypto/rand"
	"io"

	ilixerrors "github.com/ilix/server/src/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the length, in bytes, of the random nonce prepended to
// every encrypted blob.
const NonceSize = chacha20poly1305.NonceSizeX

// DeriveKey derives the 32-byte AEAD key from a pool's plaintext key
// phrase: the first 32 characters of the hex-encoded SHA3-256 digest of
// the key phrase, used directly as key bytes (not decoded from hex).
func DeriveKey(keyPhrase string) []byte {
	digest := Hash(keyPhrase)
	return []byte(digest[:chacha20poly1305.KeySize])
}

// Encrypt returns nonce||ciphertext: a fresh random 24-byte nonce followed
// by the XChaCha20-Poly1305 AEAD output over plaintext with no associated
// data.
func Encrypt(keyPhrase string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(DeriveKey(keyPhrase))
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.EncryptionError, err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.EncryptionError, err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Decrypt splits the first NonceSize bytes of blob as the nonce and
// AEAD-decrypts the remainder. It fails with DecryptionError on a short
// input, a wrong key, or a failed authentication tag.
func Decrypt(keyPhrase string, blob []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, ilixerrors.New(ilixerrors.DecryptionError)
	}

	aead, err := chacha20poly1305.NewX(DeriveKey(keyPhrase))
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.DecryptionError, err)
	}

	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.DecryptionError, err)
	}
	return plaintext, nil
}
