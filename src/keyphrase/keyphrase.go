// Package keyphrase implements the key-phrase identity scheme: generation
// from a dictionary word list, parsing/validation, and salted multi-round
// hashing used as the pool lookup key. The blob encryption key is derived
// separately by src/crypto from the plaintext key phrase, not from this
// hash.
package keyphrase

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ilix/server/src/crypto"
	ilixerrors "github.com/ilix/server/src/errors"
)

// Length is the number of dictionary words a production key phrase is
// composed of.
const Length = 20

const separator = "-"

var dictionaryCache sync.Map // path (string) -> *dictionaryEntry

type dictionaryEntry struct {
	words []string
	err   error
}

// KeyPhrase is a validated, in-memory plaintext key phrase. It is never
// persisted; only Hash's output is.
type KeyPhrase string

// Generate draws n words uniformly at random (crypto/rand) from the
// configured dictionary and joins them with '-'. In production n is
// always Length.
func Generate(path string, n int) (KeyPhrase, error) {
	words, err := loadDictionary(path)
	if err != nil {
		return "", err
	}

	tokens := make([]string, n)
	for i := range tokens {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
		if err != nil {
			return "", ilixerrors.Wrap(ilixerrors.DictionaryNotFound, err)
		}
		tokens[i] = words[idx.Int64()]
	}

	return KeyPhrase(strings.Join(tokens, separator)), nil
}

// Parse validates that s splits on '-' into exactly Length non-empty
// tokens and returns it as a KeyPhrase.
func Parse(s string) (KeyPhrase, error) {
	tokens := strings.Split(s, separator)
	if len(tokens) != Length {
		return "", ilixerrors.New(ilixerrors.InvalidKeyPhrase)
	}
	for _, t := range tokens {
		if t == "" {
			return "", ilixerrors.New(ilixerrors.InvalidKeyPhrase)
		}
	}
	return KeyPhrase(s), nil
}

// Hash computes the salted, multi-round SHA3-256 hash of the key phrase:
// r0 = salt || keyPhrase, r(i+1) = hex(SHA3-256(r_i)), repeated rounds
// times. rounds must be >= 5 (enforced by config.Load, re-checked here
// defensively since Hash is also reachable from tests that build a
// KeyPhrase directly).
func (k KeyPhrase) Hash(salt string, rounds int) (string, error) {
	if rounds < 5 {
		return "", ilixerrors.New(ilixerrors.HashError)
	}
	if salt == "" {
		return "", ilixerrors.New(ilixerrors.EnvVarNotFound)
	}

	r := salt + string(k)
	for i := 0; i < rounds; i++ {
		r = crypto.Hash(r)
	}
	return r, nil
}

// Verify reports whether candidate hashes (with the given salt/rounds) to
// storedHash, comparing in constant time.
func Verify(storedHash, candidate string, salt string, rounds int) (bool, error) {
	kp, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	computed, err := kp.Hash(salt, rounds)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1, nil
}

// loadDictionary reads path once per distinct path and caches the result
// for the lifetime of the process, without forcing every caller onto a
// single hardcoded path (useful for tests and for any future per-pool
// dictionary).
func loadDictionary(path string) ([]string, error) {
	if cached, ok := dictionaryCache.Load(path); ok {
		entry := cached.(*dictionaryEntry)
		return entry.words, entry.err
	}

	entry := &dictionaryEntry{}
	f, err := os.Open(path)
	if err != nil {
		entry.err = ilixerrors.Wrap(ilixerrors.DictionaryNotFound, err)
	} else {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		var words []string
		for scanner.Scan() {
			w := strings.TrimSpace(scanner.Text())
			if w != "" {
				words = append(words, w)
			}
		}
		if err := scanner.Err(); err != nil {
			entry.err = ilixerrors.Wrap(ilixerrors.DictionaryNotFound, err)
		} else if len(words) == 0 {
			entry.err = ilixerrors.New(ilixerrors.DictionaryNotFound)
		} else {
			entry.words = words
		}
	}

	actual, _ := dictionaryCache.LoadOrStore(path, entry)
	stored := actual.(*dictionaryEntry)
	return stored.words, stored.err
}
