package keyphrase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDictionary(t *testing.T, words []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(words, "\n")), 0o600))
	return path
}

func TestGenerateProducesParsableKeyPhrase(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	path := writeDictionary(t, words)

	kp, err := Generate(path, Length)
	require.NoError(t, err)

	parsed, err := Parse(string(kp))
	require.NoError(t, err)
	assert.Len(t, strings.Split(string(parsed), "-"), Length)
}

func TestGenerateMissingDictionaryFails(t *testing.T) {
	_, err := Generate("/nonexistent/path/to/dictionary.txt", Length)
	assert.Error(t, err)
}

func TestParseRejectsWrongWordCount(t *testing.T) {
	_, err := Parse("only-three-words")
	assert.Error(t, err)
}

func TestParseRejectsEmptyToken(t *testing.T) {
	words := make([]string, Length)
	for i := range words {
		words[i] = "w"
	}
	words[5] = ""
	_, err := Parse(strings.Join(words, "-"))
	assert.Error(t, err)
}

func TestHashAndVerify(t *testing.T) {
	words := make([]string, Length)
	for i := range words {
		words[i] = "w"
	}
	kp := KeyPhrase(strings.Join(words, "-"))

	hash, err := kp.Hash("pepper", 5)
	require.NoError(t, err)

	ok, err := Verify(hash, string(kp), "pepper", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(hash, string(kp), "different-pepper", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashRejectsLowRoundCount(t *testing.T) {
	kp := KeyPhrase(strings.Repeat("w-", Length-1) + "w")
	_, err := kp.Hash("pepper", 4)
	assert.Error(t, err)
}

func TestHashRejectsEmptySalt(t *testing.T) {
	kp := KeyPhrase(strings.Repeat("w-", Length-1) + "w")
	_, err := kp.Hash("", 5)
	assert.Error(t, err)
}
