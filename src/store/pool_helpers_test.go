package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveString(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, removeString([]string{"a", "b", "c"}, "b"))
	assert.Equal(t, []string{"a", "b"}, removeString([]string{"a", "b"}, "z"))
	assert.Equal(t, []string{}, removeString([]string{"a"}, "a"))
}

func TestCloneNamesIsIndependentCopy(t *testing.T) {
	orig := map[string]string{"ilingu": "ilingu1"}
	clone := cloneNames(orig)
	clone["bliwox"] = "bliwox1"

	assert.Len(t, orig, 1)
	assert.Len(t, clone, 2)
}
