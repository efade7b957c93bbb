package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolCleanClearsHashedKeyPhrase(t *testing.T) {
	p := Pool{PoolName: "ilovecat", HashedKeyPhrase: "deadbeef"}
	cleaned := p.Clean()
	assert.Empty(t, cleaned.HashedKeyPhrase)
	assert.Equal(t, "ilovecat", cleaned.PoolName)
}

func TestPoolHasDevice(t *testing.T) {
	p := Pool{DevicesIDToName: map[string]string{"ilingu": "ilingu1"}}
	assert.True(t, p.HasDevice("ilingu"))
	assert.False(t, p.HasDevice("bliwox"))
}

func TestValidNewPool(t *testing.T) {
	assert.True(t, ValidNewPool(NewPoolRequest{Name: "ilovecat", DeviceID: "ilingu", DeviceName: "ilingu1"}))
	assert.False(t, ValidNewPool(NewPoolRequest{Name: "", DeviceID: "ilingu", DeviceName: "ilingu1"}))
	assert.False(t, ValidNewPool(NewPoolRequest{Name: "x", DeviceID: "", DeviceName: "y"}))

	tooLong := make([]byte, 51)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	assert.False(t, ValidNewPool(NewPoolRequest{Name: string(tooLong), DeviceID: "d", DeviceName: "n"}))
}
