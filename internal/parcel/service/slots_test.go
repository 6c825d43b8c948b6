package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstFreeSlot(t *testing.T) {
	assert.Equal(t, "00", firstFreeSlot(nil))
	assert.Equal(t, "01", firstFreeSlot([]string{"00"}))
	assert.Equal(t, "00", firstFreeSlot([]string{"01", "02"}))
	assert.Equal(t, "02", firstFreeSlot([]string{"00", "01", "03"}))
}

func TestFirstFreeSlot_Full(t *testing.T) {
	occupied := make([]string, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		occupied = append(occupied, fmt.Sprintf("%02d", i))
	}
	assert.Equal(t, "", firstFreeSlot(occupied))
}

func TestRandomTrackingCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := randomTrackingCode()
		assert.NoError(t, err)
		assert.Len(t, code, trackingCodeLen)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected character %q", r)
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a 32^4 space should essentially never all collide.
	assert.Greater(t, len(seen), 150)
}
