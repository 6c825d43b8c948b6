package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Minute, NextBackoff(0))
	assert.Equal(t, 5*time.Minute, NextBackoff(1))
	assert.Equal(t, 30*time.Minute, NextBackoff(2))
	assert.Equal(t, 2*time.Hour, NextBackoff(3))
	assert.Equal(t, 2*time.Hour, NextBackoff(10))
}
