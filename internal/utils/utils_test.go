package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, byte(150), Average(100, 150, 200))
	assert.Equal(t, byte(255), Average(255, 255, 255))
	assert.Equal(t, byte(127), Average(127, 127, 129))
	assert.Equal(t, byte(0), Average())
}
