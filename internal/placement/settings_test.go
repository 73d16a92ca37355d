package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	assert.Equal(t, GameSettings{CubesCount: 15, SpheresCount: 15}, DefaultSettings(MaxItemsCount))
	assert.Equal(t, GameSettings{CubesCount: 15, SpheresCount: 15}, DefaultSettings(0))
	assert.Equal(t, GameSettings{CubesCount: 5, SpheresCount: 5}, DefaultSettings(10))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, GameSettings{CubesCount: 30, SpheresCount: 0}, GameSettings{CubesCount: 99, SpheresCount: -4}.Clamp(30))
	assert.Equal(t, GameSettings{CubesCount: 2, SpheresCount: 3}, GameSettings{CubesCount: 2, SpheresCount: 3}.Clamp(30))
	assert.Equal(t, GameSettings{CubesCount: 30, SpheresCount: 30}, GameSettings{CubesCount: 31, SpheresCount: 31}.Clamp(0))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 5, GameSettings{CubesCount: 2, SpheresCount: 3}.Total())
}
