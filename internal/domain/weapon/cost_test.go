package weapon

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatCost(t *testing.T) {
	assert.Equal(t, uint64(0), StatCost(5, 5))
	assert.Equal(t, uint64(0), StatCost(5, 3))
	assert.Equal(t, uint64(110), StatCost(0, 1))
	// priced on target, not on the delta
	assert.Equal(t, uint64(1100), StatCost(99, 100))
	assert.Equal(t, uint64(math.MaxUint64), StatCost(0, math.MaxUint64))
}

func TestUpgradeCost(t *testing.T) {
	target, err := StatsFromSlice([]uint64{1, 100, 50, 0, 0, 0})
	require.NoError(t, err)

	// hp: 100*10+100 = 1100, damage: 50*10+100 = 600
	assert.Equal(t, uint64(1700), UpgradeCost(Stats{}, target))

	// level is free
	assert.Equal(t, uint64(0), UpgradeCost(Stats{}, Stats{Level: 99}))

	// lowering is free and raising another stat is still charged
	cur := Stats{HP: 100, Damage: 50}
	assert.Equal(t, uint64(0), UpgradeCost(cur, Stats{HP: 10}))
	assert.Equal(t, uint64(150), UpgradeCost(cur, Stats{AtkSpeed: 5}))
}

func TestUpgradeCostSaturates(t *testing.T) {
	top := uint64(math.MaxUint64)
	target := Stats{HP: top, Damage: top, Mana: top, MPRegen: top, AtkSpeed: top}
	assert.Equal(t, top, UpgradeCost(Stats{}, target))
}

func TestStatsFromSlice(t *testing.T) {
	s, err := StatsFromSlice([]uint64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, Stats{Level: 1, HP: 2, Damage: 3, Mana: 4, MPRegen: 5, AtkSpeed: 6}, s)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6}, s.Slice())

	_, err = StatsFromSlice([]uint64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidStats)
}

func TestReplaceOverwritesAllFields(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := New(3, at)
	assert.Equal(t, Stats{}, w.Stats)

	later := at.Add(time.Hour)
	w.Replace(Stats{Level: 2, HP: 1}, later)
	assert.Equal(t, Stats{Level: 2, HP: 1}, w.Stats)
	assert.Equal(t, at, w.CreatedAt)
	assert.Equal(t, later, w.UpdatedAt)
}
