// internal/domain/weapon/entity.go
package weapon

import (
	"errors"
	"fmt"
	"time"
)

// StatCount は level を含むステータスベクトルの長さです。
const StatCount = 6

// Stats is the full stat vector in wire order:
// [level, hp, damage, mana, mp_regen, atk_speed].
type Stats struct {
	Level    uint64 `json:"level"`
	HP       uint64 `json:"hp"`
	Damage   uint64 `json:"damage"`
	Mana     uint64 `json:"mana"`
	MPRegen  uint64 `json:"mpRegen"`
	AtkSpeed uint64 `json:"atkSpeed"`
}

// Weapon はアイテム 1 件の可変ステータスです。ミント時に全項目 0 で作成されます。
type Weapon struct {
	ItemID    uint64    `json:"itemId"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrInvalidStats = errors.New("weapon: stats vector must have 6 values")
)

// New returns the zero-initialized record created at mint time.
func New(itemID uint64, at time.Time) Weapon {
	at = at.UTC()
	return Weapon{
		ItemID:    itemID,
		Stats:     Stats{},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// StatsFromSlice decodes [level, hp, damage, mana, mp_regen, atk_speed].
func StatsFromSlice(v []uint64) (Stats, error) {
	if len(v) != StatCount {
		return Stats{}, fmt.Errorf("%w: got %d", ErrInvalidStats, len(v))
	}
	return Stats{
		Level:    v[0],
		HP:       v[1],
		Damage:   v[2],
		Mana:     v[3],
		MPRegen:  v[4],
		AtkSpeed: v[5],
	}, nil
}

// Slice は wire order のベクトルを返します。
func (s Stats) Slice() []uint64 {
	return []uint64{s.Level, s.HP, s.Damage, s.Mana, s.MPRegen, s.AtkSpeed}
}

// upgradable returns the five stats that carry a cost, in wire order.
func (s Stats) upgradable() [5]uint64 {
	return [5]uint64{s.HP, s.Damage, s.Mana, s.MPRegen, s.AtkSpeed}
}

// Replace overwrites all six fields with target. No per-field reconciliation:
// lowering a stat is allowed and simply costs nothing.
func (w *Weapon) Replace(target Stats, at time.Time) {
	w.Stats = target
	w.UpdatedAt = at.UTC()
}
