// internal/domain/weapon/cost.go
package weapon

import "math"

const (
	// CostPerPoint * target + CostBase がステータス 1 つあたりのコスト
	CostPerPoint uint64 = 10
	CostBase     uint64 = 100
)

// StatCost is 0 when the stat does not go up; otherwise it is priced on the
// target value, not on the size of the increase.
func StatCost(current, target uint64) uint64 {
	if target <= current {
		return 0
	}
	return saturatingAdd(saturatingMul(target, CostPerPoint), CostBase)
}

// UpgradeCost sums StatCost over hp, damage, mana, mp_regen and atk_speed.
// Level is free. The sum saturates at math.MaxUint64.
func UpgradeCost(current, target Stats) uint64 {
	cur := current.upgradable()
	tgt := target.upgradable()

	var total uint64
	for i := range tgt {
		total = saturatingAdd(total, StatCost(cur[i], tgt[i]))
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}
