// internal/domain/mint/policy.go
package mint

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultExemptCategories are excluded from the supply cap and from the flat fee.
// 0 = base, 4 = unlimited special category.
var DefaultExemptCategories = []uint64{0, 4}

// Policy はミント時の上限・手数料ルールです。
type Policy struct {
	Cap          uint64
	Exempt       map[uint64]struct{}
	MintFee      uint64
	FeeRecipient string
}

// DefaultPolicy returns the capped-supply policy with no fee configured.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultSupplyCap, DefaultExemptCategories, 0, "")
}

// NewPolicy builds a Policy. supplyCap=0 falls back to DefaultSupplyCap.
func NewPolicy(supplyCap uint64, exempt []uint64, fee uint64, feeRecipient string) Policy {
	if supplyCap == 0 {
		supplyCap = DefaultSupplyCap
	}
	ex := make(map[uint64]struct{}, len(exempt))
	for _, c := range exempt {
		ex[c] = struct{}{}
	}
	return Policy{
		Cap:          supplyCap,
		Exempt:       ex,
		MintFee:      fee,
		FeeRecipient: strings.TrimSpace(feeRecipient),
	}
}

// IsExempt reports whether categoryID skips the cap and the fee.
func (p Policy) IsExempt(categoryID uint64) bool {
	_, ok := p.Exempt[categoryID]
	return ok
}

// FeeFor は categoryID のミント手数料を返します（exempt は 0）。
func (p Policy) FeeFor(categoryID uint64) uint64 {
	if p.IsExempt(categoryID) {
		return 0
	}
	return p.MintFee
}

// ExemptList returns the exempt ids in ascending order.
func (p Policy) ExemptList() []uint64 {
	out := make([]uint64, 0, len(p.Exempt))
	for c := range p.Exempt {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that a fee always has somewhere to go.
func (p Policy) Validate() error {
	if p.MintFee > 0 && p.FeeRecipient == "" {
		return fmt.Errorf("mint: policy has fee=%d but no fee recipient", p.MintFee)
	}
	return nil
}

// Admit は duplicate guard と supply cap をチェックします。
// category の存在確認は catalog 側で行う前提です。
func (p Policy) Admit(g Guard, s Supply, categoryID uint64) error {
	if categoryID >= GuardSlots {
		return fmt.Errorf("%w: category=%d slots=%d", ErrNoGuardSlot, categoryID, GuardSlots)
	}
	if g.Has(categoryID) {
		return fmt.Errorf("%w: owner=%s category=%d", ErrDuplicateMint, g.Owner, categoryID)
	}
	if !p.IsExempt(categoryID) && s.Count(categoryID) >= p.Cap {
		return fmt.Errorf("%w: category=%d minted=%d cap=%d", ErrSupplyExhausted, categoryID, s.Count(categoryID), p.Cap)
	}
	return nil
}

// Apply stages steps 4, 6 and 7: allocate the item id, set the guard, bump the counter.
// Admit must have succeeded for the same inputs.
func Apply(g *Guard, s *Supply, categoryID uint64) (uint64, error) {
	if err := g.Set(categoryID); err != nil {
		return 0, err
	}
	itemID := s.Allocate()
	s.Increment(categoryID)
	return itemID, nil
}
