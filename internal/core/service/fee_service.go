package service

import (
	"fmt"

	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/pkg/validation"
)

const bpsDenominator = 10000

type feeService struct {
	bps int64
}

// NewFeeService validates bps against the 0..10000 range.
func NewFeeService(bps int) (ports.FeeService, error) {
	if bps < 0 || bps > bpsDenominator {
		return nil, fmt.Errorf("platform fee must be between 0 and %d bps, got %d", bpsDenominator, bps)
	}
	return &feeService{bps: int64(bps)}, nil
}

func (s *feeService) Bps() int { return int(s.bps) }

// Quote rounds the platform fee half up. The amount is split into whole
// multiples of the denominator and a remainder so the product never overflows.
func (s *feeService) Quote(amount int64) (*domain.FeeQuote, error) {
	if amount <= 0 {
		return nil, validation.NewError("amount", "amount must be greater than 0")
	}
	q, r := amount/bpsDenominator, amount%bpsDenominator
	fee := q*s.bps + (r*s.bps+bpsDenominator/2)/bpsDenominator

	return &domain.FeeQuote{
		Amount:          domain.BigInt(amount),
		FeeBps:          int(s.bps),
		PlatformFee:     domain.BigInt(fee),
		DeveloperPayout: domain.BigInt(amount - fee),
	}, nil
}
