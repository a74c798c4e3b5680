package ports

import "github.com/dweeb/marketplace/internal/core/domain"

// FeeService splits payments between the platform and developers.
type FeeService interface {
	Quote(amount int64) (*domain.FeeQuote, error)
	Bps() int
}
