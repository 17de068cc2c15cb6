// Package payment provides a simulated payment gateway.
package payment

import (
	"context"
	"fmt"
	"log"

	"focuslock/internal/domain"

	"github.com/google/uuid"
)

// DefaultDeclinedCards are card numbers the simulated gateway always declines.
var DefaultDeclinedCards = []string{"4000000000000002"}

// Simulated approves every charge except for a configured set of card numbers.
type Simulated struct {
	declined map[string]bool
}

var _ domain.PaymentGateway = (*Simulated)(nil)

// NewSimulated creates a gateway that declines the given card numbers.
func NewSimulated(declined []string) *Simulated {
	s := &Simulated{declined: make(map[string]bool, len(declined))}
	for _, n := range declined {
		s.declined[n] = true
	}
	return s
}

// Charge returns a receipt of the form PAYMENT_<uuid>.
func (s *Simulated) Charge(ctx context.Context, amount float64, card domain.Card) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", fmt.Errorf("invalid amount %.2f", amount)
	}
	if s.declined[card.Number] {
		return "", domain.ErrPaymentDeclined
	}
	receipt := "PAYMENT_" + uuid.NewString()
	log.Printf("payment: charged %s, receipt %s", domain.FormatUSD(amount), receipt)
	return receipt, nil
}
