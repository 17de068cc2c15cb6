package domain

import (
	"context"
	"errors"
	"unicode/utf8"
)

// ErrPaymentDeclined is returned by a PaymentGateway that refused the charge.
var ErrPaymentDeclined = errors.New("payment declined")

// Card holds the card details entered for an early unlock.
type Card struct {
	Number string `json:"cardNumber"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// CardError reports which card field failed validation.
type CardError struct {
	Field   string
	Message string
}

func (e *CardError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateCard applies the local length checks that gate every payment.
// Only lengths are checked; there is no checksum.
func ValidateCard(c Card) error {
	if utf8.RuneCountInString(c.Number) < 16 {
		return &CardError{Field: "cardNumber", Message: "Please enter a valid card number"}
	}
	if utf8.RuneCountInString(c.Expiry) < 5 {
		return &CardError{Field: "expiry", Message: "Please enter a valid expiry date (MM/YY)"}
	}
	if utf8.RuneCountInString(c.CVV) < 3 {
		return &CardError{Field: "cvv", Message: "Please enter a valid CVV"}
	}
	return nil
}

// PaymentGateway charges an early-unlock fee and returns a receipt identifier.
type PaymentGateway interface {
	Charge(ctx context.Context, amount float64, card Card) (string, error)
}
