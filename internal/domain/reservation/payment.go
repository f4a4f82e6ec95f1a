package reservation

import "strings"

// PaymentMethod is how the guest pays.
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
)

// IsValid returns true if the method is recognized.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCard || m == PaymentMethodMobileMoney
}

// PaymentSelection is the guest's chosen payment method. AccountNumber only
// applies to mobile money; card details are collected by the gateway.
type PaymentSelection struct {
	Method        PaymentMethod `json:"method"`
	AccountNumber string        `json:"account_number,omitempty"`
}

// CardPayment selects card payment.
func CardPayment() PaymentSelection {
	return PaymentSelection{Method: PaymentMethodCard}
}

// MobileMoneyPayment selects mobile money with the paying account.
func MobileMoneyPayment(accountNumber string) PaymentSelection {
	return PaymentSelection{Method: PaymentMethodMobileMoney, AccountNumber: accountNumber}
}

// Summary returns the storable form of the selection. The account number
// is reduced to its last four characters.
func (p PaymentSelection) Summary() PaymentSummary {
	summary := PaymentSummary{Method: p.Method}
	if p.Method == PaymentMethodMobileMoney {
		summary.AccountHint = maskAccount(p.AccountNumber)
	}
	return summary
}

// PaymentSummary is what a confirmed record keeps about payment.
type PaymentSummary struct {
	Method      PaymentMethod `json:"method"`
	AccountHint string        `json:"account_hint,omitempty"`
}

func maskAccount(account string) string {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(account))
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
