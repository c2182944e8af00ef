package models

import "github.com/Rhymond/go-money"

// Amount is a monetary value in minor currency units (cents for USD/CAD).
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

func (a Amount) ToMoney() *money.Money {
	return money.New(a.Value, a.Currency)
}

// Display renders the amount for logs and CLI output, e.g. "$12.00".
func (a Amount) Display() string {
	return a.ToMoney().Display()
}
