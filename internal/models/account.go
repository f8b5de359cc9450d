package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is a bank account row. The ID is assigned by the store on creation.
// Balances are decimals to avoid float rounding on money.
type Account struct {
	ID        int64
	OwnerName string
	Balance   decimal.Decimal
}

// Details renders the account the way the console and dashboard display it.
func (a Account) Details() string {
	return fmt.Sprintf("Account [Account Id = %d, Owner Name = %s, Balance = %s]",
		a.ID, a.OwnerName, a.Balance.StringFixed(2))
}
