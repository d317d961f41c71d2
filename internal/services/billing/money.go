package billing

import (
	"fmt"

	"garage-backend/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCents converts a currency amount to integer cents, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromCents is the inverse of ToCents for display.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// checkTotals guards the ledger identities before a header write.
func checkTotals(inv *models.Invoice) error {
	if inv.TotalCents != inv.SubtotalCents+inv.TaxCents {
		return fmt.Errorf("billing: invoice %s total %d != subtotal %d + tax %d",
			inv.ID, inv.TotalCents, inv.SubtotalCents, inv.TaxCents)
	}
	if inv.AmountDueCents != inv.TotalCents-inv.AmountPaidCents {
		return fmt.Errorf("billing: invoice %s due %d != total %d - paid %d",
			inv.ID, inv.AmountDueCents, inv.TotalCents, inv.AmountPaidCents)
	}
	if inv.AmountPaidCents < 0 || inv.AmountPaidCents > inv.TotalCents {
		return fmt.Errorf("billing: invoice %s paid %d outside [0, %d]", inv.ID, inv.AmountPaidCents, inv.TotalCents)
	}
	return nil
}
