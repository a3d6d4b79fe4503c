package invoices

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders an amount in its currency for display, falling back to
// USD for unknown ISO codes. Amounts are stored as plain numerics; only the
// display string is locale-aware.
func FormatAmount(code string, amount float64, tag language.Tag) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
