package fees

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

var printer = message.NewPrinter(language.French)

// FormatAmount renders an amount for display, e.g. "1 250,00 USD".
// Grouping and decimal separators follow the French locale.
func FormatAmount(amount float64, currency domain.Currency) string {
	return printer.Sprintf("%.2f %s", amount, string(currency))
}
