package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an amount for display, e.g. ¥1,000. The yen has no minor
// unit, so amounts are rounded to whole yen.
func FormatYen(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "¥" + yenPrinter.Sprintf("%d", d.IntPart())
}
