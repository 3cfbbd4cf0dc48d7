package invoice

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Invoices are always displayed in Thai for the Bangkok timezone; the locale
// is a product constant, not a per-customer setting.
const displayZone = "Asia/Bangkok"

var bahtPrinter = message.NewPrinter(language.Thai)

// thaiMonths holds the abbreviated Thai month names used on the expiry line.
var thaiMonths = [...]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

var (
	zoneOnce   sync.Once
	displayLoc *time.Location
)

func displayLocation() *time.Location {
	zoneOnce.Do(func() {
		loc, err := time.LoadLocation(displayZone)
		if err != nil {
			loc = time.FixedZone("ICT", 7*60*60)
		}
		displayLoc = loc
	})
	return displayLoc
}

// FormatBaht renders a whole-baht amount with thousands separators and the
// currency glyph suffix, e.g. 1238 -> "1,238฿".
func FormatBaht(amount int64) string {
	return bahtPrinter.Sprintf("%d", amount) + "฿"
}

// FormatBahtWords renders the amount for plain-text contexts, e.g. "1,238 บาท".
func FormatBahtWords(amount int64) string {
	return bahtPrinter.Sprintf("%d", amount) + " บาท"
}

// FormatExpiry renders the stored expiry timestamp as a Thai Buddhist-era
// short date in the display timezone: "2 ม.ค. 2569 14:30".
func FormatExpiry(t time.Time) string {
	local := t.In(displayLocation())
	return fmt.Sprintf("%d %s %d %02d:%02d",
		local.Day(),
		thaiMonths[local.Month()-1],
		local.Year()+543,
		local.Hour(),
		local.Minute(),
	)
}
