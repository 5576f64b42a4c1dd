package invoice

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

type Party struct {
	Name    string
	Email   string
	Mobile  string
	Address string
}

type Line struct {
	Description string
	Amount      int64
}

// Invoice amounts are minor currency units.
type Invoice struct {
	Number        string
	BookingRef    string
	IssuedAt      time.Time
	Guest         Party
	Property      Party
	CheckIn       time.Time
	CheckOut      time.Time
	Nights        int
	Guests        int
	Lines         []Line
	Subtotal      int64
	Discount      int64
	CouponCode    string
	Total         int64
	Currency      string
	PaymentID     string
	PaymentMethod string
	Status        string
}

// Number formats VF/<year>/<sequence>, with the sequence zero-padded to four digits.
func Number(year, seq int) string {
	return fmt.Sprintf("VF/%d/%04d", year, seq)
}

// BookingRef is VF- followed by the last eight characters of the payment id, upper-cased.
func BookingRef(paymentID string) string {
	ref := strings.TrimPrefix(paymentID, "pay_")
	if len(ref) > 8 {
		ref = ref[len(ref)-8:]
	}
	return "VF-" + strings.ToUpper(ref)
}

// FileName is safe for use as an attachment name.
func (inv *Invoice) FileName() string {
	return "invoice-" + strings.ReplaceAll(inv.Number, "/", "-") + ".txt"
}

var textTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": FormatMoney,
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
}).Parse(`INVOICE {{.Number}}
Booking reference: {{.BookingRef}}
Issued: {{date .IssuedAt}}

Billed to: {{.Guest.Name}}
{{- if .Guest.Email}}
Email: {{.Guest.Email}}{{end}}
{{- if .Guest.Mobile}}
Mobile: {{.Guest.Mobile}}{{end}}

Property: {{.Property.Name}}
{{- if .Property.Address}}
Address: {{.Property.Address}}{{end}}
Check-in: {{date .CheckIn}}
Check-out: {{date .CheckOut}}
Nights: {{.Nights}}  Guests: {{.Guests}}

{{range .Lines}}{{printf "%-40s" .Description}} {{money $.Currency .Amount}}
{{end}}
{{- if .Discount}}{{printf "%-40s" (printf "Discount (%s)" .CouponCode)}} -{{money .Currency .Discount}}
{{end}}{{printf "%-40s" "Total paid"}} {{money .Currency .Total}}

Payment: {{.PaymentID}} ({{.PaymentMethod}})
Status: {{.Status}}
`))

func Render(w io.Writer, inv *Invoice) error {
	return textTemplate.Execute(w, inv)
}

// FormatMoney renders minor units as "<currency> <major>.<minor>".
func FormatMoney(currency string, minor int64) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
