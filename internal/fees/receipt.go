package fees

import (
	"time"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// ReceiptContext is the form context a receipt needs beyond the record.
type ReceiptContext struct {
	StudentName string
	Class       string
	School      string
	// Label is the term name for tuition or the fee name for extra fees.
	Label string
	Date  time.Time
}

// receiptDateLayout matches the fr-FR short date.
const receiptDateLayout = "02/01/2006"

// BuildReceipt maps an accepted payment to a printable receipt. It has no
// side effects; rate must be the one used to assemble the record.
func BuildReceipt(rec *domain.PaymentRecord, created *domain.CreatedPayment, rc ReceiptContext, rate *domain.ExchangeRate) domain.Receipt {
	r := domain.Receipt{
		Date:            rc.Date.Format(receiptDateLayout),
		Student:         rc.StudentName,
		Class:           rc.Class,
		School:          rc.School,
		Label:           rc.Label,
		PaymentType:     rec.PaymentType,
		PaymentMethod:   rec.PaymentMode,
		Amount:          rec.OriginalAmount,
		Currency:        rec.Currency,
		AmountUSD:       rec.AmountPaidUSD,
		AmountSecondary: rec.AmountSecondary,
		Reference:       rec.Reference,
		Notes:           rec.Notes,
	}
	if rate != nil {
		r.Rate = rate.USDToSecondary
	}
	if created != nil {
		r.PaymentID = created.ID
		r.ReceiptNumber = created.ReceiptNumber
		if r.ReceiptNumber == "" {
			r.ReceiptNumber = created.ID
		}
	}
	r.DisplayUSD = FormatAmount(r.AmountUSD, domain.CurrencyUSD)
	r.DisplaySecondary = FormatAmount(r.AmountSecondary, domain.SecondaryCurrency)
	return r
}
