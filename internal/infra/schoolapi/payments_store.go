package schoolapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// CreatePayment posts a payment record. It is sent exactly once: no retry.
// The idempotency key lets the backend drop a duplicate if the client
// resubmits after a lost response.
func (c *Client) CreatePayment(ctx context.Context, rec *domain.PaymentRecord, idempotencyKey string) (*domain.CreatedPayment, error) {
	var created domain.CreatedPayment
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := c.send(ctx, "payments", http.MethodPost, "/payments", rec, &created, headers); err != nil {
		return nil, err
	}
	return &created, nil
}

// VerifyPayment marks a payment verified.
func (c *Client) VerifyPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	path := "/payments/" + url.PathEscape(paymentID) + "/verify"
	if err := c.send(ctx, "payments", http.MethodPut, path, nil, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// CancelPayment cancels a payment with a reason.
func (c *Client) CancelPayment(ctx context.Context, paymentID, notes string) (*domain.Payment, error) {
	var p domain.Payment
	path := "/payments/" + url.PathEscape(paymentID) + "/cancel"
	in := map[string]string{"notes": notes}
	if err := c.send(ctx, "payments", http.MethodPut, path, in, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListStudentPayments lists the payments of one student.
func (c *Client) ListStudentPayments(ctx context.Context, studentID, schoolYearID string) ([]domain.Payment, error) {
	q := url.Values{}
	if schoolYearID != "" {
		q.Set("schoolYearId", schoolYearID)
	}
	var payments []domain.Payment
	if err := c.get(ctx, "payments", "/payments/student/"+url.PathEscape(studentID), q, &payments); err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}
