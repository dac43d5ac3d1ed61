package schoolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// studentPageDTO accepts both the paged shape and a bare list.
type studentPageDTO struct {
	page domain.StudentPage
}

func (d *studentPageDTO) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []domain.StudentPaymentProfile
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		d.page = domain.StudentPage{Students: list, TotalStudents: len(list), TotalPages: 1, Page: 1}
		return nil
	}
	return json.Unmarshal(b, &d.page)
}

// QueryStudentPayments fetches one page filtered by the backend.
func (c *Client) QueryStudentPayments(ctx context.Context, school string, query url.Values) (*domain.StudentPage, error) {
	var dto studentPageDTO
	if err := c.get(ctx, "student-payments", "/student-payments/"+url.PathEscape(school), query, &dto); err != nil {
		return nil, err
	}
	page := dto.page
	return &page, nil
}

// ListAllStudentPayments fetches every profile of a school for a year.
func (c *Client) ListAllStudentPayments(ctx context.Context, school, schoolYearID string) ([]domain.StudentPaymentProfile, error) {
	q := url.Values{}
	if schoolYearID != "" {
		q.Set("schoolYearId", schoolYearID)
	}
	var dto studentPageDTO
	if err := c.get(ctx, "student-payments", "/student-payments/"+url.PathEscape(school), q, &dto); err != nil {
		return nil, err
	}
	if dto.page.Students == nil {
		return []domain.StudentPaymentProfile{}, nil
	}
	return dto.page.Students, nil
}

// GetStudentPayment returns the profile of one student. The backend has no
// single-student route, so the school list is searched.
func (c *Client) GetStudentPayment(ctx context.Context, school, studentID, schoolYearID string) (*domain.StudentPaymentProfile, error) {
	all, err := c.ListAllStudentPayments(ctx, school, schoolYearID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == studentID {
			return &all[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "student", ID: studentID}
}
