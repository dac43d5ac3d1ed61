package schoolapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// schoolYearDTO accepts the Mongo-style "_id" the backend uses.
type schoolYearDTO struct {
	ID        string        `json:"id"`
	MongoID   string        `json:"_id"`
	Name      string        `json:"name"`
	YearLabel string        `json:"yearLabel"`
	StartDate time.Time     `json:"startDate"`
	EndDate   time.Time     `json:"endDate"`
	IsActive  bool          `json:"isActive"`
	Terms     []domain.Term `json:"terms"`
}

func (d schoolYearDTO) toDomain() domain.SchoolYear {
	y := domain.SchoolYear{
		ID:        d.ID,
		Name:      d.Name,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		IsActive:  d.IsActive,
		Terms:     d.Terms,
	}
	if y.ID == "" {
		y.ID = d.MongoID
	}
	if y.Name == "" {
		y.Name = d.YearLabel
	}
	return y
}

// ListSchoolYears lists every configured school year.
func (c *Client) ListSchoolYears(ctx context.Context) ([]domain.SchoolYear, error) {
	var rows []schoolYearDTO
	if err := c.get(ctx, "school-years", "/schools", nil, &rows); err != nil {
		return nil, err
	}
	years := make([]domain.SchoolYear, 0, len(rows))
	for _, r := range rows {
		years = append(years, r.toDomain())
	}
	return years, nil
}

// GetActiveSchoolYear returns the backend's active school year.
func (c *Client) GetActiveSchoolYear(ctx context.Context) (*domain.SchoolYear, error) {
	var row schoolYearDTO
	if err := c.get(ctx, "school-years", "/schools/active", nil, &row); err != nil {
		return nil, err
	}
	y := row.toDomain()
	if y.ID == "" {
		return nil, &domain.ErrNotFound{Resource: "school year", ID: "active"}
	}
	return &y, nil
}

// CreateSchoolYear posts the wizard payload.
func (c *Client) CreateSchoolYear(ctx context.Context, payload *domain.SchoolYearPayload) (*domain.SchoolYear, error) {
	var row schoolYearDTO
	if err := c.send(ctx, "school-years", http.MethodPost, "/schools", payload, &row, nil); err != nil {
		return nil, err
	}
	y := row.toDomain()
	if y.Name == "" {
		y.Name = payload.SchoolYear.YearLabel
		y.StartDate = payload.SchoolYear.StartDate
		y.EndDate = payload.SchoolYear.EndDate
		y.Terms = payload.SchoolYear.Terms
	}
	return &y, nil
}

// GetTuitionTotal returns the yearly tuition of a class.
func (c *Client) GetTuitionTotal(ctx context.Context, className, schoolYearID string) (*domain.TuitionTotal, error) {
	q := url.Values{}
	q.Set("className", className)
	if schoolYearID != "" {
		q.Set("schoolYearId", schoolYearID)
	}
	var out struct {
		Total float64 `json:"total"`
	}
	if err := c.get(ctx, "tuitions", "/tuitions/total/by-class-name", q, &out); err != nil {
		return nil, err
	}
	return &domain.TuitionTotal{ClassName: className, SchoolYearID: schoolYearID, Total: out.Total}, nil
}
