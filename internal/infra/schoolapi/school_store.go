package schoolapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// GetStructure returns the classes and options of a school.
func (c *Client) GetStructure(ctx context.Context, school string) (*domain.SchoolStructure, error) {
	var s domain.SchoolStructure
	if err := c.get(ctx, "school-structure", "/school/structure/"+url.PathEscape(school), nil, &s); err != nil {
		return nil, err
	}
	if s.School == "" {
		s.School = school
	}
	return &s, nil
}

// ListClasses lists the classes of a school.
func (c *Client) ListClasses(ctx context.Context, school string) ([]domain.Class, error) {
	q := url.Values{}
	if school != "" {
		q.Set("school", school)
	}
	var classes []domain.Class
	if err := c.get(ctx, "classes", "/classes", q, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// CreateClass creates a class.
func (c *Client) CreateClass(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	var created domain.Class
	if err := c.send(ctx, "classes", http.MethodPost, "/classes", class, &created, nil); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created = *class
	}
	return &created, nil
}

// ListStudents lists the students of a school, optionally of one class.
func (c *Client) ListStudents(ctx context.Context, school, class string) ([]domain.Student, error) {
	q := url.Values{}
	q.Set("school", school)
	if class != "" {
		q.Set("class", class)
	}
	var students []domain.Student
	if err := c.get(ctx, "students", "/students", q, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// CreateStudent enrolls a student.
func (c *Client) CreateStudent(ctx context.Context, req *domain.NewStudentRequest) (*domain.Student, error) {
	var created domain.Student
	if err := c.send(ctx, "students", http.MethodPost, "/students", req, &created, nil); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created = domain.Student{Name: req.Name, Class: req.Class, Option: req.Option, School: req.School}
	}
	return &created, nil
}

// GetDashboardStats returns one page of dashboard statistics.
func (c *Client) GetDashboardStats(ctx context.Context, school, schoolYearID string, page, limit int) (*domain.DashboardStats, error) {
	q := url.Values{}
	if schoolYearID != "" {
		q.Set("schoolYearId", schoolYearID)
	}
	q.Set("page", itoa(page))
	q.Set("limit", itoa(limit))

	var stats domain.DashboardStats
	if err := c.get(ctx, "dashboard", "/dashboard/stats/"+url.PathEscape(school), q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
