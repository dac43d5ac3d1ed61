package filter

import (
	"context"
	"fmt"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

// Data source modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Source fetches one page of students for a criteria.
type Source interface {
	FetchPage(ctx context.Context, c Criteria) (*domain.StudentPage, error)
	Mode() string
}

// RemoteSource delegates filtering and paging to the backend.
type RemoteSource struct {
	store port.StudentPaymentStore
}

// NewRemoteSource creates a server-delegated source.
func NewRemoteSource(store port.StudentPaymentStore) *RemoteSource {
	return &RemoteSource{store: store}
}

// FetchPage sends the criteria as query parameters. The backend's order is
// kept as is.
func (s *RemoteSource) FetchPage(ctx context.Context, c Criteria) (*domain.StudentPage, error) {
	c = c.Normalize()
	page, err := s.store.QueryStudentPayments(ctx, string(c.School), BuildQuery(c))
	if err != nil {
		return nil, fmt.Errorf("query student payments: %w", err)
	}
	if page.Students == nil {
		page.Students = []domain.StudentPaymentProfile{}
	}
	if page.Page == 0 {
		page.Page = c.Page
	}
	if page.PageSize == 0 {
		page.PageSize = c.PageSize
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	return page, nil
}

// Mode implements Source.
func (s *RemoteSource) Mode() string { return ModeRemote }

// LocalSource fetches the whole school and filters in memory.
type LocalSource struct {
	store port.StudentPaymentStore
}

// NewLocalSource creates an in-memory filtering source.
func NewLocalSource(store port.StudentPaymentStore) *LocalSource {
	return &LocalSource{store: store}
}

// FetchPage implements Source.
func (s *LocalSource) FetchPage(ctx context.Context, c Criteria) (*domain.StudentPage, error) {
	c = c.Normalize()
	all, err := s.store.ListAllStudentPayments(ctx, string(c.School), c.SchoolYearID)
	if err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return Apply(all, c), nil
}

// Mode implements Source.
func (s *LocalSource) Mode() string { return ModeLocal }
