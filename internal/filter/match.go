package filter

import (
	"strings"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/fees"
)

// Match reports whether a profile satisfies the criteria.
//
// A payment-status filter on a term the student does not have excludes the
// student. MinPaid only changes how "paid" is decided; alone it filters
// nothing.
func Match(p *domain.StudentPaymentProfile, c Criteria) bool {
	c = c.Normalize()

	if c.School != "" && !strings.EqualFold(p.School, string(c.School)) {
		return false
	}
	if c.Class != "" && p.Class != c.Class {
		return false
	}
	if c.PaymentStatus != "" {
		paid, ok := fees.IsPaid(p, c.Term, c.MinPaid)
		if !ok {
			return false
		}
		if (c.PaymentStatus == StatusPaid) != paid {
			return false
		}
	}
	if c.Term != "" {
		if _, ok := p.FindTerm(c.Term); !ok {
			return false
		}
	}
	if c.Option != "" && p.Option != c.Option {
		return false
	}
	if c.SearchTerm != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.SearchTerm)) {
		return false
	}
	return true
}

// Apply filters profiles and returns the requested page. Order is kept.
func Apply(profiles []domain.StudentPaymentProfile, c Criteria) *domain.StudentPage {
	c = c.Normalize()

	matched := make([]domain.StudentPaymentProfile, 0, len(profiles))
	for i := range profiles {
		if Match(&profiles[i], c) {
			matched = append(matched, profiles[i])
		}
	}
	return Paginate(matched, c.Page, c.PageSize)
}

// Paginate cuts one page out of items. totalPages is at least 1; a page
// past the end is empty.
func Paginate(items []domain.StudentPaymentProfile, page, size int) *domain.StudentPage {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	out := &domain.StudentPage{
		Students:      []domain.StudentPaymentProfile{},
		TotalStudents: total,
		TotalPages:    totalPages,
		Page:          page,
		PageSize:      size,
	}
	start := (page - 1) * size
	if start >= total {
		return out
	}
	end := start + size
	if end > total {
		end = total
	}
	out.Students = append(out.Students, items[start:end]...)
	return out
}
