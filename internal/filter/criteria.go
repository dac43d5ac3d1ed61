// Package filter selects and paginates student payment profiles. The same
// predicate serves the remote source (backend query parameters) and the
// local source (in-memory filtering), and Engine adds per-session search
// debouncing with last-request-wins semantics.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// DefaultPageSize is used when a criteria carries no page size.
const DefaultPageSize = 20

// Payment status filter values. Empty means all.
const (
	StatusAll     = "all"
	StatusPaid    = domain.StatusPaid
	StatusPending = domain.StatusPending
)

// Criteria describes which students to show. Empty strings mean "all".
type Criteria struct {
	School        domain.SchoolType
	SchoolYearID  string
	Class         string
	Option        string
	Term          string
	PaymentStatus string
	SearchTerm    string
	MinPaid       *float64
	Page          int
	PageSize      int
}

// Normalize maps "all" to empty, trims text and fills page defaults.
func (c Criteria) Normalize() Criteria {
	c.Class = clean(c.Class)
	c.Option = clean(c.Option)
	c.Term = clean(c.Term)
	c.PaymentStatus = strings.ToLower(clean(c.PaymentStatus))
	c.SearchTerm = strings.TrimSpace(c.SearchTerm)
	if !c.School.HasOptions() {
		c.Option = ""
	}
	if c.Page < 1 {
		c.Page = 1
	}
	if c.PageSize < 1 {
		c.PageSize = DefaultPageSize
	}
	return c
}

// SameFilters reports whether c and o select the same students, ignoring
// the page number.
func (c Criteria) SameFilters(o Criteria) bool {
	if c.School != o.School || c.SchoolYearID != o.SchoolYearID ||
		c.Class != o.Class || c.Option != o.Option || c.Term != o.Term ||
		c.PaymentStatus != o.PaymentStatus || c.SearchTerm != o.SearchTerm ||
		c.PageSize != o.PageSize {
		return false
	}
	switch {
	case c.MinPaid == nil && o.MinPaid == nil:
		return true
	case c.MinPaid == nil || o.MinPaid == nil:
		return false
	}
	return *c.MinPaid == *o.MinPaid
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, StatusAll) {
		return ""
	}
	return s
}

// Query parameter names understood by the school backend.
const (
	paramSchoolYear    = "schoolYearId"
	paramPage          = "page"
	paramLimit         = "limit"
	paramClass         = "class"
	paramOption        = "option"
	paramTerm          = "term"
	paramPaymentStatus = "paymentStatus"
	paramSearch        = "searchTerm"
	paramMinPaid       = "minPaid"
)

// BuildQuery maps criteria to backend query parameters. Only non-default
// filters are sent; option is sent only for schools that have options.
func BuildQuery(c Criteria) url.Values {
	c = c.Normalize()
	q := url.Values{}
	if c.SchoolYearID != "" {
		q.Set(paramSchoolYear, c.SchoolYearID)
	}
	q.Set(paramPage, strconv.Itoa(c.Page))
	q.Set(paramLimit, strconv.Itoa(c.PageSize))

	if c.Class != "" {
		q.Set(paramClass, c.Class)
	}
	if c.Option != "" {
		q.Set(paramOption, c.Option)
	}
	if c.Term != "" {
		q.Set(paramTerm, c.Term)
	}
	if c.PaymentStatus != "" {
		q.Set(paramPaymentStatus, c.PaymentStatus)
	}
	if c.SearchTerm != "" {
		q.Set(paramSearch, c.SearchTerm)
	}
	if c.MinPaid != nil {
		q.Set(paramMinPaid, strconv.FormatFloat(*c.MinPaid, 'f', -1, 64))
	}
	return q
}

// ParseQuery is the inverse of BuildQuery. school comes from the path.
// Malformed numbers yield *domain.ErrValidation.
func ParseQuery(school domain.SchoolType, q url.Values) (Criteria, error) {
	c := Criteria{
		School:        school,
		SchoolYearID:  q.Get(paramSchoolYear),
		Class:         q.Get(paramClass),
		Option:        q.Get(paramOption),
		Term:          q.Get(paramTerm),
		PaymentStatus: q.Get(paramPaymentStatus),
		SearchTerm:    q.Get(paramSearch),
	}

	var err error
	if c.Page, err = intParam(q, paramPage); err != nil {
		return Criteria{}, err
	}
	if c.PageSize, err = intParam(q, paramLimit); err != nil {
		return Criteria{}, err
	}
	if v := strings.TrimSpace(q.Get(paramMinPaid)); v != "" {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil || f < 0 {
			return Criteria{}, &domain.ErrValidation{Field: paramMinPaid, Message: "must be a non-negative number"}
		}
		c.MinPaid = &f
	}

	c = c.Normalize()
	switch c.PaymentStatus {
	case "", StatusPaid, StatusPending:
	default:
		return Criteria{}, &domain.ErrValidation{Field: paramPaymentStatus, Message: "must be all, paid or pending"}
	}
	return c, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ErrValidation{Field: name, Message: "must be an integer"}
	}
	return n, nil
}
