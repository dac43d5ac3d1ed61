package filter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/schoolapi"
)

// Rapid paging cancels in-flight backend calls. Those cancellations must not
// open the shared breaker for other sessions.
func TestRemoteSource_SupersededFetchesKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.StudentPage{Students: fixture(), TotalStudents: len(fixture()), TotalPages: 1})
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker("student-payments")
	client := schoolapi.NewClient(srv.Client(), srv.URL, cb, resilience.Config{MaxConcurrency: 10}, zap.NewNop())
	engine := NewEngine(NewRemoteSource(client), 0, zap.NewNop(), nil)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := Criteria{School: domain.SchoolSecondaire, SchoolYearID: "y1", Page: i + 1}
			_, errs[i] = engine.List(context.Background(), "u1", c)
		}(i)
		time.Sleep(15 * time.Millisecond)
	}
	wg.Wait()

	require.NoError(t, errs[len(errs)-1], "latest page must succeed")
	for _, err := range errs[:len(errs)-1] {
		assert.True(t, isSuperseded(err), "older pages are superseded, got %v", err)
	}

	page, err := engine.List(context.Background(), "u2", Criteria{School: domain.SchoolSecondaire, SchoolYearID: "y1"})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Students)
	assert.Equal(t, "closed", cb.State().String())
}
