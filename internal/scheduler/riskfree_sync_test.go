package scheduler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/perform/internal/clients/fred"
	"github.com/aristath/perform/internal/database"
	"github.com/aristath/perform/internal/modules/performance"
)

func TestRiskFreeSyncJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString("DATE,USD1MTD156N\n")
		cur, _ := time.Parse("2006-01-02", "2020-01-01")
		for i := 0; i < 60; i++ {
			fmt.Fprintf(&b, "%s,1.75\n", cur.Format("2006-01-02"))
			cur = cur.AddDate(0, 0, 1)
		}
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	repo := performance.NewRepository(db.Conn(), zerolog.Nop())
	service := performance.NewService(repo, zerolog.Nop())
	client := fred.NewClient(srv.URL, zerolog.Nop())

	job := NewRiskFreeSyncJob(client, service, "USD1MTD156N", "libor_1m", zerolog.Nop())
	assert.Equal(t, "riskfree_sync", job.Name())

	require.NoError(t, job.Run())

	stored, err := repo.GetSeries("libor_1m")
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Len())
	assert.Greater(t, stored.Values()[0], 0.0)
	assert.Less(t, stored.Values()[0], 0.001, "stored values are per-period, not annual percent")

	// A second run upserts instead of failing on duplicates
	require.NoError(t, job.Run())
	stored, err = repo.GetSeries("libor_1m")
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Len())
}

func TestSchedulerRunNow(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	repo := performance.NewRepository(db.Conn(), zerolog.Nop())
	service := performance.NewService(repo, zerolog.Nop())
	client := fred.NewClient(srv.URL, zerolog.Nop())

	sched := New(zerolog.Nop())
	job := NewRiskFreeSyncJob(client, service, "USD1MTD156N", "libor_1m", zerolog.Nop())

	err = sched.RunNow(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")
}
