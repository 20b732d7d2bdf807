package recordstore

import (
	"testing"

	"github.com/torvik/snapvault/internal/models"
)

func TestSortOrderDescWithCreatedAtTieBreak(t *testing.T) {
	t1 := "2025-01-01T10:00:00.000Z"
	t2 := "2025-01-01T11:00:00.000Z"
	t3 := "2025-01-01T12:00:00.000Z"

	recs := []models.Record{
		{ID: 1, Order: 5, CreatedAt: t1},
		{ID: 2, Order: 3, CreatedAt: t3},
		{ID: 3, Order: 5, CreatedAt: t2},
	}
	Sort(recs)

	wantIDs := []int64{3, 1, 2} // order=5 newest first, then order=5 older, then order=3
	for i, want := range wantIDs {
		if recs[i].ID != want {
			t.Fatalf("position %d: id = %d, want %d (got %+v)", i, recs[i].ID, want, recs)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	cases := []struct {
		filter models.Filter
		status models.Status
		want   bool
	}{
		{models.FilterAll, models.StatusTodo, true},
		{models.FilterAll, models.StatusDone, true},
		{models.FilterTodo, models.StatusTodo, true},
		{models.FilterTodo, models.StatusDone, false},
		{models.FilterDone, models.StatusDone, true},
		{models.FilterDone, models.StatusTodo, false},
		{models.Filter(""), models.StatusDone, true}, // unknown behaves like all
	}
	for _, c := range cases {
		if got := c.filter.Matches(c.status); got != c.want {
			t.Errorf("Filter(%q).Matches(%q) = %v, want %v", c.filter, c.status, got, c.want)
		}
	}
}
