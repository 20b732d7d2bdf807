package recordstore

import (
	"sort"

	"github.com/torvik/snapvault/internal/models"
)

// Less is the listing comparator: primary key order descending, ties broken
// by createdAt descending. CreatedAt strings are UTC ISO-8601, so plain
// string comparison is chronological.
func Less(a, b *models.Record) bool {
	if a.Order != b.Order {
		return a.Order > b.Order
	}
	return a.CreatedAt > b.CreatedAt
}

// Sort orders records in place per the listing comparator.
func Sort(recs []models.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return Less(&recs[i], &recs[j])
	})
}
