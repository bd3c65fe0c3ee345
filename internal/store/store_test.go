package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/parkspot/internal/models"
)

func locs(ids ...string) []models.ParkingLocation {
	out := make([]models.ParkingLocation, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ParkingLocation{ID: id, Name: "Lot " + id})
	}
	return out
}

func snapshotIDs(s *Store) []string {
	var out []string
	for _, l := range s.Snapshot() {
		out = append(out, l.ID)
	}
	return out
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()
	assert.Empty(t, s.Snapshot())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Version())
}

func TestExplicitThenOverlappingAmbient(t *testing.T) {
	s := New()
	s.Replace(locs("X", "Y"))
	added := s.MergeAmbient(locs("Y", "Z"))

	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"X", "Y", "Z"}, snapshotIDs(s))
}

func TestMergeAmbientNeverOverridesExplicit(t *testing.T) {
	s := New()
	s.Replace([]models.ParkingLocation{{ID: "Y", Name: "explicit"}})
	s.MergeAmbient([]models.ParkingLocation{{ID: "Y", Name: "ambient"}})

	got, ok := s.Get("Y")
	require.True(t, ok)
	assert.Equal(t, "explicit", got.Name)
}

func TestMergeAmbientDropsDuplicatesAmongThemselves(t *testing.T) {
	s := New()
	s.MergeAmbient(locs("A", "B", "A"))
	s.MergeAmbient(locs("B", "C"))

	assert.Equal(t, []string{"A", "B", "C"}, snapshotIDs(s))
}

func TestReplaceLengthProperty(t *testing.T) {
	explicit := locs("A", "B", "C", "D")
	ambient := locs("C", "E", "A", "F")

	s := New()
	s.Replace(explicit)
	s.MergeAmbient(ambient)

	assert.Equal(t, len(explicit)+2, s.Len())
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, snapshotIDs(s))
}

func TestReplaceKeepsNonCollidingAmbient(t *testing.T) {
	s := New()
	s.Replace(locs("X"))
	s.MergeAmbient(locs("Z", "W"))
	s.Replace(locs("P", "Z"))

	assert.Equal(t, []string{"P", "Z", "W"}, snapshotIDs(s))

	s.MergeAmbient(locs("X"))
	assert.Equal(t, []string{"P", "Z", "W", "X"}, snapshotIDs(s))
}

func TestReplaceClearsCategoriesOnKeptAmbient(t *testing.T) {
	labelled := func(id string, c models.Category) models.ParkingLocation {
		return models.ParkingLocation{ID: id, Category: c}
	}

	s := New()
	s.MergeAmbient([]models.ParkingLocation{
		labelled("A", models.CategoryBestValue),
		labelled("B", models.CategoryShortestWalk),
		labelled("C", models.CategoryHighestRated),
	})
	s.Replace([]models.ParkingLocation{
		labelled("X", models.CategoryBestValue),
		labelled("Y", models.CategoryShortestWalk),
		labelled("Z", models.CategoryHighestRated),
	})

	snap := s.Snapshot()
	require.Equal(t, []string{"X", "Y", "Z", "A", "B", "C"}, snapshotIDs(s))
	counts := map[models.Category]int{}
	for _, l := range snap {
		counts[l.Category]++
	}
	assert.Equal(t, 1, counts[models.CategoryBestValue])
	assert.Equal(t, 1, counts[models.CategoryShortestWalk])
	assert.Equal(t, 1, counts[models.CategoryHighestRated])
	for _, l := range snap[3:] {
		assert.Equal(t, models.CategoryNone, l.Category, l.ID)
	}
}

func TestReplaceDedupsInput(t *testing.T) {
	s := New()
	n := s.Replace([]models.ParkingLocation{{ID: "A", Name: "first"}, {ID: "A", Name: "second"}, {ID: "B"}})
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"A", "B"}, snapshotIDs(s))
	got, _ := s.Get("A")
	assert.Equal(t, "first", got.Name)
}

func TestSnapshotIsStableAndDetached(t *testing.T) {
	s := New()
	s.Replace([]models.ParkingLocation{{ID: "A", Features: []string{"Covered"}}})
	s.MergeAmbient(locs("B"))

	first := s.Snapshot()
	first[0].Features[0] = "mutated"
	first[1].ID = "mutated"

	assert.Equal(t, []string{"A", "B"}, snapshotIDs(s))
	got, _ := s.Get("A")
	assert.Equal(t, "Covered", got.Features[0])
}

func TestVersionAdvancesOnMutation(t *testing.T) {
	s := New()
	s.Replace(locs("A"))
	v1 := s.Version()
	s.MergeAmbient(nil)
	assert.Greater(t, s.Version(), v1)

	_, ok := s.Get("missing")
	assert.False(t, ok)
}
