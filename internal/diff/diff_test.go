package diff

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/loi-watcher/internal/types"
)

func record(location, day, times string, instructions *string) types.LocationRecord {
	return types.LocationRecord{
		Location:     location,
		Address:      location + " Address",
		Day:          day,
		Times:        times,
		Instructions: instructions,
	}
}

func TestDiff_FirstRunAllAdded(t *testing.T) {
	current := types.NewIndex()
	rec := record("Test Site", "Monday", "9am-5pm", types.StringPtr("Bring ID"))
	current.Put("Testing Sites", "Monday-9am-5pm", rec)

	changes := Diff(types.NewIndex(), current)

	require.Len(t, changes, 1)
	assert.Equal(t, types.ChangeEvent{ChangeType: types.ChangeAdded, Group: "Testing Sites", Location: rec}, changes[0])
}

func TestDiff_NilBaseline(t *testing.T) {
	current := types.NewIndex()
	current.Put("G", "k", record("Site A", "Monday", "9am", nil))

	changes := Diff(nil, current)
	require.Len(t, changes, 1)
	assert.Equal(t, types.ChangeAdded, changes[0].ChangeType)

	assert.Empty(t, Diff(nil, nil))
}

func TestDiff_Removal(t *testing.T) {
	baseline := types.NewIndex()
	r := record("Site A", "Monday", "9am5pm", nil)
	baseline.Put("G", "Monday-9am5pm", r)

	current := types.NewIndex()
	current.Put("G", "Tuesday-9am5pm", record("Site A", "Tuesday", "9am5pm", nil))

	changes := Diff(baseline, current)

	removed := filter(changes, types.ChangeRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, types.ChangeEvent{ChangeType: types.ChangeRemoved, Group: "G", Location: r}, removed[0])
	assert.Len(t, filter(changes, types.ChangeAdded), 1)
	assert.Len(t, changes, 2)
}

func TestDiff_UpdateCarriesCurrentRecord(t *testing.T) {
	baseline := types.NewIndex()
	baseline.Put("G", "k", record("Site A", "Monday", "9am", types.StringPtr("Isolate")))

	current := types.NewIndex()
	updated := record("Site A", "Monday", "9am", types.StringPtr("Get tested"))
	current.Put("G", "k", updated)

	changes := Diff(baseline, current)

	require.Len(t, changes, 1)
	assert.Equal(t, types.ChangeUpdated, changes[0].ChangeType)
	assert.Equal(t, updated, changes[0].Location)
}

func TestDiff_OptionalPresenceCountsAsUpdate(t *testing.T) {
	baseline := types.NewIndex()
	baseline.Put("G", "k", record("Site A", "Monday", "9am", nil))

	current := types.NewIndex()
	current.Put("G", "k", record("Site A", "Monday", "9am", types.StringPtr("")))

	changes := Diff(baseline, current)
	require.Len(t, changes, 1)
	assert.Equal(t, types.ChangeUpdated, changes[0].ChangeType)
}

func TestDiff_MissingGroupAndLocation(t *testing.T) {
	baseline := types.NewIndex()
	baseline.Put("Old Group", "k", record("Site A", "Monday", "9am", nil))

	current := types.NewIndex()
	current.Put("New Group", "k", record("Site A", "Monday", "9am", nil))

	changes := Diff(baseline, current)

	assert.Equal(t, Summary{Added: 1, Removed: 1}, Summarize(changes))
	assert.Equal(t, "New Group", changes[0].Group)
	assert.Equal(t, "Old Group", changes[1].Group)
}

func TestDiff_DeterministicOrder(t *testing.T) {
	current := types.NewIndex()
	current.Put("b", "k", record("Z", "Monday", "9am", nil))
	current.Put("a", "k2", record("Y", "Monday", "9am", nil))
	current.Put("a", "k1", record("Y", "Monday", "9am", nil))
	current.Put("a", "k", record("X", "Monday", "9am", nil))

	for i := 0; i < 5; i++ {
		changes := Diff(nil, current)
		require.Len(t, changes, 4)
		assert.Equal(t, "X", changes[0].Location.Location)
		assert.Equal(t, "Y", changes[1].Location.Location)
		assert.Equal(t, "Y", changes[2].Location.Location)
		assert.Equal(t, "Z", changes[3].Location.Location)
	}
}

func TestDiff_Idempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		x := randomIndex(rng)
		assert.Empty(t, Diff(x, x))
	}
}

func TestDiff_PartitionCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		baseline := randomIndex(rng)
		current := randomIndex(rng)

		changes := Diff(baseline, current)

		seen := make(map[string]types.ChangeType)
		for _, c := range changes {
			p := path(c)
			_, dup := seen[p]
			require.False(t, dup, "path classified twice: %s", p)
			seen[p] = c.ChangeType
		}

		union := make(map[string]bool)
		collectPaths(baseline, union)
		collectPaths(current, union)

		for p := range union {
			g, l, k := splitPath(p)
			b, inBase := baseline.Get(g, l, k)
			c, inCur := current.Get(g, l, k)
			got, classified := seen[p]
			switch {
			case inCur && !inBase:
				assert.Equal(t, types.ChangeAdded, got, p)
			case inBase && !inCur:
				assert.Equal(t, types.ChangeRemoved, got, p)
			case !b.Equal(c):
				assert.Equal(t, types.ChangeUpdated, got, p)
			default:
				assert.False(t, classified, "unchanged path emitted: %s", p)
			}
		}
		assert.LessOrEqual(t, len(seen), len(union))
	}
}

func TestDiff_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		a := randomIndex(rng)
		b := randomIndex(rng)

		forward := Diff(a, b)
		backward := Diff(b, a)
		require.Equal(t, len(forward), len(backward))

		back := make(map[string]types.ChangeEvent)
		for _, c := range backward {
			back[path(c)] = c
		}
		for _, c := range forward {
			other, ok := back[path(c)]
			require.True(t, ok, "path missing from reverse diff: %s", path(c))
			switch c.ChangeType {
			case types.ChangeAdded:
				assert.Equal(t, types.ChangeRemoved, other.ChangeType)
				assert.Equal(t, c.Location, other.Location)
			case types.ChangeRemoved:
				assert.Equal(t, types.ChangeAdded, other.ChangeType)
			case types.ChangeUpdated:
				assert.Equal(t, types.ChangeUpdated, other.ChangeType)
				g, l, k := splitPath(path(c))
				prev, _ := a.Get(g, l, k)
				assert.Equal(t, prev, other.Location)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]types.ChangeEvent{
		{ChangeType: types.ChangeAdded},
		{ChangeType: types.ChangeAdded},
		{ChangeType: types.ChangeUpdated},
		{ChangeType: types.ChangeRemoved},
	})
	assert.Equal(t, Summary{Added: 2, Updated: 1, Removed: 1}, s)
	assert.Equal(t, 4, s.Total())
}

// randomIndex draws from a small universe so that random pairs overlap.
func randomIndex(rng *rand.Rand) types.Index {
	idx := types.NewIndex()
	groups := []string{"", "North", "South"}
	locations := []string{"Site A", "Site B", "Site C"}
	days := []string{"Monday", "Tuesday"}
	notes := []*string{nil, types.StringPtr(""), types.StringPtr("Isolate"), types.StringPtr("Monitor")}

	n := rng.Intn(10)
	for i := 0; i < n; i++ {
		rec := record(
			locations[rng.Intn(len(locations))],
			days[rng.Intn(len(days))],
			"9am",
			notes[rng.Intn(len(notes))],
		)
		idx.Put(groups[rng.Intn(len(groups))], rec.Day+"-"+rec.Times, rec)
	}
	return idx
}

const sep = "\x00"

func path(c types.ChangeEvent) string {
	return c.Group + sep + c.Location.Location + sep + c.Location.Day + "-" + c.Location.Times
}

func splitPath(p string) (string, string, string) {
	parts := strings.SplitN(p, sep, 3)
	return parts[0], parts[1], parts[2]
}

func collectPaths(idx types.Index, into map[string]bool) {
	for g, locations := range idx {
		for l, keys := range locations {
			for k := range keys {
				into[fmt.Sprintf("%s%s%s%s%s", g, sep, l, sep, k)] = true
			}
		}
	}
}

func filter(changes []types.ChangeEvent, ct types.ChangeType) []types.ChangeEvent {
	out := make([]types.ChangeEvent, 0)
	for _, c := range changes {
		if c.ChangeType == ct {
			out = append(out, c)
		}
	}
	return out
}
