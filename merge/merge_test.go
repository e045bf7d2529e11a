package merge

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/locsync/translation"
)

func key(k, l string) translation.Key { return translation.Key{Key: k, Locale: l} }

func rec(k, l, v string) translation.Record {
	return translation.Record{Key: k, Locale: l, Value: v}
}

func TestComputeDiffLocalOnly(t *testing.T) {
	local := translation.Map{key("a", "en"): "Buy"}

	d := ComputeDiff(local, translation.Map{})

	assert.Equal(t, []translation.Record{rec("a", "en", "Buy")}, d.AddedLocal)
	assert.Empty(t, d.AddedCloud)
	assert.Empty(t, d.ModifiedBoth)
	assert.Empty(t, d.DeletedLocal)

	r := ApplyStrategy(d, Overwrite, local)
	assert.Equal(t, []translation.Record{rec("a", "en", "Buy")}, r.ToUpload)
	assert.Empty(t, r.ToDownload)
	assert.Empty(t, r.Conflicts)
}

func TestComputeDiffConflictingValue(t *testing.T) {
	local := translation.Map{key("a", "en"): "Buy"}
	cloud := translation.Map{key("a", "en"): "Purchase"}

	d := ComputeDiff(local, cloud)
	require.Equal(t, []Change{{Key: "a", Locale: "en", LocalValue: "Buy", CloudValue: "Purchase"}}, d.ModifiedBoth)

	t.Run("merge prefers cloud", func(t *testing.T) {
		r := ApplyStrategy(d, Merge, local)
		assert.Equal(t, []translation.Record{rec("a", "en", "Purchase")}, r.ToDownload)
		assert.Empty(t, r.ToUpload)
		assert.Empty(t, r.Conflicts)
	})

	t.Run("skip conflicts reports", func(t *testing.T) {
		r := ApplyStrategy(d, SkipConflicts, local)
		assert.Equal(t, []Conflict{{Key: "a", Locale: "en", LocalValue: "Buy", CloudValue: "Purchase"}}, r.Conflicts)
		assert.Empty(t, r.ToUpload)
		assert.Empty(t, r.ToDownload)
	})
}

func TestComputeDiffCloudOnly(t *testing.T) {
	cloud := translation.Map{key("b", "en"): "Cancel"}

	d := ComputeDiff(translation.Map{}, cloud)
	assert.Equal(t, []translation.Record{rec("b", "en", "Cancel")}, d.AddedCloud)
	assert.Equal(t, []translation.Key{key("b", "en")}, d.DeletedLocal)

	for _, s := range []Strategy{Merge, SkipConflicts} {
		r := ApplyStrategy(d, s, translation.Map{})
		assert.Contains(t, r.ToDownload, rec("b", "en", "Cancel"), "strategy %s", s)
	}

	r := ApplyStrategy(d, Overwrite, translation.Map{})
	assert.Empty(t, r.ToDownload)
	assert.Empty(t, r.ToUpload)
}

func TestComputeDiffEqualValuesAreUnchanged(t *testing.T) {
	m := translation.Map{key("a", "en"): "Buy", key("a", "id"): "Beli"}

	d := ComputeDiff(m, m)

	assert.Empty(t, d.AddedLocal)
	assert.Empty(t, d.AddedCloud)
	assert.Empty(t, d.ModifiedBoth)
	assert.Empty(t, d.DeletedLocal)
}

func TestComputeDiffOutputIsSorted(t *testing.T) {
	local := translation.Map{
		key("z", "en"): "Z",
		key("a", "id"): "A-id",
		key("a", "en"): "A-en",
	}

	d := ComputeDiff(local, translation.Map{})

	assert.Equal(t, []translation.Record{
		rec("a", "en", "A-en"),
		rec("a", "id", "A-id"),
		rec("z", "en", "Z"),
	}, d.AddedLocal)
}

// randomMap draws pairs from a small key space so the two sides overlap.
func randomMap(rng *rand.Rand) translation.Map {
	m := translation.Map{}
	n := rng.Intn(12)
	for i := 0; i < n; i++ {
		k := key(fmt.Sprintf("k%d", rng.Intn(5)), []string{"en", "es", "id"}[rng.Intn(3)])
		m[k] = fmt.Sprintf("v%d", rng.Intn(3))
	}
	return m
}

func TestDiffClassificationIsExhaustiveAndExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		local, cloud := randomMap(rng), randomMap(rng)
		d := ComputeDiff(local, cloud)

		seen := map[translation.Key]int{}
		for _, r := range d.AddedLocal {
			seen[key(r.Key, r.Locale)]++
		}
		for _, r := range d.AddedCloud {
			seen[key(r.Key, r.Locale)]++
		}
		for _, c := range d.ModifiedBoth {
			seen[key(c.Key, c.Locale)]++
		}

		union := map[translation.Key]bool{}
		for k := range local {
			union[k] = true
		}
		for k := range cloud {
			union[k] = true
		}

		for k := range union {
			unchanged := 0
			if lv, ok := local[k]; ok {
				if cv, ok := cloud[k]; ok && lv == cv {
					unchanged = 1
				}
			}
			require.Equal(t, 1, seen[k]+unchanged, "pair %v must fall in exactly one class", k)
		}
		require.Len(t, d.DeletedLocal, len(d.AddedCloud))
	}
}

func TestStrategyLaws(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		local, cloud := randomMap(rng), randomMap(rng)
		d := ComputeDiff(local, cloud)

		over := ApplyStrategy(d, Overwrite, local)
		require.Equal(t, local, translation.ToMap(over.ToUpload))
		require.Len(t, over.ToUpload, len(local))
		require.Empty(t, over.ToDownload)
		require.Empty(t, over.Conflicts)

		merged := ApplyStrategy(d, Merge, local)
		require.Empty(t, merged.Conflicts)
		for _, r := range d.AddedCloud {
			require.Contains(t, merged.ToDownload, r)
		}
		require.Len(t, merged.ToDownload, len(d.AddedCloud)+len(d.ModifiedBoth))

		skip := ApplyStrategy(d, SkipConflicts, local)
		require.Len(t, skip.Conflicts, len(d.ModifiedBoth))
		require.ElementsMatch(t, d.AddedLocal, skip.ToUpload)
		require.ElementsMatch(t, d.AddedCloud, skip.ToDownload)
	}
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want Strategy
	}{
		{in: "overwrite", want: Overwrite},
		{in: "MERGE", want: Merge},
		{in: "skip-conflicts", want: SkipConflicts},
		{in: " skip_conflicts ", want: SkipConflicts},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseStrategy("newest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip-conflicts")
}

func TestStrategyStringRoundTrip(t *testing.T) {
	for _, s := range []Strategy{Overwrite, Merge, SkipConflicts} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestUnknownStrategyFallsBackToSkipConflicts(t *testing.T) {
	bogus := Strategy(42)
	assert.False(t, bogus.Valid())
	assert.Equal(t, "Strategy(42)", bogus.String())
	for _, s := range []Strategy{Overwrite, Merge, SkipConflicts} {
		assert.True(t, s.Valid(), s.String())
	}

	local := translation.ToMap([]translation.Record{{Key: "a", Locale: "en", Value: "Buy"}})
	cloud := translation.ToMap([]translation.Record{{Key: "a", Locale: "en", Value: "Purchase"}})
	d := ComputeDiff(local, cloud)

	assert.Equal(t, ApplyStrategy(d, SkipConflicts, local), ApplyStrategy(d, bogus, local))
}
