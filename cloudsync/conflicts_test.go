package cloudsync

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/locsync/merge"
)

func sampleConflicts() []merge.Conflict {
	return []merge.Conflict{
		{Key: "ui.buy", Locale: "fr", LocalValue: "Acheter", CloudValue: "Achetez"},
		{Key: "ui.sell", Locale: "es", LocalValue: "Vender", CloudValue: "Vender ahora"},
		{Key: "ui.buy", Locale: "es", LocalValue: "Comprar", CloudValue: "Adquirir"},
	}
}

func TestMarshalConflictsGolden(t *testing.T) {
	data, err := MarshalConflicts(sampleConflicts())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "conflicts", data)
}

func TestConflictFileWritesUnderDir(t *testing.T) {
	mfs := memfs.New()
	cf := NewConflictFile(mfs, "output")

	path, err := cf.WriteConflicts(sampleConflicts())

	require.NoError(t, err)
	assert.Equal(t, mfs.Join("output", ConflictsFileName), path)

	written, err := util.ReadFile(mfs, path)
	require.NoError(t, err)
	want, err := MarshalConflicts(sampleConflicts())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))
}

func TestMarshalConflictsEmpty(t *testing.T) {
	data, err := MarshalConflicts(nil)

	require.NoError(t, err)
	assert.Equal(t, conflictsHeader, string(data))
}
