package vfs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/mix"
	"github.com/ossyrian/mixvfs/internal/mix/mixtest"
	"github.com/ossyrian/mixvfs/internal/parser"
	"github.com/ossyrian/mixvfs/internal/vfs"
)

type countingCloser struct{ calls int }

func (c *countingCloser) Close() error {
	c.calls++
	return nil
}

func TestNewMixArchive_ReleasesSourceOnFailure(t *testing.T) {
	data := container(entry("a.txt", "X"))
	truncated := data[:len(data)-1]

	closer := &countingCloser{}
	a, err := vfs.NewMixArchive("ra2.mix", bytes.NewReader(truncated), int64(len(truncated)), closer,
		vfs.WithArchiveLogger(discard))
	require.Nil(t, a)
	require.Equal(t, 1, closer.calls)

	var formatErr *vfs.FormatError
	require.ErrorAs(t, err, &formatErr)
	require.Equal(t, "ra2.mix", formatErr.Name)
	require.Equal(t, format.Container, formatErr.Format)
	require.True(t, errors.Is(err, parser.ErrMalformed))
}

func TestMixArchive(t *testing.T) {
	data := mixtest.Build([]mixtest.File{
		entry("rules.ini", "[General]\nName=Test\n"),
		entry("blank.shp", ""),
	}, mixtest.Options{Generation: mix.GenerationEncrypted})

	closer := &countingCloser{}
	a, err := vfs.NewMixArchive("local.mix", bytes.NewReader(data), int64(len(data)), closer,
		vfs.WithArchiveLogger(discard))
	require.NoError(t, err)

	require.Equal(t, "local.mix", a.Name())
	require.Equal(t, format.Container, a.Format())
	require.Equal(t, mix.GenerationEncrypted, a.Generation())
	require.Equal(t, 2, a.Len())
	require.True(t, a.Contains("RULES.INI"))
	require.False(t, a.Contains("art.ini"))

	f, ok, err := a.Open("rules.ini", format.None)
	require.NoError(t, err)
	require.True(t, ok)
	require.IsType(t, &vfs.IniFile{}, f)

	f, ok, err = a.Open("blank.shp", format.None)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, format.Sprite, f.Format())
	require.Empty(t, f.(*vfs.RawFile).Data)

	f, ok, err = a.Open("art.ini", format.None)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, f)

	require.NoError(t, a.Close())
	require.Equal(t, 1, closer.calls)
}

func TestMixArchive_NestedInheritsNameIDs(t *testing.T) {
	classic := mixtest.Options{Generation: mix.GenerationClassic, IDFunc: mix.ClassicID}
	inner := mixtest.Build([]mixtest.File{entry("conquer.ini", "[A]\n")}, classic)
	outer := mixtest.Build([]mixtest.File{{Name: "conquer.mix", Data: inner}}, classic)

	a, err := vfs.NewMixArchive("main.mix", bytes.NewReader(outer), int64(len(outer)), nil,
		vfs.WithArchiveLogger(discard), vfs.WithIDFunc(mix.ClassicID))
	require.NoError(t, err)

	f, ok, err := a.Open("conquer.mix", format.None)
	require.NoError(t, err)
	require.True(t, ok)

	nested := f.(*vfs.MixArchive)
	require.True(t, nested.Contains("conquer.ini"))
	require.NoError(t, nested.Close())
}
