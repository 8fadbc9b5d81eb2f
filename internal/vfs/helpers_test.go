package vfs_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/mix"
	"github.com/ossyrian/mixvfs/internal/mix/mixtest"
	"github.com/ossyrian/mixvfs/internal/vfs"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRegistry(t *testing.T, fsys afero.Fs, opts ...vfs.Option) *vfs.Registry {
	t.Helper()

	r := vfs.New(append([]vfs.Option{vfs.WithFs(fsys), vfs.WithLogger(discard)}, opts...)...)
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	return r
}

func writeFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, data, 0o644))
}

func container(files ...mixtest.File) []byte {
	return mixtest.Build(files, mixtest.Options{Generation: mix.GenerationExtended})
}

func entry(name, data string) mixtest.File {
	return mixtest.File{Name: name, Data: []byte(data)}
}

// readRaw opens name as raw bytes regardless of its extension.
func readRaw(t *testing.T, r *vfs.Registry, name string) string {
	t.Helper()

	f, ok, err := vfs.OpenAs[*vfs.RawFile](r, name, format.Unknown)
	require.NoError(t, err)
	require.True(t, ok, "%s not found", name)
	return string(f.Data)
}
