package vfs_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/mixvfs/internal/vfs"
)

func paths(steps []vfs.Step) []string {
	return lo.Map(steps, func(s vfs.Step, _ int) string { return s.Path })
}

func names(archives []vfs.Archive) []string {
	return lo.Map(archives, func(a vfs.Archive, _ int) string { return a.Name() })
}

// installDir lays out an install directory with one file of each discovered kind.
func installDir(t *testing.T) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for _, name := range []string{
		"expand01.mix",
		"expandmd01.mix",
		"ecache01.mix",
		"elocal02.mix",
		"a.mmx",
		"B.YRO",
		"readme.txt",
	} {
		writeFile(t, fsys, "/game/"+name, nil)
	}
	return fsys
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name   string
		engine vfs.Engine
		opts   vfs.PlanOptions
		want   []string
	}{
		{
			name:   "tiberian sun",
			engine: vfs.TiberianSun,
			want: []string{
				"/game",
				"/game/expand01.mix",
				"tibsun.mix",
				"cache.mix",
				"local.mix",
				"/game/ecache01.mix",
				"/game/elocal02.mix",
			},
		},
		{
			name:   "firestorm",
			engine: vfs.Firestorm,
			want: []string{
				"/game",
				"/game/expand01.mix",
				"/game/expandmd01.mix",
				"tibsunmd.mix",
				"tibsun.mix",
				"cachemd.mix",
				"cache.mix",
				"localmd.mix",
				"local.mix",
				"/game/ecache01.mix",
				"/game/elocal02.mix",
			},
		},
		{
			name:   "red alert 2",
			engine: vfs.RedAlert2,
			want: []string{
				"/game",
				"/game/language.mix",
				"/game/expand01.mix",
				"/game/ra2.mix",
				"cache.mix",
				"local.mix",
				"/game/ecache01.mix",
				"/game/elocal02.mix",
				"/game/a.mmx",
				"generic.mix",
				"isogen.mix",
				"conquer.mix",
				"cameo.mix",
			},
		},
		{
			name:   "yuri's revenge",
			engine: vfs.YurisRevenge,
			want: []string{
				"/game",
				"langmd.mix",
				"/game/language.mix",
				"/game/expand01.mix",
				"/game/expandmd01.mix",
				"ra2md.mix",
				"/game/ra2.mix",
				"cachemd.mix",
				"cache.mix",
				"localmd.mix",
				"local.mix",
				"audiomd.mix",
				"/game/ecache01.mix",
				"/game/elocal02.mix",
				"/game/a.mmx",
				"/game/B.YRO",
				"conqmd.mix",
				"genermd.mix",
				"generic.mix",
				"isogenmd.mix",
				"isogen.mix",
				"conquer.mix",
				"cameomd.mix",
				"cameo.mix",
				"mapsmd03.mix",
				"multimd.mix",
				"thememd.mix",
				"movmd03.mix",
			},
		},
		{
			name:   "wildcards first",
			engine: vfs.RedAlert2,
			opts:   vfs.PlanOptions{Wildcards: vfs.WildcardsFirst},
			want: []string{
				"/game",
				"/game/ecache01.mix",
				"/game/elocal02.mix",
				"/game/a.mmx",
				"/game/language.mix",
				"/game/expand01.mix",
				"/game/ra2.mix",
				"cache.mix",
				"local.mix",
				"generic.mix",
				"isogen.mix",
				"conquer.mix",
				"cameo.mix",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry(t, installDir(t))

			steps, err := r.Plan(tt.engine, "/game", tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.want, paths(steps))

			// the plan only depends on its inputs
			again, err := r.Plan(tt.engine, "/game", tt.opts)
			require.NoError(t, err)
			require.Equal(t, steps, again)
		})
	}
}

func TestPlan_DiscoveredSteps(t *testing.T) {
	r := newRegistry(t, installDir(t))

	steps, err := r.Plan(vfs.YurisRevenge, "/game", vfs.PlanOptions{})
	require.NoError(t, err)

	discovered := lo.Filter(steps, func(s vfs.Step, _ int) bool { return s.Discovered })
	require.Equal(t, []string{
		"/game/expand01.mix",
		"/game/expandmd01.mix",
		"/game/ecache01.mix",
		"/game/elocal02.mix",
		"/game/a.mmx",
		"/game/B.YRO",
	}, paths(discovered))
}

func TestScan_SkipsMissingExpansions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/game/expand00.mix", container(entry("a.txt", "from 00")))
	writeFile(t, fsys, "/game/expand02.mix", container(entry("a.txt", "from 02"), entry("b.txt", "B")))

	r := newRegistry(t, fsys)
	require.NoError(t, r.Scan(vfs.RedAlert2, "/game", vfs.PlanOptions{}))

	require.Equal(t, []string{
		"/game",
		"/game/expand02.mix",
		"/game/expand00.mix",
	}, names(r.Archives()))

	// higher numbered expansions take precedence
	require.Equal(t, "from 02", readRaw(t, r, "a.txt"))
	require.Equal(t, "B", readRaw(t, r, "b.txt"))
}

func TestScan_NoInstallDir(t *testing.T) {
	r := newRegistry(t, afero.NewMemMapFs())

	err := r.Scan(vfs.YurisRevenge, "", vfs.PlanOptions{})
	require.ErrorIs(t, err, vfs.ErrNoInstallDir)
	require.Zero(t, r.Len())

	_, err = r.Plan(vfs.TiberianSun, "", vfs.PlanOptions{})
	require.ErrorIs(t, err, vfs.ErrNoInstallDir)
}

func TestScan_MountsNestedContainers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/game/ra2.mix", container(
		entry("cache.mix", string(container(entry("unittem.pal", "pal")))),
		entry("local.mix", string(container(entry("rules.ini", "[General]\n")))),
	))

	r := newRegistry(t, fsys)
	require.NoError(t, r.Scan(vfs.RedAlert2, "/game", vfs.PlanOptions{}))

	require.Equal(t, []string{
		"/game",
		"/game/ra2.mix",
		"cache.mix",
		"local.mix",
	}, names(r.Archives()))
	require.Equal(t, "pal", readRaw(t, r, "unittem.pal"))
	require.True(t, r.Exists("rules.ini"))
}

func TestScan_SkipsCorruptContainers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/game/ra2.mix", []byte{0x01, 0x00})
	writeFile(t, fsys, "/game/expand01.mix", container(entry("a.txt", "A")))

	r := newRegistry(t, fsys)
	require.NoError(t, r.Scan(vfs.RedAlert2, "/game", vfs.PlanOptions{}))

	require.Equal(t, []string{"/game", "/game/expand01.mix"}, names(r.Archives()))
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		input   string
		want    vfs.Engine
		wantErr bool
	}{
		{input: "ts", want: vfs.TiberianSun},
		{input: "Tiberian Sun", want: vfs.TiberianSun},
		{input: "FS", want: vfs.Firestorm},
		{input: "red-alert-2", want: vfs.RedAlert2},
		{input: "RA2", want: vfs.RedAlert2},
		{input: "Yuri's Revenge", want: vfs.YurisRevenge},
		{input: "yr", want: vfs.YurisRevenge},
		{input: "", want: vfs.AutoDetect},
		{input: "auto", want: vfs.AutoDetect},
		{input: "dune2000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := vfs.ParseEngine(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			roundTrip, err := vfs.ParseEngine(got.String())
			require.NoError(t, err)
			require.Equal(t, got, roundTrip)
		})
	}
}

func TestEngineFlags(t *testing.T) {
	tests := []struct {
		engine   vfs.Engine
		modFiles bool
		ra2      bool
	}{
		{engine: vfs.TiberianSun},
		{engine: vfs.Firestorm, modFiles: true},
		{engine: vfs.RedAlert2, ra2: true},
		{engine: vfs.YurisRevenge, modFiles: true, ra2: true},
		{engine: vfs.AutoDetect, modFiles: true, ra2: true},
	}

	for _, tt := range tests {
		t.Run(tt.engine.String(), func(t *testing.T) {
			require.Equal(t, tt.modFiles, tt.engine.ModFiles())
			require.Equal(t, tt.ra2, tt.engine.RA2())
		})
	}
}

func TestParseWildcardPlacement(t *testing.T) {
	for _, w := range []vfs.WildcardPlacement{vfs.WildcardsAfterCore, vfs.WildcardsFirst} {
		got, err := vfs.ParseWildcardPlacement(w.String())
		require.NoError(t, err)
		require.Equal(t, w, got)
	}

	got, err := vfs.ParseWildcardPlacement("")
	require.NoError(t, err)
	require.Equal(t, vfs.WildcardsAfterCore, got)

	_, err = vfs.ParseWildcardPlacement("last")
	require.Error(t, err)
}
