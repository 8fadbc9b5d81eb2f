package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Engine selects the set of well-known containers mounted by Scan.
type Engine int

const (
	TiberianSun Engine = iota
	Firestorm
	RedAlert2
	YurisRevenge
	AutoDetect
)

func (e Engine) String() string {
	switch e {
	case TiberianSun:
		return "tiberian-sun"
	case Firestorm:
		return "firestorm"
	case RedAlert2:
		return "red-alert-2"
	case YurisRevenge:
		return "yuris-revenge"
	case AutoDetect:
		return "auto-detect"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// ModFiles reports whether the expansion ("md") containers are mounted.
func (e Engine) ModFiles() bool {
	return e == Firestorm || e == YurisRevenge || e == AutoDetect
}

// RA2 reports whether the engine uses the Red Alert 2 container set.
func (e Engine) RA2() bool {
	return e == RedAlert2 || e == YurisRevenge || e == AutoDetect
}

// ParseEngine accepts engine names and their usual abbreviations, ignoring case and
// separators: "ts", "fs", "ra2", "yr", "auto", "red-alert-2", "Yuri's Revenge", ...
func ParseEngine(s string) (Engine, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '\'':
			return -1
		}
		return r
	}, strings.ToLower(s))

	switch key {
	case "ts", "tiberiansun":
		return TiberianSun, nil
	case "fs", "firestorm":
		return Firestorm, nil
	case "ra2", "redalert2":
		return RedAlert2, nil
	case "yr", "yurisrevenge":
		return YurisRevenge, nil
	case "", "auto", "autodetect":
		return AutoDetect, nil
	default:
		return 0, fmt.Errorf("unknown engine %q", s)
	}
}

// WildcardPlacement decides where containers discovered by directory enumeration
// (ecache*.mix, elocal*.mix, *.mmx, *.yro) are mounted relative to the well-known ones.
type WildcardPlacement int

const (
	// WildcardsAfterCore mounts them after the cache, local and audio containers and
	// before the generic, terrain and cameo containers.
	WildcardsAfterCore WildcardPlacement = iota
	// WildcardsFirst mounts them right after the install directory, so they shadow
	// every well-known container.
	WildcardsFirst
)

func (w WildcardPlacement) String() string {
	if w == WildcardsFirst {
		return "first"
	}
	return "after-core"
}

// ParseWildcardPlacement is the inverse of WildcardPlacement.String. An empty string
// selects WildcardsAfterCore.
func ParseWildcardPlacement(s string) (WildcardPlacement, error) {
	switch strings.ToLower(s) {
	case "", "after-core":
		return WildcardsAfterCore, nil
	case "first":
		return WildcardsFirst, nil
	default:
		return 0, fmt.Errorf("unknown wildcard placement %q", s)
	}
}

// PlanOptions tunes the mount sequence.
type PlanOptions struct {
	Wildcards WildcardPlacement
}

// Step is one path of a mount sequence. Bare names are resolved through the archives
// mounted before them.
type Step struct {
	Path string

	// Discovered is set for paths found on disk rather than taken from the fixed list.
	Discovered bool
}

// Plan returns the mount sequence for engine rooted at installDir, in precedence order.
// Numbered expansions and wildcard patterns are resolved against the install
// directory; every other step is listed whether or not it exists.
func (r *Registry) Plan(engine Engine, installDir string, opts PlanOptions) ([]Step, error) {
	if installDir == "" {
		return nil, ErrNoInstallDir
	}

	mod, ra2 := engine.ModFiles(), engine.RA2()
	in := func(name string) string { return filepath.Join(installDir, name) }

	var steps []Step
	add := func(when bool, path string) {
		if when {
			steps = append(steps, Step{Path: path})
		}
	}

	files := r.listFiles(installDir)
	discover := func(name string) {
		if actual, ok := files[strings.ToLower(name)]; ok {
			steps = append(steps, Step{Path: in(actual), Discovered: true})
		}
	}

	add(true, installDir)
	afterRoot := len(steps)

	if ra2 {
		add(mod, "langmd.mix")
		add(true, in("language.mix"))
	}

	for i := 99; i >= 0; i-- {
		discover(fmt.Sprintf("expand%02d.mix", i))
		if mod {
			discover(fmt.Sprintf("expandmd%02d.mix", i))
		}
	}

	if ra2 {
		add(mod, "ra2md.mix")
		add(true, in("ra2.mix"))
	} else {
		add(mod, "tibsunmd.mix")
		add(true, "tibsun.mix")
	}

	add(mod, "cachemd.mix")
	add(true, "cache.mix")
	add(mod, "localmd.mix")
	add(true, "local.mix")
	add(mod && ra2, "audiomd.mix")

	patterns := []string{"ecache*.mix", "elocal*.mix"}
	if ra2 {
		patterns = append(patterns, "*.mmx")
		if mod {
			patterns = append(patterns, "*.yro")
		}
	}

	var found []Step
	for _, pattern := range patterns {
		matches := glob(files, pattern)
		found = append(found, lo.Map(matches, func(name string, _ int) Step {
			return Step{Path: in(name), Discovered: true}
		})...)
	}

	if opts.Wildcards == WildcardsFirst {
		steps = slices.Insert(steps, afterRoot, found...)
	} else {
		steps = append(steps, found...)
	}

	if ra2 {
		add(mod, "conqmd.mix")
		add(mod, "genermd.mix")
		add(true, "generic.mix")
		add(mod, "isogenmd.mix")
		add(true, "isogen.mix")
		add(true, "conquer.mix")
		add(mod, "cameomd.mix")
		add(true, "cameo.mix")
		add(mod, "mapsmd03.mix")
		add(mod, "multimd.mix")
		add(mod, "thememd.mix")
		add(mod, "movmd03.mix")
	}

	return steps, nil
}

// Scan mounts the sequence returned by Plan. Steps that do not exist are skipped and
// malformed containers are logged and skipped; only a missing install directory is
// an error, in which case nothing is mounted.
func (r *Registry) Scan(engine Engine, installDir string, opts PlanOptions) error {
	steps, err := r.Plan(engine, installDir, opts)
	if err != nil {
		r.logger.Error("cannot initialize filesystem", "engine", engine, "error", err)
		return err
	}

	r.logger.Info("initializing filesystem",
		"install_dir", installDir,
		"engine", engine,
		"mod_files", engine.ModFiles(),
		"wildcards", opts.Wildcards,
	)

	mounted := 0
	for i, step := range steps {
		err := r.Mount(step.Path)
		switch {
		case err == nil:
			mounted++
		case i == 0:
			r.logger.Warn("install directory is not mountable", "path", step.Path, "error", err)
		case errors.Is(err, ErrNotMountable):
			r.logger.Debug("skipping missing archive", "path", step.Path)
		default:
			r.logger.Warn("skipping archive", "path", step.Path, "error", err)
		}
	}

	r.logger.Info("filesystem initialized", "mounted", mounted, "planned", len(steps))
	return nil
}

// listFiles maps the lower-cased names of the regular files in dir to their names.
func (r *Registry) listFiles(dir string) map[string]string {
	infos, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		r.logger.Debug("cannot enumerate directory", "dir", dir, "error", err)
		return nil
	}

	files := lo.Filter(infos, func(fi fs.FileInfo, _ int) bool { return !fi.IsDir() })
	return lo.SliceToMap(files, func(fi fs.FileInfo) (string, string) {
		return strings.ToLower(fi.Name()), fi.Name()
	})
}

// glob returns the names in files matching pattern, ignoring case, sorted.
func glob(files map[string]string, pattern string) []string {
	pattern = strings.ToLower(pattern)
	matches := lo.FilterMap(lo.Keys(files), func(lower string, _ int) (string, bool) {
		ok, _ := filepath.Match(pattern, lower)
		return files[lower], ok
	})
	slices.Sort(matches)
	return matches
}
