package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ossyrian/mixvfs/internal/format"
	"github.com/ossyrian/mixvfs/internal/parser"
	"github.com/ossyrian/mixvfs/internal/vfs"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the mount sequence for the configured engine",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

var mountsCmd = &cobra.Command{
	Use:   "mounts",
	Short: "Mount the game archives and list the mount table",
	Args:  cobra.NoArgs,
	RunE:  runMounts,
}

var existsCmd = &cobra.Command{
	Use:   "exists NAME...",
	Short: "Report whether names resolve; fails if any does not",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExists,
}

var whichCmd = &cobra.Command{
	Use:   "which NAME...",
	Short: "Print the archive that supplies each name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWhich,
}

var catCmd = &cobra.Command{
	Use:   "cat NAME",
	Short: "Write a file to stdout, raw or decoded with --format",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

var extractCmd = &cobra.Command{
	Use:   "extract NAME...",
	Short: "Copy files out of the mounted archives",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

var verifyCmd = &cobra.Command{
	Use:   "verify PATH...",
	Short: "Check container headers and SHA-1 trailers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func init() {
	catCmd.Flags().StringP("format", "f", "", "decode as this format (config, palette, container, ...) instead of raw bytes")

	extractCmd.Flags().StringP("dest", "d", ".", "directory to extract to")
	extractCmd.Flags().IntP("jobs", "j", 4, "number of files extracted concurrently")
}

type planEntry struct {
	Order      int    `json:"order" yaml:"order"`
	Path       string `json:"path" yaml:"path"`
	Discovered bool   `json:"discovered" yaml:"discovered"`
}

type mountEntry struct {
	Order   int    `json:"order" yaml:"order"`
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Entries int    `json:"entries" yaml:"entries"`
}

type lookupResult struct {
	Name   string `json:"name" yaml:"name"`
	Found  bool   `json:"found" yaml:"found"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

type verifyResult struct {
	Path       string `json:"path" yaml:"path"`
	OK         bool   `json:"ok" yaml:"ok"`
	Generation string `json:"generation,omitempty" yaml:"generation,omitempty"`
	Entries    int    `json:"entries" yaml:"entries"`
	Checksum   bool   `json:"checksum" yaml:"checksum"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// render writes v as JSON or YAML, or calls text for the default output
func render(w io.Writer, v any, text func(io.Writer)) error {
	switch cfg.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		text(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", cfg.Output)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	engine, err := cfg.EngineVariant()
	if err != nil {
		return err
	}
	opts, err := cfg.PlanOptions()
	if err != nil {
		return err
	}
	installDir, err := cfg.ResolveInstallDir(engine)
	if err != nil {
		return err
	}

	steps, err := vfs.New(vfs.WithLogger(slog.Default())).Plan(engine, installDir, opts)
	if err != nil {
		return err
	}

	extra := lo.Map(cfg.Mounts, func(path string, _ int) vfs.Step { return vfs.Step{Path: path} })
	entries := lo.Map(append(extra, steps...), func(s vfs.Step, i int) planEntry {
		return planEntry{Order: i + 1, Path: s.Path, Discovered: s.Discovered}
	})

	return render(cmd.OutOrStdout(), entries, func(w io.Writer) {
		for _, e := range entries {
			mark := ""
			if e.Discovered {
				mark = " (discovered)"
			}
			fmt.Fprintf(w, "%3d  %s%s\n", e.Order, e.Path, mark)
		}
	})
}

func archiveKind(a vfs.Archive) string {
	switch a.(type) {
	case *vfs.DirArchive:
		return "directory"
	case *vfs.MixArchive:
		return "container"
	case *vfs.SevenZipArchive:
		return "7z"
	default:
		return fmt.Sprintf("%T", a)
	}
}

func archiveLen(a vfs.Archive) int {
	switch a := a.(type) {
	case *vfs.MixArchive:
		return a.Len()
	case vfs.Lister:
		return len(a.Entries())
	default:
		return 0
	}
}

func runMounts(cmd *cobra.Command, args []string) error {
	r, err := openRegistry()
	if err != nil {
		return err
	}
	defer r.Close()

	entries := lo.Map(r.Archives(), func(a vfs.Archive, i int) mountEntry {
		return mountEntry{Order: i + 1, Name: a.Name(), Kind: archiveKind(a), Entries: archiveLen(a)}
	})

	return render(cmd.OutOrStdout(), entries, func(w io.Writer) {
		for _, e := range entries {
			fmt.Fprintf(w, "%3d  %-9s  %6d  %s\n", e.Order, e.Kind, e.Entries, e.Name)
		}
	})
}

func lookup(r *vfs.Registry, names []string) []lookupResult {
	return lo.Map(names, func(name string, _ int) lookupResult {
		src, ok := r.SourceOf(name)
		if !ok {
			return lookupResult{Name: name}
		}
		return lookupResult{Name: name, Found: true, Source: src.Name()}
	})
}

func runExists(cmd *cobra.Command, args []string) error {
	r, err := openRegistry()
	if err != nil {
		return err
	}
	defer r.Close()

	results := lookup(r, args)
	err = render(cmd.OutOrStdout(), results, func(w io.Writer) {
		for _, res := range results {
			fmt.Fprintf(w, "%s\t%t\n", res.Name, res.Found)
		}
	})
	if err != nil {
		return err
	}

	if missing := lo.CountBy(results, func(res lookupResult) bool { return !res.Found }); missing > 0 {
		return fmt.Errorf("%d of %d names not found", missing, len(results))
	}
	return nil
}

func runWhich(cmd *cobra.Command, args []string) error {
	r, err := openRegistry()
	if err != nil {
		return err
	}
	defer r.Close()

	results := lookup(r, args)
	return render(cmd.OutOrStdout(), results, func(w io.Writer) {
		for _, res := range results {
			src := res.Source
			if !res.Found {
				src = "not found"
			}
			fmt.Fprintf(w, "%s\t%s\n", res.Name, src)
		}
	})
}

func runCat(cmd *cobra.Command, args []string) error {
	name := args[0]

	hint := format.Unknown
	if s, _ := cmd.Flags().GetString("format"); s != "" {
		tag, err := format.ParseTag(s)
		if err != nil {
			return err
		}
		hint = tag
	}

	r, err := openRegistry()
	if err != nil {
		return err
	}
	defer r.Close()

	f, ok, err := r.Open(name, hint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}

	w := cmd.OutOrStdout()
	switch f := f.(type) {
	case *vfs.RawFile:
		_, err = w.Write(f.Data)
	case *vfs.IniFile:
		_, err = f.WriteTo(w)
	case *vfs.Palette:
		for i, c := range f.Colors {
			rgba := c.(color.RGBA)
			if _, err = fmt.Fprintf(w, "%3d  #%02x%02x%02x\n", i, rgba.R, rgba.G, rgba.B); err != nil {
				break
			}
		}
	case *vfs.MixArchive:
		_, err = fmt.Fprintf(w, "%s: %s container, %d entries\n", f.Name(), f.Generation(), f.Len())
	default:
		err = fmt.Errorf("%s: no text form for %s", name, f.Format())
	}
	return err
}

func runExtract(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	jobs, _ := cmd.Flags().GetInt("jobs")

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	r, err := openRegistry()
	if err != nil {
		return err
	}
	defer r.Close()

	fsys := r.FS()
	p := pool.New().WithErrors().WithMaxGoroutines(max(jobs, 1))
	for _, name := range args {
		p.Go(func() error {
			data, err := fs.ReadFile(fsys, filepath.ToSlash(name))
			if err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}

			out := filepath.Join(dest, filepath.Base(name))
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}

			slog.Info("extracted file", "name", name, "path", out, "size", len(data))
			return nil
		})
	}
	return p.Wait()
}

func verifyContainer(path string) verifyResult {
	res := verifyResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	index, err := parser.Verify(f, fi.Size(), slog.Default().With("container", path))
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.OK = true
	res.Generation = index.Generation.String()
	res.Entries = len(index.Entries)
	res.Checksum = index.Header.Checksummed()
	return res
}

func runVerify(cmd *cobra.Command, args []string) error {
	results := lo.Map(args, func(path string, _ int) verifyResult { return verifyContainer(path) })

	err := render(cmd.OutOrStdout(), results, func(w io.Writer) {
		for _, res := range results {
			if !res.OK {
				fmt.Fprintf(w, "FAIL  %s: %s\n", res.Path, res.Error)
				continue
			}
			sum := "no checksum"
			if res.Checksum {
				sum = "checksum ok"
			}
			fmt.Fprintf(w, "ok    %s: %s, %d entries, %s\n", res.Path, res.Generation, res.Entries, sum)
		}
	})
	if err != nil {
		return err
	}

	if failed := lo.CountBy(results, func(res verifyResult) bool { return !res.OK }); failed > 0 {
		return errors.New("some containers failed verification")
	}
	return nil
}
