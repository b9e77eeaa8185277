// Command jmod lists, describes, hashes, extracts and pushes JMOD files, and
// prints the x86-64 calling convention tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"github.com/meigma/jmod"
	"github.com/meigma/jmod/abi"
	"github.com/meigma/jmod/abi/x64"
	"github.com/meigma/jmod/cache"
	jmodhttp "github.com/meigma/jmod/http"
	"github.com/meigma/jmod/registry"
)

const usage = `usage: jmod <command> [flags] <args>

commands:
  list     <source>          list entries
  describe <source>          print header, size, digest and section counts
  hash     <source>          print the module digest
  extract  [-dir d] <source> extract entries below a directory
  push     <file> <repo>     upload a file to an OCI repository as a blob
  abi      [-conv c]         print the sysv or win64 descriptor

A source is a local path, an http(s) URL, or an OCI digest reference such as
registry.example.com/jdk/java.base@sha256:...
`

type globalFlags struct {
	verbose   bool
	plainHTTP bool
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "list":
		err = runList(ctx, args, os.Stdout)
	case "describe":
		err = runDescribe(ctx, args, os.Stdout)
	case "hash":
		err = runHash(ctx, args, os.Stdout)
	case "extract":
		err = runExtract(ctx, args)
	case "push":
		err = runPush(ctx, args, os.Stdout)
	case "abi":
		err = runABI(args, os.Stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("jmod %s: %v", cmd, err)
	}
}

func newFlagSet(name string, g *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.BoolVar(&g.verbose, "v", false, "enable debug logging")
	fs.BoolVar(&g.plainHTTP, "plain-http", false, "use plain HTTP for OCI registries")
	return fs
}

func (g *globalFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (g *globalFlags) registryClient() *registry.Client {
	return registry.New(
		registry.WithPlainHTTP(g.plainHTTP),
		registry.WithDockerConfig(),
		registry.WithLogger(g.logger()),
	)
}

// openArchive opens a local path, an http(s) URL or an OCI digest
// reference. An existing local file wins over a reference of the same name.
func openArchive(ctx context.Context, target string, g *globalFlags) (*jmod.Archive, error) {
	logger := g.logger()
	switch {
	case strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://"):
		src, err := jmodhttp.NewSource(ctx, target)
		if err != nil {
			return nil, err
		}
		return jmod.OpenSource(cache.NewBlockSource(src), target, jmod.WithLogger(logger))
	case registry.IsDigestReference(target) && !fileExists(target):
		return g.registryClient().Open(ctx, target, jmod.WithLogger(logger))
	default:
		return jmod.Open(target, jmod.WithLogger(logger))
	}
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func parseArgs(fs *flag.FlagSet, args []string, n int) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, fs.NArg())
	}
	return nil
}

// parseSections parses a comma-separated list of section directories.
// An empty list selects nothing, which Extract treats as every section.
func parseSections(list string) ([]jmod.Section, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []jmod.Section
	for _, name := range strings.Split(list, ",") {
		s, err := jmod.SectionForDir(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("list", &g)
	long := fs.Bool("l", false, "show sizes and sections")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	a, err := openArchive(ctx, fs.Arg(0), &g)
	if err != nil {
		return err
	}
	defer a.Close()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for e, err := range a.Entries() {
		if err != nil {
			return err
		}
		if *long {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Section().Dir(), e.Size(), e.Name())
			continue
		}
		fmt.Fprintln(tw, e.Path())
	}
	return tw.Flush()
}

func runDescribe(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("describe", &g)
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	a, err := openArchive(ctx, fs.Arg(0), &g)
	if err != nil {
		return err
	}
	defer a.Close()

	counts := make(map[jmod.Section]int)
	sizes := make(map[jmod.Section]uint64)
	for e, err := range a.Entries() {
		if err != nil {
			return err
		}
		counts[e.Section()]++
		sizes[e.Section()] += e.Size()
	}

	desc, err := a.Descriptor()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "name:\t%s\n", a.Name())
	fmt.Fprintf(tw, "version:\t%s\n", a.Version())
	fmt.Fprintf(tw, "size:\t%d\n", desc.Size)
	fmt.Fprintf(tw, "digest:\t%s\n", desc.Digest)
	fmt.Fprintf(tw, "entries:\t%d\n", a.Len())
	for _, s := range jmod.Sections() {
		if counts[s] == 0 {
			continue
		}
		fmt.Fprintf(tw, "  %s/\t%d entries\t%d bytes\n", s.Dir(), counts[s], sizes[s])
	}
	return tw.Flush()
}

func runHash(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("hash", &g)
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	a, err := openArchive(ctx, fs.Arg(0), &g)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Digest()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, d)
	return err
}

func runExtract(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("extract", &g)
	dir := fs.String("dir", ".", "destination directory")
	overwrite := fs.Bool("overwrite", false, "replace existing files")
	workers := fs.Int("workers", 0, "concurrent writers (0 = GOMAXPROCS)")
	sectionList := fs.String("sections", "", "comma-separated section directories to extract (default all)")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}

	sections, err := parseSections(*sectionList)
	if err != nil {
		return err
	}
	opts := []jmod.ExtractOption{
		jmod.ExtractOverwrite(*overwrite),
		jmod.ExtractPreserveMode(true),
		jmod.ExtractWorkers(*workers),
		jmod.ExtractLogger(g.logger()),
	}
	if len(sections) > 0 {
		opts = append(opts, jmod.ExtractSections(sections...))
	}

	a, err := openArchive(ctx, fs.Arg(0), &g)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	return jmod.Extract(ctx, a, *dir, opts...)
}

func runPush(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("push", &g)
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	path, repoRef := fs.Arg(0), fs.Arg(1)

	a, err := jmod.Open(path, jmod.WithLogger(g.logger()))
	if err != nil {
		return err
	}
	defer a.Close()

	desc, err := g.registryClient().Push(ctx, repoRef, a)
	if err != nil {
		return err
	}
	ref, err := registry.DigestReference(repoRef, desc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, ref)
	return err
}

func runABI(args []string, out io.Writer) error {
	var g globalFlags
	fs := newFlagSet("abi", &g)
	conv := fs.String("conv", "sysv", "calling convention: sysv or win64")
	dump := fs.Bool("dump", false, "dump the raw descriptor")
	if err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	tab := x64.NewTable()
	var d *abi.Descriptor
	switch *conv {
	case "sysv":
		d = x64.SysV(tab)
	case "win64":
		d = x64.Win64(tab)
	default:
		return fmt.Errorf("unknown convention %q", *conv)
	}

	if *dump {
		spew.Fdump(out, d)
		return nil
	}
	return printDescriptor(out, d, tab)
}

func printDescriptor(w io.Writer, d *abi.Descriptor, tab *x64.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range []abi.StorageClass{abi.ClassInteger, abi.ClassVector, abi.ClassX87} {
		fmt.Fprintf(tw, "%s (%d bytes)\n", c, tab.TypeSize(c))
		fmt.Fprintf(tw, "  inputs:\t%s\n", joinNames(d.Inputs(c)))
		fmt.Fprintf(tw, "  outputs:\t%s\n", joinNames(d.Outputs(c)))
		fmt.Fprintf(tw, "  volatile:\t%s\n", joinNames(d.Volatile(c)))
	}
	fmt.Fprintf(tw, "stack alignment:\t%d\n", d.StackAlignment())
	fmt.Fprintf(tw, "shadow space:\t%d\n", d.ShadowSpace())
	fmt.Fprintf(tw, "usable vector registers:\t%d\n", tab.UsableVectorRegisters())
	return tw.Flush()
}

func joinNames(ss []*abi.Storage) string {
	if len(ss) == 0 {
		return "-"
	}
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.Name()
	}
	return strings.Join(names, " ")
}
