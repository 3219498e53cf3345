// Command papers manages a repository of reference documents and notes.
// Every paper is one Markdown note file with YAML front matter; the
// repository directory itself is the index.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/jholt/papers/internal"
	"github.com/jholt/papers/internal/apperr"
	"github.com/jholt/papers/internal/export"
	"github.com/jholt/papers/internal/fetch"
	"github.com/jholt/papers/internal/mcpserver"
	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/pdfmeta"
	"github.com/jholt/papers/internal/picker"
	"github.com/jholt/papers/internal/reconcile"
	"github.com/jholt/papers/internal/repo"
	pkgconfig "github.com/jholt/papers/pkg/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "papers",
		Usage: "Manage reference documents and notes in a flat-file repository",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "~/.config/papers/config.yaml",
				Sources:     cli.EnvVars("PAPERS_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "Repository directory (overrides the configured default)",
				Sources: cli.EnvVars("PAPERS_REPO"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			initCmd(),
			addCmd(),
			fetchCmd(),
			listCmd(),
			showCmd(),
			updateCmd(),
			removeCmd(),
			editCmd(),
			openCmd(),
			reviewCmd(),
			tagsCmd(),
			labelsCmd(),
			authorsCmd(),
			renameFilesCmd(),
			doctorCmd(),
			importCmd(),
			exportCmd(),
			serveCmd(),
			mcpCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig resolves the config file path and loads it over the defaults.
// A missing file is fine; the defaults must stand on their own.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path := cmd.String("config")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, ".config", "papers", "config.yaml")
	}
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// setup loads the config, installs the CLI logger, and binds the store.
func setup(cmd *cli.Command) (*internal.Config, *repo.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	installLogger(cmd, cfg)

	root := cmd.String("repo")
	if root == "" {
		root = cfg.Repo.Default
	}
	st, err := repo.Load(root)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// installLogger sets a text handler on stderr so command output on stdout
// stays clean for piping.
func installLogger(cmd *cli.Command, cfg *internal.Config) {
	level := cfg.App.LogLevel
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveNote finds a paper by its note path, tolerating a missing .md
// extension.
func resolveNote(st *repo.Store, arg string) (*repo.LoadedPaper, error) {
	lp, err := st.GetPaper(arg)
	if err != nil && errors.Is(err, apperr.ErrNotFound) && filepath.Ext(arg) != ".md" {
		if lp2, err2 := st.GetPaper(arg + ".md"); err2 == nil {
			return lp2, nil
		}
	}
	return lp, err
}

func warnSkipped(skipped []repo.Skipped) {
	for _, sk := range skipped {
		slog.Warn("skipping unreadable note", slog.String("path", sk.Path), slog.String("error", sk.Err.Error()))
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create a repository directory",
		ArgsUsage: "[DIR]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			installLogger(cmd, cfg)
			dir := cmd.Args().First()
			if dir == "" {
				dir = cmd.String("repo")
			}
			if dir == "" {
				dir = cfg.Repo.Default
			}
			st, err := repo.Init(dir)
			if err != nil {
				return err
			}
			fmt.Printf("Initialized papers repository at %s\n", st.Root())
			return nil
		},
	}
}

// metaFlags are shared by add and fetch.
func metaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Paper title (derived from PDF metadata when omitted)"},
		&cli.StringSliceFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author name (repeatable)"},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag (repeatable)"},
		&cli.StringSliceFlag{Name: "label", Aliases: []string{"l"}, Usage: "key=value label (repeatable)"},
	}
}

// addPaper creates the record, merging config defaults and seeding the
// configured notes template.
func addPaper(cfg *internal.Config, st *repo.Store, file, url, title string, authors, tags, rawLabels []string) (*paper.Meta, error) {
	labels := make(map[string]any)
	for k, v := range cfg.Repo.DefaultLabels {
		labels[k] = v
	}
	for _, raw := range rawLabels {
		k, v, err := paper.ParseLabel(raw)
		if err != nil {
			return nil, err
		}
		labels[k] = v
	}
	tags = append(append([]string{}, cfg.Repo.DefaultTags...), tags...)

	// Fall back to embedded PDF metadata for anything not given explicitly.
	if file != "" && (title == "" || len(authors) == 0) {
		pdfTitle, pdfAuthors := pdfmeta.Extract(file)
		if title == "" {
			title = pdfTitle
		}
		if len(authors) == 0 {
			authors = pdfAuthors
		}
	}
	if title == "" {
		return nil, fmt.Errorf("a title is required (give --title or a PDF with embedded metadata)")
	}

	m, err := st.Add(file, url, title, authors, tags, labels)
	if err != nil {
		return nil, err
	}
	tmpl, err := cfg.Repo.Template()
	if err != nil {
		return nil, err
	}
	if tmpl != "" {
		if err := st.WritePaper(m.Path(), m, tmpl); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a paper, optionally attached to a local document file",
		ArgsUsage: "[FILE]",
		Flags: append(metaFlags(),
			&cli.StringFlag{Name: "url", Usage: "Source URL to record"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, st, err := setup(cmd)
			if err != nil {
				return err
			}
			m, err := addPaper(cfg, st, cmd.Args().First(), cmd.String("url"),
				cmd.String("title"), cmd.StringSlice("author"), cmd.StringSlice("tag"), cmd.StringSlice("label"))
			if err != nil {
				return err
			}
			fmt.Printf("Added %s\n", m.Path())
			return nil
		},
	}
}

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download a document into the repository and add it as a paper",
		ArgsUsage: "URL [NAME]",
		Flags:     metaFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, st, err := setup(cmd)
			if err != nil {
				return err
			}
			rawURL := cmd.Args().First()
			if rawURL == "" {
				return fmt.Errorf("a URL is required")
			}
			name := cmd.Args().Get(1)
			if name == "" {
				name, err = fetch.DefaultName(rawURL)
				if err != nil {
					return err
				}
			}
			dest := st.Abs(name)
			contentType, err := fetch.Download(ctx, rawURL, dest)
			if err != nil {
				return err
			}
			if !strings.Contains(contentType, "pdf") {
				slog.Warn("downloaded file does not look like a PDF", slog.String("content_type", contentType))
			}
			m, err := addPaper(cfg, st, dest, rawURL,
				cmd.String("title"), cmd.StringSlice("author"), cmd.StringSlice("tag"), cmd.StringSlice("label"))
			if err != nil {
				return err
			}
			fmt.Printf("Fetched %s\nAdded %s\n", name, m.Path())
			return nil
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Usage: "Substring match on the document file name"},
		&cli.StringFlag{Name: "title", Usage: "Substring match on the title"},
		&cli.StringSliceFlag{Name: "author", Aliases: []string{"a"}, Usage: "Require this author (repeatable)"},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Require this tag (repeatable)"},
		&cli.StringSliceFlag{Name: "label", Aliases: []string{"l"}, Usage: "Require this key=value label (repeatable)"},
	}
}

func filterFromFlags(cmd *cli.Command) (repo.Filter, error) {
	f := repo.Filter{
		File:    cmd.String("file"),
		Title:   cmd.String("title"),
		Authors: cmd.StringSlice("author"),
		Tags:    cmd.StringSlice("tag"),
	}
	for _, raw := range cmd.StringSlice("label") {
		k, v, err := paper.ParseLabel(raw)
		if err != nil {
			return repo.Filter{}, err
		}
		if f.Labels == nil {
			f.Labels = make(map[string]any)
		}
		f.Labels[k] = v
	}
	return f, nil
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List papers matching every given filter",
		Flags: append(filterFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "table", Usage: "Output style: table, json or yaml"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			f, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			papers, skipped := st.List(f)
			warnSkipped(skipped)
			sort.Slice(papers, func(i, j int) bool { return papers[i].Path < papers[j].Path })
			return renderPapers(os.Stdout, cmd.String("output"), papers)
		},
	}
}

// renderPapers prints papers in the requested style. The json and yaml
// styles carry the metadata records, the same shape import/export uses.
func renderPapers(w io.Writer, style string, papers []repo.LoadedPaper) error {
	switch style {
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tTITLE\tFILE\tTAGS\tAUTHORS\tNEXT REVIEW")
		for _, lp := range papers {
			next := ""
			if lp.Meta.NextReview != nil {
				next = lp.Meta.NextReview.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				lp.Path, lp.Meta.Title, lp.Meta.Document(),
				strings.Join(lp.Meta.Tags, ","), strings.Join(lp.Meta.Authors, ","), next)
		}
		return tw.Flush()
	case "json":
		metas := make([]paper.Meta, len(papers))
		for i, lp := range papers {
			metas[i] = lp.Meta
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	case "yaml":
		metas := make([]paper.Meta, len(papers))
		for i, lp := range papers {
			metas[i] = lp.Meta
		}
		return yaml.NewEncoder(w).Encode(metas)
	default:
		return fmt.Errorf("unknown output style %q", style)
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one paper's note, metadata and all",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "note", Usage: "Output style: note, json or yaml"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			lp, err := resolveNote(st, cmd.Args().First())
			if err != nil {
				return err
			}
			switch cmd.String("output") {
			case "note":
				data, err := paper.MarshalNote(&lp.Meta, lp.Notes)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(lp.Meta)
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(lp.Meta)
			default:
				return fmt.Errorf("unknown output style %q", cmd.String("output"))
			}
		},
	}
}

func updateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a paper's document file or source URL",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "New document file (empty detaches the current one)"},
			&cli.StringFlag{Name: "url", Usage: "New source URL (empty clears it)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			lp, err := resolveNote(st, cmd.Args().First())
			if err != nil {
				return err
			}
			if !cmd.IsSet("file") && !cmd.IsSet("url") {
				return fmt.Errorf("nothing to update: give --file or --url")
			}
			if cmd.IsSet("file") {
				if err := st.Update(lp, cmd.String("file")); err != nil {
					return err
				}
			}
			if cmd.IsSet("url") {
				current, err := st.GetPaper(lp.Path)
				if err != nil {
					return err
				}
				current.Meta.SetSourceURL(cmd.String("url"))
				if err := st.WritePaper(current.Path, &current.Meta, current.Notes); err != nil {
					return err
				}
			}
			fmt.Printf("Updated %s\n", lp.Path)
			return nil
		},
	}
}

func removeCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a paper's note file",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "with-file", Usage: "Also delete the attached document file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			lp, err := resolveNote(st, cmd.Args().First())
			if err != nil {
				return err
			}
			if err := st.RemoveNote(lp.Path); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", lp.Path)

			doc := lp.Meta.Document()
			if !cmd.Bool("with-file") || doc == "" {
				return nil
			}
			// A document shared with another paper must survive.
			papers, skipped := st.AllPapers()
			warnSkipped(skipped)
			for _, other := range papers {
				if filepath.Clean(other.Meta.Document()) == filepath.Clean(doc) {
					slog.Warn("document kept: another paper still references it",
						slog.String("file", doc), slog.String("paper", other.Path))
					return nil
				}
			}
			if err := st.RemoveDocument(doc); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", doc)
			return nil
		},
	}
}

func editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Open a paper's note in $EDITOR",
		ArgsUsage: "PATH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			lp, err := resolveNote(st, cmd.Args().First())
			if err != nil {
				return err
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			edit := exec.Command(editor, st.Abs(lp.Path))
			edit.Stdin = os.Stdin
			edit.Stdout = os.Stdout
			edit.Stderr = os.Stderr
			if err := edit.Run(); err != nil {
				return fmt.Errorf("editor: %w", err)
			}
			// Re-read to validate the edit and stamp modified_at.
			edited, err := st.GetPaper(lp.Path)
			if err != nil {
				return fmt.Errorf("note is no longer readable after editing: %w", err)
			}
			if err := edited.Meta.Validate(); err != nil {
				return fmt.Errorf("note is invalid after editing: %w", err)
			}
			return st.WritePaper(edited.Path, &edited.Meta, edited.Notes)
		},
	}
}

func openCmd() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a paper's document file with the system opener",
		ArgsUsage: "PATH",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			lp, err := resolveNote(st, cmd.Args().First())
			if err != nil {
				return err
			}
			doc := lp.Meta.Document()
			if doc == "" {
				return fmt.Errorf("%s has no document file attached", lp.Path)
			}
			return openWithSystem(st.Abs(doc))
		},
	}
}

func openWithSystem(abs string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", abs)
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", abs)
	default:
		c = exec.Command("xdg-open", abs)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("open %s: %w", abs, err)
	}
	return nil
}

func reviewCmd() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review papers that are due and reschedule them",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Usage: "Only list the papers due for review"},
			&cli.BoolFlag{Name: "all", Usage: "Review every due paper instead of picking one"},
			&cli.BoolFlag{Name: "open", Usage: "Open each reviewed paper's document file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}

			if path := cmd.Args().First(); path != "" {
				lp, err := resolveNote(st, path)
				if err != nil {
					return err
				}
				return reviewOne(st, lp, cmd.Bool("open"))
			}

			papers, skipped := st.AllPapers()
			warnSkipped(skipped)
			now := time.Now().UTC()
			var due []repo.LoadedPaper
			for _, lp := range papers {
				if lp.Meta.IsReviewable(now) {
					due = append(due, lp)
				}
			}
			sort.Slice(due, func(i, j int) bool { return due[i].Path < due[j].Path })

			if cmd.Bool("list") {
				return renderPapers(os.Stdout, "table", due)
			}
			if len(due) == 0 {
				fmt.Println("Nothing is due for review.")
				return nil
			}

			var sel picker.Selector = picker.First{}
			if cmd.Bool("all") {
				for _, lp := range sel.PickMany(due) {
					if err := reviewOne(st, &lp, cmd.Bool("open")); err != nil {
						return err
					}
				}
				return nil
			}
			lp, ok := sel.Pick(due)
			if !ok {
				return nil
			}
			return reviewOne(st, lp, cmd.Bool("open"))
		},
	}
}

// reviewOne prints the note, records the review, and reschedules.
func reviewOne(st *repo.Store, lp *repo.LoadedPaper, openDoc bool) error {
	data, err := paper.MarshalNote(&lp.Meta, lp.Notes)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}
	if openDoc {
		if doc := lp.Meta.Document(); doc != "" {
			if err := openWithSystem(st.Abs(doc)); err != nil {
				slog.Warn("could not open document", slog.String("error", err.Error()))
			}
		}
	}
	lp.Meta.UpdateReview(paper.Now())
	if err := st.WritePaper(lp.Path, &lp.Meta, lp.Notes); err != nil {
		return err
	}
	fmt.Printf("Reviewed %s, next review %s\n", lp.Path, lp.Meta.NextReview.Format("2006-01-02"))
	return nil
}

func tagsCmd() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Manage and inspect tags",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add tags to a paper",
				ArgsUsage: "PATH TAG...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					return st.AddTags(path, args...)
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove tags from a paper",
				ArgsUsage: "PATH TAG...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					return st.RemoveTags(path, args...)
				}),
			},
			statsSubcommand("Count papers per tag", func(m *paper.Meta) []string {
				return m.Tags
			}),
		},
	}
}

func authorsCmd() *cli.Command {
	return &cli.Command{
		Name:  "authors",
		Usage: "Manage and inspect authors",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add authors to a paper",
				ArgsUsage: "PATH AUTHOR...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					return st.AddAuthors(path, args...)
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove authors from a paper",
				ArgsUsage: "PATH AUTHOR...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					return st.RemoveAuthors(path, args...)
				}),
			},
			statsSubcommand("Count papers per author", func(m *paper.Meta) []string {
				return m.Authors
			}),
		},
	}
}

func labelsCmd() *cli.Command {
	return &cli.Command{
		Name:  "labels",
		Usage: "Manage and inspect key=value labels",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Set labels on a paper",
				ArgsUsage: "PATH KEY=VALUE...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					labels := make(map[string]any)
					for _, raw := range args {
						k, v, err := paper.ParseLabel(raw)
						if err != nil {
							return err
						}
						labels[k] = v
					}
					return st.AddLabels(path, labels)
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove labels from a paper by key",
				ArgsUsage: "PATH KEY...",
				Action: mutateAction(func(st *repo.Store, path string, args []string) error {
					return st.RemoveLabels(path, args...)
				}),
			},
			statsSubcommand("Count papers per key=value label", func(m *paper.Meta) []string {
				out := make([]string, 0, len(m.Labels))
				for k, v := range m.Labels {
					out = append(out, k+"="+paper.FormatValue(v))
				}
				return out
			}),
		},
	}
}

// mutateAction adapts a store mutation taking a note path and trailing
// arguments into a CLI action.
func mutateAction(fn func(st *repo.Store, path string, args []string) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		_, st, err := setup(cmd)
		if err != nil {
			return err
		}
		args := cmd.Args().Slice()
		if len(args) < 2 {
			return fmt.Errorf("a note path and at least one value are required")
		}
		lp, err := resolveNote(st, args[0])
		if err != nil {
			return err
		}
		if err := fn(st, lp.Path, args[1:]); err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", lp.Path)
		return nil
	}
}

// statsSubcommand builds a "stats" subcommand counting how many papers
// carry each value the extractor yields.
func statsSubcommand(usage string, extract func(*paper.Meta) []string) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			papers, skipped := st.AllPapers()
			warnSkipped(skipped)
			counts := make(map[string]int)
			for _, lp := range papers {
				for _, v := range extract(&lp.Meta) {
					counts[v]++
				}
			}
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			// Most used first, ties alphabetical.
			sort.Slice(keys, func(i, j int) bool {
				if counts[keys[i]] != counts[keys[j]] {
					return counts[keys[i]] > counts[keys[j]]
				}
				return keys[i] < keys[j]
			})
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%d\n", k, counts[k])
			}
			return tw.Flush()
		},
	}
}

func renameFilesCmd() *cli.Command {
	return &cli.Command{
		Name:      "rename-files",
		Usage:     "Rename note and document files to match paper metadata",
		ArgsUsage: "[STRATEGY]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report the moves without executing them"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			name := cmd.Args().First()
			if name == "" {
				name = string(reconcile.StrategyTitle)
			}
			strategy, err := reconcile.ParseStrategy(name)
			if err != nil {
				return err
			}
			rep := reconcile.RenameFiles(st, strategy, cmd.Bool("dry-run"))
			verb := "Moved"
			if cmd.Bool("dry-run") {
				verb = "Would move"
			}
			for _, mv := range rep.Moved {
				fmt.Printf("%s %s -> %s\n", verb, mv.From, mv.To)
			}
			for _, mv := range rep.Conflicts {
				fmt.Printf("Conflict: %s -> %s already exists\n", mv.From, mv.To)
			}
			for _, f := range rep.Failures {
				slog.Warn("rename failed", slog.String("path", f.Path), slog.String("error", f.Err.Error()))
			}
			fmt.Printf("%d moved, %d already in place, %d conflicts, %d failures\n",
				len(rep.Moved), len(rep.NoOps), len(rep.Conflicts), len(rep.Failures))
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Detect drift between metadata, note files and document files",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fix", Usage: "Move mis-placed note files to their derived paths"},
			&cli.BoolFlag{Name: "watch", Usage: "Keep running and re-check on repository changes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Bool("watch") {
				return reconcile.Watch(ctx, st, slog.Default(), func(rep *reconcile.DoctorReport) {
					printDoctorReport(rep)
				})
			}
			rep, err := reconcile.Doctor(st, cmd.Bool("fix"))
			if err != nil {
				return err
			}
			printDoctorReport(rep)
			if !rep.Clean() {
				return cli.Exit("repository has issues", 1)
			}
			fmt.Println("Repository is clean.")
			return nil
		},
	}
}

func printDoctorReport(rep *reconcile.DoctorReport) {
	for _, mm := range rep.Mismatches {
		if mm.Fixed {
			fmt.Printf("Fixed: moved %s to %s\n", mm.NotePath, mm.Expected)
		} else {
			fmt.Printf("Misplaced note: %s should be %s\n", mm.NotePath, mm.Expected)
		}
	}
	for _, md := range rep.MissingDocs {
		fmt.Printf("Missing document: %s references %s\n", md.NotePath, md.Filename)
	}
	for _, orphan := range rep.Orphans {
		fmt.Printf("Orphan file: %s\n", orphan)
	}
	for _, f := range rep.ParseFailures {
		fmt.Printf("Unreadable note: %s (%v)\n", f.Path, f.Err)
	}
}

func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a JSON array of paper metadata, one record at a time",
		ArgsUsage: "[FILE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			var r io.Reader = os.Stdin
			if path := cmd.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			added, failures, err := export.Read(st, r)
			if err != nil {
				return err
			}
			for _, f := range failures {
				slog.Warn("record not imported", slog.String("title", f.Title), slog.String("error", f.Err.Error()))
			}
			fmt.Printf("Imported %d paper(s), %d failure(s)\n", added, len(failures))
			return nil
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export all paper metadata as a JSON array",
		ArgsUsage: "[FILE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			papers, skipped := st.AllPapers()
			warnSkipped(skipped)
			sort.Slice(papers, func(i, j int) bool { return papers[i].Path < papers[j].Path })

			var w io.Writer = os.Stdout
			if path := cmd.Args().First(); path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return export.Write(w, papers)
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the read-only HTTP browse server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := []internal.Option{internal.WithConfig(cfg)}
			if root := cmd.String("repo"); root != "" {
				opts = append(opts, internal.WithRepoRoot(root))
			}
			return internal.Serve(ctx, opts...)
		},
	}
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, st, err := setup(cmd)
			if err != nil {
				return err
			}
			return mcpserver.New(st).ServeStdio()
		},
	}
}
