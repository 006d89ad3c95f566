package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AneeshPatel/MusicVec/internal/catalog"
	"github.com/AneeshPatel/MusicVec/internal/config"
	"github.com/AneeshPatel/MusicVec/internal/corpus"
	"github.com/AneeshPatel/MusicVec/internal/model"
	"github.com/AneeshPatel/MusicVec/internal/query"
	"github.com/AneeshPatel/MusicVec/internal/tui"
	"github.com/AneeshPatel/MusicVec/internal/word2vec"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "train":
			return runTrain(os.Args[2:])
		case "update":
			return runUpdate(os.Args[2:])
		case "similar":
			return runSimilar(os.Args[2:])
		case "similarity":
			return runSimilarity(os.Args[2:])
		case "analogy":
			return runAnalogy(os.Args[2:])
		case "odd-one-out":
			return runOddOneOut(os.Args[2:])
		case "playlist":
			return runPlaylist(os.Args[2:])
		case "catalog":
			return runCatalog(os.Args[2:])
		case "search":
			if len(os.Args) < 3 {
				return fmt.Errorf("usage: musicvec search \"query\"")
			}
			return runSearch(strings.Join(os.Args[2:], " "))
		case "export":
			return runExport(os.Args[2:])
		case "info":
			return runInfo(os.Args[2:])
		case "tui":
			return runTUI(os.Args[2:])
		case "config":
			return runConfigInit()
		case "version", "-v", "--version":
			fmt.Printf("musicvec %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		case "help", "-h", "--help":
			printUsage()
			return nil
		default:
			return fmt.Errorf("unknown command %q: run 'musicvec help'", os.Args[1])
		}
	}

	// Default: run TUI
	return runTUI(nil)
}

func printUsage() {
	fmt.Println(`MusicVec - Artist and song embeddings from playlist co-occurrence

Usage:
  musicvec                      Start the TUI (artist model)
  musicvec train                Train a model from playlist slice files
  musicvec update               Continue training a model on new slices
  musicvec similar "..."        Nearest neighbors of an artist or track
  musicvec similarity "a" "b"   Cosine similarity of two entities
  musicvec analogy              Vector arithmetic (a - b + c)
  musicvec odd-one-out ...      Which entity does not belong
  musicvec playlist "..." ...   Suggest tracks extending a seed list
  musicvec catalog import       Build the track catalog from slice files
  musicvec catalog info         Show catalog statistics
  musicvec search "..."         Search the track catalog
  musicvec export "..."         Export query results (--format json|csv|markdown)
  musicvec info                 Show model metadata
  musicvec tui                  Start the TUI
  musicvec config               Initialize config file
  musicvec version              Show version info
  musicvec help                 Show this help

Common options:
  -model string                 Which model to use: artist or song (default artist)
  -data string                  Playlist slice directory (overrides config)
  -n int                        Number of results

Examples:
  musicvec train -model artist -data ~/mpd/data
  musicvec train -model song -epochs 10
  musicvec update -model song -watch
  musicvec similar "Eminem"
  musicvec similar -model song "thriller"
  musicvec analogy -positive "Drake,Rihanna" -negative "Eminem"
  musicvec playlist -model song "thriller" "beat it"
  musicvec export "Eminem" -format csv -output similar.csv`)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// modelFeature maps a model name to the corpus feature it trains on and the
// token kind it carries.
func modelFeature(name string) (corpus.Feature, corpus.TokenKind, error) {
	switch name {
	case "artist":
		return corpus.FeatureArtistName, corpus.KindName, nil
	case "song":
		return corpus.FeatureTrackURI, corpus.KindID, nil
	}
	return "", "", fmt.Errorf("unknown model %q: use artist or song", name)
}

func modelPath(cfg *config.Config, name string) (string, error) {
	if name == "song" {
		return cfg.SongModelPath()
	}
	return cfg.ArtistModelPath()
}

// openOrchestrator loads a model artifact and wires the catalog behind it
// when the model is keyed by track URIs. The returned cleanup closes
// whatever was opened.
func openOrchestrator(cfg *config.Config, name string) (*query.Orchestrator, func(), error) {
	_, kind, err := modelFeature(name)
	if err != nil {
		return nil, nil, err
	}

	path, err := modelPath(cfg, name)
	if err != nil {
		return nil, nil, err
	}
	m, err := model.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s model (run 'musicvec train -model %s' first?): %w", name, name, err)
	}
	if m.Kind() != kind {
		return nil, nil, fmt.Errorf("artifact %s holds a %s-keyed model, expected %s", path, m.Kind(), kind)
	}

	if !m.NeedsResolution() {
		orch, err := query.New(m, nil, cfg.Query.MaxCandidates)
		return orch, func() {}, err
	}

	service, cleanup, err := openCatalogService(cfg)
	if err != nil {
		return nil, nil, err
	}
	orch, err := query.New(m, service, cfg.Query.MaxCandidates)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return orch, cleanup, nil
}

// openCatalogService opens the store, the search index, and the describe
// cache around them.
func openCatalogService(cfg *config.Config) (catalog.Service, func(), error) {
	dbPath, err := cfg.CatalogDatabasePath()
	if err != nil {
		return nil, nil, err
	}
	store, err := catalog.OpenStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}

	indexPath, err := cfg.CatalogIndexPath()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	index, err := catalog.NewIndex(indexPath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening catalog index: %w", err)
	}

	cachePath, err := cfg.CatalogCachePath()
	if err != nil {
		index.Close()
		store.Close()
		return nil, nil, err
	}
	cached, err := catalog.NewCachedService(catalog.NewResolver(store, index), cachePath)
	if err != nil {
		index.Close()
		store.Close()
		return nil, nil, fmt.Errorf("opening describe cache: %w", err)
	}

	cleanup := func() {
		cached.Close()
		index.Close()
		store.Close()
	}
	return cached, cleanup, nil
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to train: artist or song")
	data := fs.String("data", "", "Playlist slice directory (overrides config)")
	out := fs.String("out", "", "Artifact output path (overrides config)")
	dims := fs.Int("dims", 0, "Embedding dimensions (overrides config)")
	epochs := fs.Int("epochs", 0, "Training epochs (overrides config)")
	workers := fs.Int("workers", 0, "Training workers (overrides config)")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	feature, kind, err := modelFeature(*modelName)
	if err != nil {
		return err
	}

	dataDir := cfg.Corpus.Path
	if *data != "" {
		dataDir = *data
	}
	src, err := corpus.NewDirSource(dataDir, feature)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}

	engine := cfg.Training.Engine()
	if *dims > 0 {
		engine.Dimensions = *dims
	}
	if *epochs > 0 {
		engine.EpochCount = *epochs
	}
	if *workers > 0 {
		engine.WorkerCount = *workers
	}

	fmt.Printf("Training %s model from %s...\n", *modelName, dataDir)
	ctx := context.Background()
	m, err := model.Train(ctx, kind, src, engine, consoleProgress)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	path := *out
	if path == "" {
		path, err = modelPath(cfg, *modelName)
		if err != nil {
			return err
		}
	}
	if err := m.Save(path); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	meta := m.Meta()
	fmt.Printf("\nTraining complete:\n")
	fmt.Printf("  Vocabulary:    %d tokens\n", m.Len())
	fmt.Printf("  Sequences:     %d\n", meta.SequenceCount)
	fmt.Printf("  Dimensions:    %d\n", meta.Dimensions)
	fmt.Printf("  Artifact:      %s\n", path)
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to update: artist or song")
	data := fs.String("data", "", "Playlist slice directory (overrides config)")
	watch := fs.Bool("watch", false, "Keep watching the directory for new slices")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	feature, kind, err := modelFeature(*modelName)
	if err != nil {
		return err
	}

	path, err := modelPath(cfg, *modelName)
	if err != nil {
		return err
	}
	m, err := model.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s model: %w", *modelName, err)
	}
	if m.Kind() != kind {
		return fmt.Errorf("artifact %s holds a %s-keyed model, expected %s", path, m.Kind(), kind)
	}

	dataDir := cfg.Corpus.Path
	if *data != "" {
		dataDir = *data
	}

	if !*watch {
		src, err := corpus.NewDirSource(dataDir, feature)
		if err != nil {
			return fmt.Errorf("opening corpus: %w", err)
		}
		added, err := m.Update(context.Background(), src, consoleProgress)
		if err != nil {
			return fmt.Errorf("updating: %w", err)
		}
		if err := m.Save(path); err != nil {
			return fmt.Errorf("saving model: %w", err)
		}
		fmt.Printf("Update complete: %d new tokens, vocabulary now %d\n", added, m.Len())
		return nil
	}

	return watchAndUpdate(m, path, dataDir, feature)
}

// watchAndUpdate keeps the model current as slice files land in the corpus
// directory. Each settled batch becomes one incremental update.
func watchAndUpdate(m *model.Model, path, dataDir string, feature corpus.Feature) error {
	watcher, err := corpus.NewWatcher(dataDir, func(ctx context.Context, paths []string) error {
		src, err := corpus.NewFileSource(paths, feature)
		if err != nil {
			return err
		}
		added, err := m.Update(ctx, src, nil)
		if err != nil {
			return err
		}
		if err := m.Save(path); err != nil {
			return err
		}
		fmt.Printf("Updated from %d slice files: %d new tokens, vocabulary now %d\n",
			len(paths), added, m.Len())
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	fmt.Printf("Watching %s for new slices (Ctrl+C to stop)...\n", dataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping watcher...")
		cancel()
	}()

	return watcher.Start(ctx)
}

// resolveToken runs the resolution protocol on the command line: resolve
// free text, and when the catalog offers several candidates, prompt on
// stdin for a pick. Returns ok=false on a no-match or an abort.
func resolveToken(ctx context.Context, orch *query.Orchestrator, text string, in *bufio.Reader, out io.Writer) (string, bool, error) {
	sess, err := orch.Resolve(ctx, text)
	if err != nil {
		return "", false, err
	}

	switch sess.State() {
	case query.StateResolved:
		token, err := sess.Token()
		return token, true, err

	case query.StateNoMatch:
		fmt.Fprintf(out, "No match for %q.\n", sess.Query())
		return "", false, nil
	}

	fmt.Fprintf(out, "Which one did you mean by %q?\n", sess.Query())
	for i, c := range sess.Candidates() {
		line := c.Entry.Display()
		if c.Entry.Album != "" {
			line += " (" + c.Entry.Album + ")"
		}
		fmt.Fprintf(out, "  %2d. %s\n", i+1, line)
	}
	fmt.Fprint(out, "Number (empty to abort): ")

	answer, err := in.ReadString('\n')
	if err != nil && answer == "" {
		sess.Abort()
		return "", false, nil
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		sess.Abort()
		fmt.Fprintln(out, "Aborted.")
		return "", false, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil {
		sess.Abort()
		return "", false, fmt.Errorf("not a number: %q", answer)
	}
	if err := sess.Select(n - 1); err != nil {
		return "", false, err
	}
	token, err := sess.Token()
	return token, true, err
}

func printRows(rows query.Rows) {
	for i, row := range rows {
		marker := ""
		if row.Unresolved {
			marker = " (unresolved)"
		}
		fmt.Printf("%2d. %.4f  %s%s\n", i+1, row.Score, row.Display, marker)
	}
}

func runSimilar(args []string) error {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	topN := fs.Int("n", 0, "Number of results (overrides config)")
	fs.Parse(args)

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return fmt.Errorf("usage: musicvec similar [-model artist|song] \"name or track\"")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	n := cfg.Query.TopN
	if *topN > 0 {
		n = *topN
	}

	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)
	token, ok, err := resolveToken(ctx, orch, text, in, os.Stdout)
	if err != nil || !ok {
		return err
	}

	rows, err := orch.MostSimilar(ctx, token, n)
	if err != nil {
		return err
	}
	printRows(rows)
	return nil
}

func runSimilarity(args []string) error {
	fs := flag.NewFlagSet("similarity", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: musicvec similarity [-model artist|song] \"a\" \"b\"")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	tokens := make([]string, 0, 2)
	for _, text := range fs.Args() {
		token, ok, err := resolveToken(ctx, orch, text, in, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		tokens = append(tokens, token)
	}

	sim, err := orch.Similarity(ctx, tokens[0], tokens[1])
	if err != nil {
		return err
	}
	fmt.Printf("%.4f\n", sim)
	return nil
}

func runAnalogy(args []string) error {
	fs := flag.NewFlagSet("analogy", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	positive := fs.String("positive", "", "Comma-separated entities contributing positively")
	negative := fs.String("negative", "", "Comma-separated entities contributing negatively")
	topN := fs.Int("n", 0, "Number of results (overrides config)")
	fs.Parse(args)

	if *positive == "" && *negative == "" {
		return fmt.Errorf("usage: musicvec analogy -positive \"a,b\" -negative \"c\"")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	n := cfg.Query.TopN
	if *topN > 0 {
		n = *topN
	}

	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	resolveList := func(csv string) ([]string, bool, error) {
		var tokens []string
		for _, text := range strings.Split(csv, ",") {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			token, ok, err := resolveToken(ctx, orch, text, in, os.Stdout)
			if err != nil || !ok {
				return nil, ok, err
			}
			tokens = append(tokens, token)
		}
		return tokens, true, nil
	}

	pos, ok, err := resolveList(*positive)
	if err != nil || !ok {
		return err
	}
	neg, ok, err := resolveList(*negative)
	if err != nil || !ok {
		return err
	}

	rows, err := orch.Analogy(ctx, pos, neg, n)
	if err != nil {
		return err
	}
	printRows(rows)
	return nil
}

func runOddOneOut(args []string) error {
	fs := flag.NewFlagSet("odd-one-out", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	fs.Parse(args)

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: musicvec odd-one-out \"a\" \"b\" \"c\" [...]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	tokens := make([]string, 0, fs.NArg())
	for _, text := range fs.Args() {
		token, ok, err := resolveToken(ctx, orch, text, in, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		tokens = append(tokens, token)
	}

	row, err := orch.OddOneOut(ctx, tokens)
	if err != nil {
		return err
	}
	fmt.Println(row.Display)
	return nil
}

func runPlaylist(args []string) error {
	fs := flag.NewFlagSet("playlist", flag.ExitOnError)
	modelName := fs.String("model", "song", "Model to query (song models suggest tracks)")
	topN := fs.Int("n", 0, "Number of suggestions (overrides config)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: musicvec playlist \"seed track\" [\"seed track\" ...]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	n := cfg.Query.TopN
	if *topN > 0 {
		n = *topN
	}

	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)

	seeds := make([]string, 0, fs.NArg())
	for _, text := range fs.Args() {
		token, ok, err := resolveToken(ctx, orch, text, in, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		seeds = append(seeds, token)
	}

	rows, err := orch.Continue(ctx, seeds, n)
	if err != nil {
		return err
	}
	fmt.Println("Playlist continuation:")
	printRows(rows)
	return nil
}

func runCatalog(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: musicvec catalog <import|info> [args...]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch args[0] {
	case "import":
		fs := flag.NewFlagSet("catalog-import", flag.ExitOnError)
		data := fs.String("data", "", "Playlist slice directory (overrides config)")
		fs.Parse(args[1:])

		dataDir := cfg.Corpus.Path
		if *data != "" {
			dataDir = *data
		}
		src, err := corpus.NewDirSource(dataDir, corpus.FeatureTrackURI)
		if err != nil {
			return fmt.Errorf("opening corpus: %w", err)
		}

		store, index, cleanup, err := openCatalogStores(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Printf("Importing catalog from %s...\n", dataDir)
		n, err := catalog.Import(context.Background(), store, index, src)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d distinct tracks\n", n)
		return nil

	case "info":
		store, index, cleanup, err := openCatalogStores(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		tracks, err := store.Count(context.Background())
		if err != nil {
			return err
		}
		docs, err := index.Count()
		if err != nil {
			return err
		}
		fmt.Printf("Catalog:\n")
		fmt.Printf("  Tracks:         %d\n", tracks)
		fmt.Printf("  Indexed:        %d\n", docs)
		return nil
	}

	return fmt.Errorf("unknown catalog subcommand %q: use import or info", args[0])
}

func openCatalogStores(cfg *config.Config) (*catalog.Store, *catalog.Index, func(), error) {
	dbPath, err := cfg.CatalogDatabasePath()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := catalog.OpenStore(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	indexPath, err := cfg.CatalogIndexPath()
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	index, err := catalog.NewIndex(indexPath)
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("opening catalog index: %w", err)
	}
	return store, index, func() {
		index.Close()
		store.Close()
	}, nil
}

func runSearch(text string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service, cleanup, err := openCatalogService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	candidates, err := service.Search(context.Background(), text, cfg.Query.MaxCandidates)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("No match.")
		return nil
	}
	for _, c := range candidates {
		line := c.Entry.Display()
		if c.Entry.Album != "" {
			line += " (" + c.Entry.Album + ")"
		}
		fmt.Printf("%2d. %s\n    %s (score: %.2f)\n", c.Rank, line, c.URI, c.Score)
	}
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	format := fs.String("format", "json", "Output format: json, csv, markdown")
	output := fs.String("output", "", "Output file (default: stdout)")
	topN := fs.Int("n", 0, "Number of results (overrides config)")
	fs.Parse(args)

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return fmt.Errorf("usage: musicvec export \"query\" [-format json|csv|markdown] [-output file] [-n N]")
	}

	switch *format {
	case "json", "csv", "markdown":
	default:
		return fmt.Errorf("unsupported format %q: use json, csv, or markdown", *format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	n := cfg.Query.TopN
	if *topN > 0 {
		n = *topN
	}

	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	in := bufio.NewReader(os.Stdin)
	token, ok, err := resolveToken(ctx, orch, text, in, os.Stderr)
	if err != nil || !ok {
		return err
	}

	rows, err := orch.MostSimilar(ctx, token, n)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no results for %q", text)
	}

	// Determine output writer.
	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "json":
		return exportJSON(w, rows)
	case "csv":
		return exportCSV(w, rows)
	case "markdown":
		return exportMarkdown(w, text, rows)
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to inspect: artist or song")
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := modelPath(cfg, *modelName)
	if err != nil {
		return err
	}
	m, err := model.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s model: %w", *modelName, err)
	}

	meta := m.Meta()
	fmt.Printf("Model: %s\n", *modelName)
	fmt.Printf("  Token kind:    %s\n", meta.Kind)
	fmt.Printf("  Vocabulary:    %d tokens\n", m.Len())
	fmt.Printf("  Dimensions:    %d\n", meta.Dimensions)
	fmt.Printf("  Sequences:     %d\n", meta.SequenceCount)
	fmt.Printf("  Updates:       %d\n", meta.UpdateCount)
	fmt.Printf("  Trained:       %s\n", meta.TrainedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Window:        %d\n", meta.Training.WindowSize)
	fmt.Printf("  Epochs:        %d\n", meta.Training.EpochCount)
	fmt.Printf("  Algorithm:     %s\n", meta.Training.Algorithm)
	return nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	modelName := fs.String("model", "artist", "Model to query: artist or song")
	if args != nil {
		fs.Parse(args)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orch, cleanup, err := openOrchestrator(cfg, *modelName)
	if err != nil {
		return err
	}
	defer cleanup()

	title := "Artists"
	if *modelName == "song" {
		title = "Songs"
	}

	m := tui.New(orch, title, cfg.Query.TopN)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runConfigInit() error {
	cfg := config.Default()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	configPath, _ := config.ConfigPath()
	fmt.Printf("Config written to: %s\n", configPath)
	return nil
}

// consoleProgress prints per-epoch training loss.
var consoleProgress word2vec.ProgressFunc = func(epoch int, loss float32) {
	fmt.Printf("  epoch %d: loss %.4f\n", epoch, loss)
}
