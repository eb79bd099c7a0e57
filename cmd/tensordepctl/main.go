package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"tensordep/internal/feature"
	"tensordep/internal/model"
	"tensordep/internal/storage"
	"tensordep/internal/tensor"
	"tensordep/pkg/tensordep"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "observe":
		return runObserve(ctx, args[1:])
	case "route":
		return runRoute(ctx, args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	case "hash":
		return runHash(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", "", "store backend: memory|sqlite (default from config or build)"),
		dbPath: fs.String("db-path", "", "sqlite database path"),
	}
}

func (f storeFlags) apply(opts *tensordep.Options) {
	if *f.kind != "" {
		opts.StoreKind = *f.kind
	}
	if *f.dbPath != "" {
		opts.DBPath = *f.dbPath
	}
}

func (f storeFlags) open() (storage.Store, string, error) {
	kind := *f.kind
	if kind == "" {
		kind = storage.DefaultStoreKind()
	}
	dbPath := *f.dbPath
	if dbPath == "" {
		dbPath = "tensordep.db"
	}
	store, err := storage.NewStore(kind, dbPath)
	return store, kind, err
}

func loadOptions(configPath string, sf storeFlags) (tensordep.Options, error) {
	if configPath == "" {
		return tensordep.Options{}, errors.New("--config is required")
	}
	opts, err := loadOptionsFromConfig(configPath)
	if err != nil {
		return tensordep.Options{}, err
	}
	sf.apply(&opts)
	return opts, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, kind, err := sf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", kind)
	return nil
}

func runObserve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("observe", flag.ContinueOnError)
	configPath := fs.String("config", "", "client config JSON path")
	instancesPath := fs.String("instances", "", "gold instances JSON path")
	outPath := fs.String("out", "registry.lz4", "snapshot output path")
	compression := fs.String("compression", "", "snapshot compression: none|lz4|xz (default from extension)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *instancesPath == "" {
		return errors.New("observe requires --instances")
	}
	opts, err := loadOptions(*configPath, sf)
	if err != nil {
		return err
	}
	comp, err := parseCompression(*compression)
	if err != nil {
		return err
	}
	insts, err := readInstances(*instancesPath)
	if err != nil {
		return err
	}

	client, err := tensordep.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}
	if err := client.Observe(ctx, insts...); err != nil {
		return err
	}
	client.Freeze()
	if err := client.Save(ctx); err != nil {
		return err
	}
	size, err := client.Export(*outPath, comp)
	if err != nil {
		return err
	}

	space := client.Space()
	fmt.Printf("registry_id=%s topology=%s instances=%s codes=%s arc_ids=%s labeled_ids=%s\n",
		client.RegistryID(),
		client.Topology(),
		humanize.Comma(int64(len(insts))),
		humanize.Comma(int64(space.NumCodes())),
		humanize.Comma(int64(space.NumIDs(feature.ArcSpace))),
		humanize.Comma(int64(space.NumIDs(feature.LabeledSpace))),
	)
	fmt.Printf("snapshot=%s size=%s\n", *outPath, humanize.Bytes(uint64(size)))
	return nil
}

func runRoute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	configPath := fs.String("config", "", "client config JSON path")
	snapshotPath := fs.String("snapshot", "", "registry snapshot path")
	weightsPath := fs.String("weights", "", "learned weights JSON path")
	outPath := fs.String("out", "", "write the routed snapshot to this path")
	compression := fs.String("compression", "", "snapshot compression: none|lz4|xz (default from extension)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snapshotPath == "" || *weightsPath == "" {
		return errors.New("route requires --snapshot and --weights")
	}
	opts, err := loadOptions(*configPath, sf)
	if err != nil {
		return err
	}
	comp, err := parseCompression(*compression)
	if err != nil {
		return err
	}
	weights, err := readWeights(*weightsPath)
	if err != nil {
		return err
	}

	client, err := tensordep.Import(opts, *snapshotPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	res, err := client.Route(ctx, weights)
	if err != nil {
		return err
	}

	r := res.Run
	fmt.Printf("run_id=%s tensor_id=%s topology=%s codes=%s written=%s pruned=%s skipped=%s entries=%s\n",
		r.RunID, r.TensorID, r.Topology,
		humanize.Comma(int64(r.Codes)),
		humanize.Comma(int64(r.Written)),
		humanize.Comma(int64(r.Pruned)),
		humanize.Comma(int64(r.Skipped)),
		humanize.Comma(int64(res.Tensor.Len())),
	)
	if *outPath != "" {
		size, err := client.Export(*outPath, comp)
		if err != nil {
			return err
		}
		fmt.Printf("snapshot=%s size=%s\n", *outPath, humanize.Bytes(uint64(size)))
	}
	return nil
}

func runInspect(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	configPath := fs.String("config", "", "client config JSON path")
	snapshotPath := fs.String("snapshot", "", "registry snapshot path (optional)")
	code := fs.Int64("code", 0, "feature code")
	jsonOut := fs.Bool("json", false, "emit code info as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts, err := loadOptions(*configPath, sf)
	if err != nil {
		return err
	}
	opts.StoreKind = "memory"

	var client *tensordep.Client
	if *snapshotPath != "" {
		client, err = tensordep.Import(opts, *snapshotPath)
	} else {
		client, err = tensordep.New(opts)
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	info, err := client.Inspect(*code)
	if err != nil && !errors.Is(err, tensor.ErrInactiveCoordinate) {
		return err
	}
	if *jsonOut {
		out := struct {
			Code       int64  `json:"code"`
			Template   string `json:"template"`
			Args       []int  `json:"args"`
			Distance   int    `json:"distance"`
			Label      int    `json:"label"`
			Registered bool   `json:"registered"`
			Spaces     string `json:"spaces,omitempty"`
			ArcID      int    `json:"arc_id"`
			LabeledID  int    `json:"labeled_id"`
			Routed     bool   `json:"routed"`
			Coords     []int  `json:"coords,omitempty"`
			Error      string `json:"error,omitempty"`
		}{
			Code:       info.Code,
			Template:   info.Template.String(),
			Args:       info.Args,
			Distance:   info.Distance,
			Label:      info.Label,
			Registered: info.Registered,
			ArcID:      info.ArcID,
			LabeledID:  info.LabeledID,
			Routed:     info.Routed,
			Coords:     info.Coords,
		}
		if info.Registered {
			out.Spaces = info.Spaces.String()
		}
		if err != nil {
			out.Error = err.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("code=%d template=%s args=%v distance=%d label=%d\n", info.Code, info.Template, info.Args, info.Distance, info.Label)
	fmt.Printf("arc_id=%d labeled_id=%d registered=%t", info.ArcID, info.LabeledID, info.Registered)
	if info.Registered {
		fmt.Printf(" spaces=%s", info.Spaces)
	}
	fmt.Println()
	switch {
	case err != nil:
		fmt.Printf("coords=%v inactive: %v\n", info.Coords, err)
	case info.Routed:
		fmt.Printf("coords=%v\n", info.Coords)
	default:
		fmt.Printf("not routed by %s\n", client.Topology())
	}
	return nil
}

func runHash(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	code := fs.Int64("code", 0, "feature code")
	spaceSize := fs.String("space-size", fmt.Sprint(feature.DefaultSpaceSize), "hash space size, e.g. 116M")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := parseSize(*spaceSize)
	if err != nil {
		return err
	}

	fmt.Printf("code=%d space=%s id=%d\n", *code, humanize.Comma(int64(n)), feature.HashCode(*code, n))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	store, _, err := sf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	// Newest first.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	if len(runs) > *limit {
		runs = runs[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s registry_id=%s topology=%s codes=%s written=%s pruned=%s skipped=%s\n",
			r.RunID, r.CreatedAtUTC, r.RegistryID, r.Topology,
			humanize.Comma(int64(r.Codes)),
			humanize.Comma(int64(r.Written)),
			humanize.Comma(int64(r.Pruned)),
			humanize.Comma(int64(r.Skipped)),
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "", "client config JSON path")
	registryID := fs.String("registry-id", "", "registry id")
	outPath := fs.String("out", "", "snapshot output path")
	compression := fs.String("compression", "", "snapshot compression: none|lz4|xz (default from extension)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *registryID == "" || *outPath == "" {
		return errors.New("export requires --registry-id and --out")
	}
	opts, err := loadOptions(*configPath, sf)
	if err != nil {
		return err
	}
	comp, err := parseCompression(*compression)
	if err != nil {
		return err
	}

	client, err := tensordep.Load(ctx, opts, *registryID)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	size, err := client.Export(*outPath, comp)
	if err != nil {
		return err
	}

	fmt.Printf("exported registry_id=%s to=%s size=%s\n", *registryID, *outPath, humanize.Bytes(uint64(size)))
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	configPath := fs.String("config", "", "client config JSON path")
	snapshotPath := fs.String("snapshot", "", "snapshot path")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snapshotPath == "" {
		return errors.New("import requires --snapshot")
	}
	opts, err := loadOptions(*configPath, sf)
	if err != nil {
		return err
	}

	client, err := tensordep.Import(opts, *snapshotPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("imported registry_id=%s topology=%s codes=%s\n",
		client.RegistryID(), client.Topology(), humanize.Comma(int64(client.Space().NumCodes())))
	return nil
}

func parseCompression(name string) (storage.Compression, error) {
	if name == "" {
		return "", nil
	}
	return storage.ParseCompression(name)
}

func readInstances(path string) ([]model.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var insts []model.Instance
	if err := json.Unmarshal(data, &insts); err != nil {
		return nil, fmt.Errorf("decode instances: %w", err)
	}
	if len(insts) == 0 {
		return nil, errors.New("no instances to observe")
	}
	return insts, nil
}

type weightsFile struct {
	Arc     []model.WeightRecord `json:"arc"`
	Labeled []model.WeightRecord `json:"labeled"`
}

func readWeights(path string) (*tensor.SparseWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return tensor.SparseWeightsFrom(wf.Arc, wf.Labeled)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tensordepctl <init|observe|route|inspect|hash|runs|export|import> [flags]", msg)
}
