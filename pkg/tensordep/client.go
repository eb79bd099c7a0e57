package tensordep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tensordep/internal/feature"
	"tensordep/internal/model"
	"tensordep/internal/storage"
	"tensordep/internal/tensor"
)

var ErrNotFound = errors.New("record not found")

// Client owns one feature registry, the factor tree it activates and the
// router that fills the tree's tensor. Observe gold instances while the
// registry is open, Freeze it, then Route learned weights.
type Client struct {
	opts     Options
	topology tensor.Topology
	logger   *slog.Logger

	store     storage.Store
	ownsStore bool
	storeOnce sync.Once
	storeErr  error

	registryID string
	createdAt  string

	codec   feature.Codec
	space   *feature.FeatureSpace
	builder *feature.Builder
	tree    *tensor.Tree
	act     *tensor.Activator
	router  *tensor.Router

	mu        sync.Mutex
	instances int
	tensor    *model.TensorSnapshot
}

// RouteResult is the outcome of one routing pass.
type RouteResult struct {
	Run    model.RunSummary
	Tensor *tensor.LowRankParam
}

// New builds a client with an empty, open registry.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	space, err := feature.NewFeatureSpace(opts.ArcSpaceSize, opts.LabeledSpaceSize)
	if err != nil {
		return nil, err
	}
	return newClient(opts, space, opts.widths(), uuid.NewString(), nowUTC())
}

// Restore rebuilds a frozen client from a snapshot bundle. The bundle's
// codec widths and space sizes override those of opts.
func Restore(opts Options, b model.Bundle) (*Client, error) {
	opts = opts.withDefaults()
	reg := b.Registry
	if reg.Topology != "" && opts.Topology != "" && !strings.EqualFold(reg.Topology, strings.TrimSpace(opts.Topology)) {
		return nil, fmt.Errorf("%w: registry %s was built for %s, not %s", tensor.ErrTopologyMismatch, reg.ID, reg.Topology, opts.Topology)
	}
	if opts.Topology == "" {
		opts.Topology = reg.Topology
	}
	opts.ArcSpaceSize = reg.ArcSpaceSize
	opts.LabeledSpaceSize = reg.LabeledSpaceSize

	entries := make([]feature.CodeEntry, len(reg.Codes))
	for i, r := range reg.Codes {
		entries[i] = feature.CodeEntry{Code: r.Code, Spaces: feature.Space(r.Spaces)}
	}
	space, err := feature.Restore(reg.ArcSpaceSize, reg.LabeledSpaceSize, entries)
	if err != nil {
		return nil, err
	}
	w := feature.Widths(reg.Widths)
	c, err := newClient(opts, space, w, reg.ID, reg.CreatedAtUTC)
	if err != nil {
		return nil, err
	}
	c.instances = reg.Instances

	if b.Activation != nil {
		if err := c.tree.Root.RestoreActive(b.Activation.Nodes); err != nil {
			return nil, fmt.Errorf("restore activation of %s: %w", reg.ID, err)
		}
	}
	if b.Tensor != nil {
		t := *b.Tensor
		c.tensor = &t
	}
	return c, nil
}

func newClient(opts Options, space *feature.FeatureSpace, w feature.Widths, registryID, createdAt string) (*Client, error) {
	top, err := opts.validate()
	if err != nil {
		return nil, err
	}
	codec, err := feature.NewCodec(w)
	if err != nil {
		return nil, err
	}

	var table feature.Typology
	if opts.Typology != nil {
		table = opts.Typology
	}
	var vectors feature.WordVectors
	if opts.WordVectors != nil {
		vectors = opts.WordVectors
	}
	builder, err := feature.NewBuilder(opts.Features, codec, space, table, vectors)
	if err != nil {
		return nil, err
	}
	tree, err := tensor.NewTree(opts.treeConfig(top))
	if err != nil {
		return nil, err
	}
	act, err := tensor.NewActivator(tree, builder)
	if err != nil {
		return nil, err
	}
	router, err := tensor.NewRouter(tree, codec, space, table, tensor.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	store, owned, err := opts.openStore()
	if err != nil {
		return nil, err
	}

	return &Client{
		ownsStore:  owned,
		opts:       opts,
		topology:   top,
		logger:     opts.Logger,
		store:      store,
		registryID: registryID,
		createdAt:  createdAt,
		codec:      codec,
		space:      space,
		builder:    builder,
		tree:       tree,
		act:        act,
		router:     router,
	}, nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (c *Client) Close() error {
	if !c.ownsStore {
		return nil
	}
	return storage.CloseIfSupported(c.store)
}

// Init prepares the backing store.
func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.storeOnce.Do(func() {
		c.storeErr = c.store.Init(ctx)
	})
	return c.storeErr
}

func (c *Client) RegistryID() string           { return c.registryID }
func (c *Client) Topology() tensor.Topology    { return c.topology }
func (c *Client) Codec() feature.Codec         { return c.codec }
func (c *Client) Space() *feature.FeatureSpace { return c.space }
func (c *Client) Tree() *tensor.Tree           { return c.tree }

// ArcFeatures is the unlabeled feature vector of arc (h, m), used by the
// training loop for scoring. It registers codes while the registry is open.
func (c *Client) ArcFeatures(inst model.Instance, h, m int) (*feature.Vector, error) {
	return c.builder.CreateArcFeatures(inst, h, m)
}

// LabeledFeatures is the labeled feature vector of arc (h, m) with label.
func (c *Client) LabeledFeatures(inst model.Instance, h, m, label int) (*feature.Vector, error) {
	return c.builder.CreateArcLabelFeatures(inst, h, m, label)
}

// Observe registers the features of every gold arc and activates the factor
// cells they use.
func (c *Client) Observe(ctx context.Context, insts ...model.Instance) error {
	if err := c.space.EnsureOpen(); err != nil {
		return err
	}
	for i, inst := range insts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.observe(inst); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
	}
	c.mu.Lock()
	c.instances += len(insts)
	total := c.instances
	c.mu.Unlock()

	c.logger.Debug("instances observed", "registry", c.registryID, "batch", len(insts), "total", total, "codes", c.space.NumCodes())
	return nil
}

func (c *Client) observe(inst model.Instance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	learnLabel := c.opts.Features.LearnLabel
	if learnLabel && inst.Labels == nil {
		return errors.New("labels are learned but the instance has none")
	}
	for m := 1; m < inst.Len(); m++ {
		h := inst.Heads[m]
		if _, err := c.builder.CreateArcFeatures(inst, h, m); err != nil {
			return err
		}
		if learnLabel {
			if _, err := c.builder.CreateArcLabelFeatures(inst, h, m, inst.Labels[m]); err != nil {
				return err
			}
		}
	}
	return c.act.Observe(inst)
}

// Freeze stops registry growth. Routing requires a frozen registry.
func (c *Client) Freeze() {
	c.space.Freeze()
	c.logger.Info("registry frozen", "registry", c.registryID, "codes", c.space.NumCodes(),
		"arc_ids", c.space.NumIDs(feature.ArcSpace), "labeled_ids", c.space.NumIDs(feature.LabeledSpace))
}

// Route fills a fresh tensor from w and persists it with a run summary.
func (c *Client) Route(ctx context.Context, w tensor.Weights) (RouteResult, error) {
	if err := c.ensureStore(ctx); err != nil {
		return RouteResult{}, err
	}
	sink := tensor.NewLowRankParam(c.topology.Modes())
	stats, err := c.router.Route(ctx, w, sink)
	if err != nil {
		return RouteResult{}, err
	}

	snap := model.TensorSnapshot{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		RegistryID:      c.registryID,
		Topology:        c.topology.String(),
		Modes:           sink.Modes(),
		Cells:           sink.Records(),
	}
	if err := c.store.SaveTensor(ctx, snap); err != nil {
		return RouteResult{}, fmt.Errorf("save tensor: %w", err)
	}
	run := model.RunSummary{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           uuid.NewString(),
		RegistryID:      c.registryID,
		TensorID:        snap.ID,
		Topology:        c.topology.String(),
		CreatedAtUTC:    nowUTC(),
		Codes:           stats.Codes,
		Written:         stats.Written,
		Pruned:          stats.Pruned,
		Skipped:         stats.Skipped,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RouteResult{}, fmt.Errorf("save run: %w", err)
	}

	c.mu.Lock()
	c.tensor = &snap
	c.mu.Unlock()
	return RouteResult{Run: run, Tensor: sink}, nil
}

// Snapshot captures the frozen registry, its activation state and the last
// routed tensor.
func (c *Client) Snapshot() (model.Bundle, error) {
	if !c.space.Frozen() {
		return model.Bundle{}, tensor.ErrRegistryOpen
	}
	entries := c.space.Codes()
	codes := make([]model.CodeRecord, len(entries))
	for i, e := range entries {
		codes[i] = model.CodeRecord{Code: e.Code, Spaces: uint8(e.Spaces)}
	}

	c.mu.Lock()
	instances := c.instances
	last := c.tensor
	c.mu.Unlock()

	b := model.Bundle{
		VersionedRecord: storage.CurrentVersion(),
		Registry: model.RegistrySnapshot{
			VersionedRecord:  storage.CurrentVersion(),
			ID:               c.registryID,
			CreatedAtUTC:     c.createdAt,
			Topology:         c.topology.String(),
			ArcSpaceSize:     c.space.Size(feature.ArcSpace),
			LabeledSpaceSize: c.space.Size(feature.LabeledSpace),
			Widths:           model.CodecWidths(c.codec.Widths()),
			Instances:        instances,
			Codes:            codes,
		},
		Activation: &model.ActivationSnapshot{
			VersionedRecord: storage.CurrentVersion(),
			RegistryID:      c.registryID,
			Nodes:           c.tree.Root.ActiveSets(),
		},
	}
	if last != nil {
		t := *last
		b.Tensor = &t
	}
	return b, nil
}

// Save persists the registry and its activation state.
func (c *Client) Save(ctx context.Context) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	b, err := c.Snapshot()
	if err != nil {
		return err
	}
	if err := c.store.SaveRegistry(ctx, b.Registry); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	if err := c.store.SaveActivation(ctx, *b.Activation); err != nil {
		return fmt.Errorf("save activation: %w", err)
	}
	return nil
}

// Load restores a client from a registry saved in the store named by opts.
func Load(ctx context.Context, opts Options, registryID string) (*Client, error) {
	opts = opts.withDefaults()
	store, owned, err := opts.openStore()
	if err != nil {
		return nil, err
	}
	if owned {
		defer storage.CloseIfSupported(store)
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	reg, ok, err := store.GetRegistry(ctx, registryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: registry %s", ErrNotFound, registryID)
	}
	b := model.Bundle{VersionedRecord: storage.CurrentVersion(), Registry: reg}
	activation, ok, err := store.GetActivation(ctx, registryID)
	if err != nil {
		return nil, err
	}
	if ok {
		b.Activation = &activation
	}
	return Restore(opts, b)
}

// Export writes Snapshot to path and returns the file size.
func (c *Client) Export(path string, compression storage.Compression) (int64, error) {
	b, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	if compression == "" {
		compression = storage.CompressionForPath(path)
	}
	return storage.SaveSnapshotFile(path, b, compression)
}

// Import restores a client from a snapshot file.
func Import(opts Options, path string) (*Client, error) {
	b, err := storage.LoadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	return Restore(opts, b)
}

func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}
	return runs, nil
}

// Tensor loads a persisted tensor into a sink.
func (c *Client) Tensor(ctx context.Context, id string) (*tensor.LowRankParam, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	snap, ok, err := c.store.GetTensor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: tensor %s", ErrNotFound, id)
	}
	sink := tensor.NewLowRankParam(snap.Modes)
	if err := sink.Load(snap.Cells); err != nil {
		return nil, err
	}
	return sink, nil
}

// CodeInfo describes one feature code as the client's topology sees it.
type CodeInfo struct {
	Code       int64
	Template   feature.Template
	Args       []int
	Distance   int
	Label      int
	Registered bool
	Spaces     feature.Space
	ArcID      int
	LabeledID  int
	// Routed is false when the topology has no mapping for the template.
	Routed bool
	Coords []int
}

// Inspect decodes code and reports where it hashes and routes.
func (c *Client) Inspect(code int64) (CodeInfo, error) {
	d, err := c.router.Decode(code)
	if err != nil {
		return CodeInfo{}, err
	}
	info := CodeInfo{
		Code:      code,
		Template:  d.Template,
		Args:      d.Args,
		Distance:  d.Distance,
		Label:     d.Label,
		ArcID:     c.space.ID(feature.ArcSpace, code),
		LabeledID: c.space.ID(feature.LabeledSpace, code),
	}
	info.Spaces, info.Registered = c.space.Lookup(code)
	coords, routed, err := c.router.Coordinates(code)
	if err != nil {
		return info, err
	}
	info.Routed = routed
	info.Coords = coords
	return info, nil
}
