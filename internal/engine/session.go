package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/osr/internal/alloc"
	"github.com/roach88/osr/internal/classify"
	"github.com/roach88/osr/internal/config"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/loader"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
	"github.com/roach88/osr/internal/quantity"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/rules"
)

// Per-tick work budgets. Probes and map tiles are configured through
// config.Engine.
const (
	listPerTick     = 500
	nonRidesPerTick = 100
	loadsPerTick    = 1
)

// Input is what a run randomises and how.
type Input struct {
	Host     host.Host
	Settings config.Settings

	// Options is the raw option table, journaled with the run. May be nil.
	Options *config.Options

	// Rules is the static rule data. Nil means rules.Standard.
	Rules *rules.RuleSet

	// Random replaces the generator seeded from Settings.Seed.
	Random host.Random
}

// Session is the working state of one run: the pools, index sets, targets
// and solver built up stage by stage. It lives exactly as long as its Run.
type Session struct {
	host     host.Host
	objects  *recordingObjects
	settings config.Settings
	ruleset  rules.RuleSet
	random   host.Random
	logger   *slog.Logger

	listing     []objects.InstalledObject
	listStarted bool
	installed   []objects.InstalledObject

	registry   *rules.Registry
	pools      *pool.Manager
	classifier *classify.Classifier
	alloc      *alloc.Allocator
	scanner    *alloc.Scanner
	loader     *loader.Loader

	rides        []objects.InstalledObject
	loadedRides  map[string]bool
	ridesQueued  bool
	nonRides     []objects.InstalledObject
	nonRidesInit bool

	prefs    *pool.Preferences
	baseline research.Availabilities
	targets  quantity.Targets
	inUse    []string
	loads    int
	loaded   int
	solver   *research.Solver

	detail string
}

func newSession(in Input, logger *slog.Logger) (*Session, error) {
	if in.Host == nil {
		return nil, fmt.Errorf("start run: no host")
	}
	var rs rules.RuleSet
	if in.Rules != nil {
		rs = *in.Rules
	} else {
		var err error
		if rs, err = rules.Standard(); err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
	}
	rnd := in.Random
	if rnd == nil {
		rnd = host.NewRandom(in.Settings.Seed)
	}
	settings := in.Settings
	settings.Engine = settings.Engine.Normalize()
	return &Session{
		host:     in.Host,
		objects:  &recordingObjects{ObjectManager: in.Host},
		settings: settings,
		ruleset:  rs,
		random:   rnd,
		logger:   logger,
	}, nil
}

// typeOf returns the classified type of an identifier. Objects that have
// not been classified yet, or never can be, report false.
func (s *Session) typeOf(identifier string) (objects.DistributionType, bool) {
	if s.classifier == nil {
		return objects.Unknown, false
	}
	return s.classifier.Cached(identifier)
}

func (s *Session) categories() research.Categorizer {
	return research.ClassifierCategories{Classifier: s.classifier}
}

func (s *Session) listObjects() (bool, error) {
	if !s.listStarted {
		s.listStarted = true
		s.listing = s.host.InstalledObjects()
		s.installed = make([]objects.InstalledObject, 0, len(s.listing))
	}
	n := min(listPerTick, len(s.listing))
	for _, obj := range s.listing[:n] {
		s.installed = append(s.installed, obj.Clone())
	}
	s.listing = s.listing[n:]
	if len(s.listing) > 0 {
		s.detail = fmt.Sprintf("%d objects left to list", len(s.listing))
		return false, nil
	}
	s.detail = fmt.Sprintf("%d installed objects", len(s.installed))
	return true, nil
}

func (s *Session) buildAssociations() (bool, error) {
	s.registry = rules.Build(s.ruleset, s.settings.Flags, s.settings.Custom)
	s.pools = pool.NewManager(s.registry, s.logger)
	for _, obj := range s.installed {
		s.pools.Install(obj)
	}
	prober := &classify.HostProber{Objects: s.host, Research: s.host}
	s.classifier = classify.New(prober, s.ruleset.ResearchCategories, s.logger)
	s.alloc = alloc.New(alloc.HostOccupancy{Objects: s.objects, TypeOf: s.typeOf})
	s.scanner = alloc.NewScanner(s.host, s.alloc, s.settings.Replace, s.settings.Engine.TilesPerStep)
	s.loader = loader.New(s.objects, s.host, s.pools, s.alloc, s.typeOf, s.logger)

	s.logger.Info("built association registry", "entries", s.registry.Len())
	s.detail = fmt.Sprintf("%d association entries", s.registry.Len())
	return true, nil
}

// classifyRides seeds every ride that already has a research entry, then
// probes the rest, at most ProbesPerTick per tick.
func (s *Session) classifyRides() (bool, error) {
	if !s.ridesQueued {
		s.ridesQueued = true
		seeded := classify.SeedFromResearch(s.classifier, s.host, s.host)
		s.logger.Info("seeded ride types from research", "count", len(seeded))
		s.loadedRides = make(map[string]bool)
		for _, obj := range s.host.Loaded(objects.TypeRide) {
			s.loadedRides[obj.Identifier] = true
		}
		for _, obj := range s.installed {
			if obj.Type == objects.TypeRide {
				s.rides = append(s.rides, obj)
			}
		}
	}

	s.classifier.ResetProbes()
	for len(s.rides) > 0 {
		if s.classifier.Probes() >= s.settings.Engine.ProbesPerTick {
			s.detail = fmt.Sprintf("%d rides left to classify", len(s.rides))
			return false, nil
		}
		obj := s.rides[0]
		s.rides = s.rides[1:]
		if _, cached := s.classifier.Cached(obj.Identifier); !cached && s.loadedRides[obj.Identifier] {
			// Probing a loaded ride would unload it afterwards.
			s.logger.Warn("loaded ride has no research entry, not classified", "identifier", obj.Identifier)
			continue
		}
		d, err := s.classifier.Classify(obj)
		if err != nil {
			continue
		}
		s.pools.AddEligible(obj.Identifier, d)
	}
	s.detail = "rides classified"
	return true, nil
}

func (s *Session) classifyNonRides() (bool, error) {
	if !s.nonRidesInit {
		s.nonRidesInit = true
		for _, obj := range s.installed {
			if obj.Type != objects.TypeRide {
				s.nonRides = append(s.nonRides, obj)
			}
		}
	}
	n := min(nonRidesPerTick, len(s.nonRides))
	for _, obj := range s.nonRides[:n] {
		d, err := s.classifier.Classify(obj)
		if err != nil {
			continue
		}
		s.pools.AddEligible(obj.Identifier, d)
	}
	s.nonRides = s.nonRides[n:]
	s.detail = fmt.Sprintf("%d non-rides left to classify", len(s.nonRides))
	return len(s.nonRides) == 0, nil
}

func (s *Session) sourcePreferences() (bool, error) {
	loaded := make(map[objects.ObjectType][]objects.InstalledObject)
	for _, t := range objects.ObjectTypes {
		for _, obj := range s.host.Loaded(t) {
			if snap, ok := s.pools.Installed(obj.Identifier); ok {
				loaded[t] = append(loaded[t], snap)
			}
		}
	}
	s.prefs = pool.ResolvePreferences(s.settings.Preferences, loaded, s.logger)
	s.detail = fmt.Sprintf("global %v", s.prefs.For(pool.KeyGlobal))
	return true, nil
}

// stallBaseline records when each stall category becomes available in the
// untouched scenario, for the mimic requirement modes.
func (s *Session) stallBaseline() (bool, error) {
	s.baseline = research.Scan(s.host, s.host, s.categories())
	s.detail = describeAvailability(s.baseline)
	s.logger.Info("scenario stall availability", "channel", "stallresearch", "baseline", s.detail)
	return true, nil
}

func (s *Session) scanWorld() (bool, error) {
	if !s.scanner.Step() {
		x, _ := s.scanner.Position()
		w, _ := s.host.MapSize()
		s.detail = fmt.Sprintf("scanned %d of %d columns", x, w)
		return false, nil
	}
	s.detail = fmt.Sprintf("%d rides and %d path surfaces in the world",
		len(s.alloc.Present(objects.TypeRide)), len(s.alloc.Present(objects.TypePathSurface)))
	return true, nil
}

// worldAssociations applies the association rules of every object the
// world uses, as though each had just been loaded.
func (s *Session) worldAssociations() (bool, error) {
	handled, err := s.loader.ApplyWorldAssociations()
	if err != nil {
		return false, err
	}
	s.detail = fmt.Sprintf("%d objects in use", handled)
	return true, nil
}

func (s *Session) planQuantities() (bool, error) {
	census := quantity.Gather(s.host, s.host, s.alloc, s.typeOf)
	s.targets = quantity.Plan(s.settings.Quantity, census, s.random, s.logger)
	digest, err := objects.Digest(objects.DomainPlan, map[string]any{
		"invented":   countsValue(s.targets.Invented),
		"uninvented": countsValue(s.targets.Uninvented),
		"non_ride":   countsValue(s.targets.NonRide),
	})
	if err != nil {
		return false, err
	}
	s.detail = fmt.Sprintf("%d objects to load, plan %s", s.targets.Remaining(), digest[:12])
	return true, nil
}

// unloadUnused unloads every classified object the world does not
// reference. The park entrance stays unless it is being randomised.
func (s *Session) unloadUnused() (bool, error) {
	keepEntrance := func(t objects.ObjectType) bool {
		return t == objects.TypeParkEntrance && !s.settings.Quantity.RandomiseParkEntrance
	}
	unloaded, inUse := s.loader.UnloadUnused(keepEntrance)
	s.inUse = inUse
	s.detail = fmt.Sprintf("unloaded %d, kept %d", len(unloaded), len(s.inUse))
	return true, nil
}

func (s *Session) reconcilePools() (bool, error) {
	removed := 0
	for _, id := range s.inUse {
		if s.pools.Contains(id) {
			removed++
		}
		s.pools.MarkLoaded(id)
	}
	s.logger.Info("removed objects in use from pools", "channel", "allLoads", "removed", removed, "in_use", len(s.inUse))
	s.detail = fmt.Sprintf("%d objects in use removed from pools", removed)
	return true, nil
}

// loadObjects loads invented rides into allocated slots, then uninvented
// rides wherever the host puts them, then non-rides into allocated slots.
// At most loadsPerTick objects are loaded per tick.
func (s *Session) loadObjects() (bool, error) {
	s.loads = 0
	batches := []struct {
		counts   quantity.Counts
		order    []objects.DistributionType
		invented bool
		allocate bool
	}{
		{s.targets.Invented, objects.RideDistributionTypes, true, true},
		{s.targets.Uninvented, objects.RideDistributionTypes, false, false},
		{s.targets.NonRide, objects.NonRideDistributionTypes, true, true},
	}
	for _, b := range batches {
		done, err := s.loadBatch(b.counts, b.order, b.invented, b.allocate)
		if err != nil || !done {
			s.detail = fmt.Sprintf("%d objects left to load", s.targets.Remaining())
			return false, err
		}
	}
	s.detail = fmt.Sprintf("%d objects loaded", s.loaded)
	return true, nil
}

func (s *Session) loadBatch(counts quantity.Counts, order []objects.DistributionType, invented, allocate bool) (bool, error) {
	for attempt := 0; attempt < loadsPerTick; attempt++ {
		if s.loads >= loadsPerTick {
			return false, nil
		}
		types := counts.Positive(order)
		if len(types) == 0 {
			return true, nil
		}
		d := types[s.random.Intn(0, len(types))]
		id, ok := s.pools.PickRandom(d, s.prefs, s.random)
		if !ok {
			s.logger.Warn("no object of type left to load, giving up on one",
				"channel", "sourcepreference", "type", d.String())
		} else {
			index := loader.AnySlot
			if allocate {
				index = s.alloc.FindSlot(d)
			}
			if _, err := s.loader.Load(id, index, invented); err != nil {
				return false, err
			}
			s.loads++
			s.loaded++
		}
		counts.Take(d)
	}
	return false, nil
}

func (s *Session) researchQueue() (bool, error) {
	reqs := research.Resolve(s.settings.Stalls, s.baseline, s.logger)
	s.solver = research.NewSolver(research.Deps{
		Objects:  s.objects,
		Research: s.host,
		Random:   s.random,
		Loader:   s.loader,
		Supplier: research.PoolSupplier{
			Pools:      s.pools,
			Prefs:      s.prefs,
			Classifier: s.classifier,
			Random:     s.random,
		},
		Classes: s.categories(),
		InWorld: func(index int) bool { return s.alloc.IsPresent(objects.TypeRide, index) },
	}, reqs,
		research.WithMaxIterations(s.settings.Engine.MaxSolverIterations),
		research.WithLogger(s.logger),
	)
	if err := s.solver.Run(); err != nil {
		return false, err
	}
	s.detail = fmt.Sprintf("settled after %d passes", s.solver.Passes())
	if relaxed := s.solver.Relaxed(); len(relaxed) > 0 {
		s.detail += fmt.Sprintf(", relaxed %v", relaxed)
	}
	return true, nil
}

// cleanup drops the working lists. The host keeps everything the run did.
func (s *Session) cleanup() (bool, error) {
	s.installed = nil
	s.listing = nil
	s.rides = nil
	s.nonRides = nil
	s.loadedRides = nil
	s.inUse = nil
	s.prefs = nil
	s.scanner = nil
	s.detail = "working state cleared"
	return true, nil
}

// Result is the state a finished run left the park in.
type Result struct {
	Loaded     []string
	Invented   []objects.ResearchItem
	Uninvented []objects.ResearchItem
	// Relaxed lists stall categories whose requirement could not be met.
	Relaxed []research.Category
	// Availability is when each stall category becomes available.
	Availability research.Availabilities
	// Digest identifies the loaded set and both research lists.
	Digest string
}

func (s *Session) result() (Result, error) {
	var loaded []string
	for _, t := range objects.ObjectTypes {
		for _, obj := range s.host.Loaded(t) {
			loaded = append(loaded, obj.Identifier)
		}
	}
	sort.Strings(loaded)
	res := Result{
		Loaded:     loaded,
		Invented:   s.host.Invented(),
		Uninvented: s.host.Uninvented(),
	}
	if s.solver != nil {
		res.Relaxed = s.solver.Relaxed()
	}
	if s.classifier != nil {
		res.Availability = research.Scan(s.host, s.host, s.categories())
	}
	digest, err := objects.Digest(objects.DomainResult, res.value())
	if err != nil {
		return Result{}, err
	}
	res.Digest = digest
	return res, nil
}

func (r Result) value() map[string]any {
	loaded := r.Loaded
	if loaded == nil {
		loaded = []string{}
	}
	return map[string]any{
		"loaded":     loaded,
		"invented":   objects.ResearchItemsValue(r.Invented),
		"uninvented": objects.ResearchItemsValue(r.Uninvented),
	}
}

func countsValue(c quantity.Counts) map[string]any {
	out := make(map[string]any, len(c))
	for d, n := range c {
		out[d.String()] = n
	}
	return out
}

func describeAvailability(as research.Availabilities) string {
	out := ""
	for i, c := range research.Categories {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%s", c, as[c])
	}
	return out
}
