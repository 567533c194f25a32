package research

import (
	"fmt"
	"log/slog"

	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Loader loads and unloads stalls for the solver.
type Loader interface {
	Load(identifier string, index int, invented bool) (int, error)
	Unload(obj objects.LoadedObject)
}

// Supplier picks a not yet loaded stall of a category.
type Supplier interface {
	Pick(c Category) (string, bool)
}

// Deps are the collaborators of a Solver.
type Deps struct {
	Objects  host.ObjectManager
	Research host.Research
	Random   host.Random
	Loader   Loader
	Supplier Supplier
	Classes  Categorizer
	// InWorld reports whether a ride slot is referenced by the world.
	// Stalls in such slots are never unloaded.
	InWorld func(index int) bool
}

// Solver enforces availability requirements on the research queue.
//
// Requirements belong to the solver for the whole run: collision fixes and
// relaxations of unsatisfiable requirements persist across passes.
type Solver struct {
	deps    Deps
	reqs    Availabilities
	logger  *slog.Logger
	maxIter int
	passes  int
	relaxed []Category
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithMaxIterations overrides the outer pass budget.
func WithMaxIterations(n int) SolverOption {
	return func(s *Solver) {
		s.maxIter = n
	}
}

// WithLogger sets the solver's logger.
func WithLogger(logger *slog.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = logger
	}
}

// NewSolver creates a solver for the given requirements.
func NewSolver(deps Deps, reqs Availabilities, opts ...SolverOption) *Solver {
	s := &Solver{
		deps:    deps,
		reqs:    reqs,
		logger:  slog.Default(),
		maxIter: guard.SolverIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("channel", "stallresearch")
	if s.deps.InWorld == nil {
		s.deps.InWorld = func(int) bool { return false }
	}
	return s
}

// Requirements returns the requirements as they currently stand.
func (s *Solver) Requirements() Availabilities {
	return s.reqs
}

// Relaxed lists the categories whose requirement was dropped because no
// stall could be introduced.
func (s *Solver) Relaxed() []Category {
	return append([]Category(nil), s.relaxed...)
}

// Passes returns the number of outer passes the last Run made.
func (s *Solver) Passes() int {
	return s.passes
}

// Run shuffles the uninvented list, then repeats scan, check and repair
// until a full pass changes nothing.
//
// Returns a RuntimeError when the pass budget runs out, when the queue
// returns to a state it was already in, or when a load fails.
func (s *Solver) Run() error {
	Shuffle(s.deps.Research, s.deps.Random)

	claimed, err := FixCollisions(&s.reqs)
	if err != nil {
		return err
	}
	s.logger.Debug("requested stall availability", "requirements", s.describe(s.reqs))

	quota := guard.NewQuota("research queue solver", s.maxIter)
	seen := guard.NewCycleDetector()
	s.passes = 0
	for {
		if err := quota.Check(); err != nil {
			return guard.NewOrderingError(err.Error())
		}
		s.passes++
		digest, err := s.stateDigest()
		if err != nil {
			return err
		}
		if seen.Visit("research", digest) {
			return guard.NewOrderingError("research queue returned to an earlier state")
		}

		restart, recompute, err := s.pass(claimed)
		if err != nil {
			return err
		}
		if recompute {
			if claimed, err = FixCollisions(&s.reqs); err != nil {
				return err
			}
		}
		if !restart {
			return nil
		}
	}
}

// pass visits each category once and stops at the first repair.
func (s *Solver) pass(claimed map[int]Category) (restart, recompute bool, err error) {
	for _, c := range Categories {
		cur := Scan(s.deps.Objects, s.deps.Research, s.deps.Classes)
		req := s.reqs[c]
		s.logger.Debug("checking stall category", "category", c.String(),
			"current", cur[c].String(), "required", req.String())

		switch {
		case req.HasTime && !cur[c].HasTime:
			ok, err := s.introduce(c)
			if err != nil {
				return false, recompute, err
			}
			if ok {
				return true, recompute, nil
			}
			s.logger.Warn("relaxing unsatisfiable stall requirement", "category", c.String(), "required", req.String())
			s.reqs[c] = Availability{}
			s.relaxed = append(s.relaxed, c)
			recompute = true
		case req.HasTime:
			changed, err := s.adjust(c, cur, claimed)
			if s.reqs[c] != req {
				recompute = true
			}
			if err != nil || changed {
				return changed, recompute, err
			}
		case req.Strict && cur[c].HasTime:
			if s.removeAll(c) {
				return true, recompute, nil
			}
		}
	}
	return false, recompute, nil
}

func (s *Solver) introduce(c Category) (bool, error) {
	id, ok := s.deps.Supplier.Pick(c)
	if !ok {
		s.logger.Error("no stall available to meet requested availability", "category", c.String())
		return false, nil
	}
	s.logger.Info("loading stall to satisfy availability", "identifier", id, "category", c.String())
	if _, err := s.deps.Loader.Load(id, -1, false); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Solver) adjust(c Category, cur Availabilities, claimed map[int]Category) (bool, error) {
	req := s.reqs[c]
	curT, reqT := cur[c].Time, req.Time

	if req.Strict {
		if reqT >= 0 {
			evicted, err := s.evictInvented(c)
			if err != nil || evicted {
				return evicted, err
			}
		}
		if reqT == curT {
			return false, nil
		}
		if reqT >= 0 {
			to := reqT
			if curT < reqT {
				// Everything before reqT has to leave the category, so the
				// entry at curT goes to the first slot of another category.
				t, ok := s.firstOutside(c, reqT)
				if !ok {
					s.logger.Warn("relaxing strict requirement, too many stalls of category", "category", c.String(), "required", req.String())
					s.reqs[c] = Availability{}
					s.relaxed = append(s.relaxed, c)
					return true, nil
				}
				to = t
			}
			s.logger.Debug("swapping to meet strict requirement", "category", c.String(), "from", curT, "to", to)
			return Swap(s.deps.Research, to, curT), nil
		}
		s.logger.Debug("promoting to meet strict requirement", "category", c.String(), "time", curT)
		return Promote(s.deps.Research, curT), nil
	}

	if curT <= reqT {
		return false, nil
	}
	target := reqT
	for ; target >= 0; target-- {
		if _, strict := claimed[target]; strict {
			continue
		}
		if s.holdsTighter(c, target, curT, cur) {
			continue
		}
		break
	}
	if target < 0 {
		s.logger.Debug("promoting to get below requirement", "category", c.String(), "time", curT, "required", reqT)
		return Promote(s.deps.Research, curT), nil
	}
	s.logger.Debug("swapping to get below requirement", "category", c.String(), "from", curT, "to", target)
	return Swap(s.deps.Research, curT, target), nil
}

// holdsTighter reports whether another category currently at target has a
// requirement earlier than curT, so moving it later could break it.
func (s *Solver) holdsTighter(c Category, target, curT int, cur Availabilities) bool {
	for _, other := range Categories {
		if other == c || !cur[other].HasTime || cur[other].Time != target {
			continue
		}
		if r := s.reqs[other]; r.HasTime && r.Time < curT {
			return true
		}
	}
	return false
}

// evictInvented moves every invented stall of c back to the end of the
// uninvented list, one at a time.
func (s *Solver) evictInvented(c Category) (bool, error) {
	quota := guard.NewQuota("invented stall eviction", guard.EvictionIterations)
	evicted := false
	for {
		item, ok := s.firstInvented(c)
		if !ok {
			return evicted, nil
		}
		if err := quota.Check(); err != nil {
			return evicted, guard.NewOrderingError(err.Error())
		}
		s.logger.Debug("moving invented stall back to research", "category", c.String(), "index", item.Object)
		host.SetRideResearched(s.deps.Research, item.Object, false)
		evicted = true
	}
}

func (s *Solver) firstInvented(c Category) (objects.ResearchItem, bool) {
	for _, item := range s.deps.Research.Invented() {
		if item.IsShop() && s.belongs(item, c) {
			return item, true
		}
	}
	return objects.ResearchItem{}, false
}

// firstOutside returns the earliest uninvented time at or after from whose
// shop entry is not of category c.
func (s *Solver) firstOutside(c Category, from int) (int, bool) {
	time := -1
	for _, item := range s.deps.Research.Uninvented() {
		if !item.IsShop() {
			continue
		}
		time++
		if time >= from && !s.belongs(item, c) {
			return time, true
		}
	}
	return 0, false
}

func (s *Solver) belongs(item objects.ResearchItem, c Category) bool {
	if rt, ok := c.RideType(); ok && item.RideType == rt {
		return true
	}
	obj, ok := s.deps.Objects.Object(objects.TypeRide, item.Object)
	if !ok {
		return false
	}
	got, ok := s.deps.Classes.CategoryOf(obj.Identifier)
	return ok && got == c
}

// removeAll unloads every stall of c that the world does not use.
func (s *Solver) removeAll(c Category) bool {
	var victims []objects.LoadedObject
	seen := make(map[int]bool)
	items := append(s.deps.Research.Uninvented(), s.deps.Research.Invented()...)
	for _, item := range items {
		if !item.IsShop() || seen[item.Object] {
			continue
		}
		obj, ok := s.deps.Objects.Object(objects.TypeRide, item.Object)
		if !ok {
			continue
		}
		if got, ok := s.deps.Classes.CategoryOf(obj.Identifier); !ok || got != c {
			continue
		}
		seen[item.Object] = true
		if s.deps.InWorld(item.Object) {
			s.logger.Info("stall is built in the world, keeping it", "identifier", obj.Identifier, "category", c.String())
			continue
		}
		victims = append(victims, obj)
	}
	for _, obj := range victims {
		s.logger.Info("unloading stall, category must not be available", "identifier", obj.Identifier, "category", c.String())
		s.deps.Loader.Unload(obj)
	}
	return len(victims) > 0
}

func (s *Solver) stateDigest() (string, error) {
	return objects.Digest(objects.DomainResearchState, map[string]any{
		"invented":     objects.ResearchItemsValue(s.deps.Research.Invented()),
		"uninvented":   objects.ResearchItemsValue(s.deps.Research.Uninvented()),
		"requirements": s.reqs.value(),
	})
}

func (s *Solver) describe(as Availabilities) string {
	out := ""
	for i, c := range Categories {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%s", c, as[c])
	}
	return out
}
