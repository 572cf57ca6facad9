// Package bookmark keeps the saved state of jobs in sync with the save service while showing
// the user's intent immediately.
package bookmark

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"

	"github.com/matst80/jobboard/pkg/auth"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ErrUnauthenticated = errors.New("sign in to save jobs")
	ErrRoleNotAllowed  = errors.New("role cannot save jobs")
)

var (
	toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_bookmark_toggles_total",
		Help: "The total number of bookmark toggles sent to the save service",
	}, []string{"intent"})
	rollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobboard_bookmark_rollbacks_total",
		Help: "The total number of optimistic bookmark flips reverted after a failed save call",
	})
)

// SaveService is the saved-jobs endpoint of the backend.
type SaveService interface {
	AddSaved(ctx context.Context, jobId string) error
	RemoveSaved(ctx context.Context, jobId string) error
	ListSaved(ctx context.Context) ([]types.SavedJobRef, error)
}

type Config struct {
	// Identity returns the signed-in user or nil.
	Identity func() *auth.Identity
	// AllowedRoles defaults to candidates only.
	AllowedRoles []string
	// OnUnauthenticated sends the user to sign in.
	OnUnauthenticated func()
	// Notify shows a transient message after a rollback.
	Notify func(jobId string, err error)
}

type override struct {
	saved bool
	op    uint64
}

type Reconciler struct {
	service SaveService
	cfg     Config

	mu        sync.RWMutex
	saved     types.IdSet
	loaded    bool
	overrides map[string]override
	// pending holds the ops still waiting for the save service.
	pending map[uint64]struct{}
	ops     uint64
	// gen changes on Reset so answers meant for the previous user are dropped.
	gen uint64
}

func NewReconciler(service SaveService, cfg Config) *Reconciler {
	if len(cfg.AllowedRoles) == 0 {
		cfg.AllowedRoles = []string{auth.RoleCandidate}
	}
	return &Reconciler{
		service:   service,
		cfg:       cfg,
		saved:     types.IdSet{},
		overrides: make(map[string]override),
		pending:   make(map[uint64]struct{}),
	}
}

// Reset forgets everything known about the previous user. The set reads as empty until the
// next Load.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = types.IdSet{}
	r.overrides = make(map[string]override)
	r.pending = make(map[uint64]struct{})
	r.loaded = false
	r.gen++
}

// Load replaces the authoritative set. Flips still waiting for the service stay visible.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.RLock()
	gen := r.gen
	r.mu.RUnlock()

	refs, err := r.service.ListSaved(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.gen == gen {
		r.saved = toSet(refs)
		r.loaded = true
	}
	r.mu.Unlock()
	return nil
}

func toSet(refs []types.SavedJobRef) types.IdSet {
	saved := make(types.IdSet, len(refs))
	for _, ref := range refs {
		saved[ref.JobId] = struct{}{}
	}
	return saved
}

func (r *Reconciler) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *Reconciler) IsBookmarked(jobId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isBookmarked(jobId)
}

func (r *Reconciler) isBookmarked(jobId string) bool {
	if o, ok := r.overrides[jobId]; ok {
		return o.saved
	}
	return r.saved.Has(jobId)
}

// Snapshot returns the visible membership of every known job in one consistent read.
func (r *Reconciler) Snapshot() types.IdSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.saved.Clone()
	for id, o := range r.overrides {
		if o.saved {
			out[id] = struct{}{}
		} else {
			delete(out, id)
		}
	}
	return out
}

func (r *Reconciler) allowed(id *auth.Identity) bool {
	return slices.Contains(r.cfg.AllowedRoles, id.Role)
}

// Toggle flips jobId right away and asks the save service to follow.
func (r *Reconciler) Toggle(ctx context.Context, jobId string) error {
	var id *auth.Identity
	if r.cfg.Identity != nil {
		id = r.cfg.Identity()
	}
	if id == nil {
		if r.cfg.OnUnauthenticated != nil {
			r.cfg.OnUnauthenticated()
		}
		return ErrUnauthenticated
	}
	if !r.allowed(id) {
		return ErrRoleNotAllowed
	}

	r.mu.Lock()
	previous, hadPrevious := r.overrides[jobId]
	want := !r.isBookmarked(jobId)
	r.ops++
	op, gen := r.ops, r.gen
	r.overrides[jobId] = override{saved: want, op: op}
	r.pending[op] = struct{}{}
	r.mu.Unlock()

	var err error
	if want {
		toggles.WithLabelValues("add").Inc()
		err = r.service.AddSaved(ctx, jobId)
	} else {
		toggles.WithLabelValues("remove").Inc()
		err = r.service.RemoveSaved(ctx, jobId)
	}

	if err != nil {
		r.mu.Lock()
		delete(r.pending, op)
		if current, ok := r.overrides[jobId]; ok && current.op == op && r.gen == gen {
			// An earlier flip that already settled lives in the saved set.
			if _, waiting := r.pending[previous.op]; hadPrevious && waiting {
				r.overrides[jobId] = previous
			} else {
				delete(r.overrides, jobId)
			}
		}
		r.mu.Unlock()
		rollbacks.Inc()
		if r.cfg.Notify != nil {
			r.cfg.Notify(jobId, err)
		}
		return err
	}

	r.reconcile(ctx, jobId, want, op, gen)
	return nil
}

// reconcile folds a confirmed flip into the authoritative set, preferring a fresh listing.
func (r *Reconciler) reconcile(ctx context.Context, jobId string, saved bool, op, gen uint64) {
	refs, err := r.service.ListSaved(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, op)
	if r.gen != gen {
		return
	}
	if err != nil {
		log.Printf("bookmark: list saved jobs failed, keeping local result: %v", err)
		if saved {
			r.saved[jobId] = struct{}{}
		} else {
			delete(r.saved, jobId)
		}
	} else {
		r.saved = toSet(refs)
		r.loaded = true
	}
	if current, ok := r.overrides[jobId]; ok && current.op == op {
		delete(r.overrides, jobId)
	}
}
