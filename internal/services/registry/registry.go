package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"
	applogger "FinAdvisor/pkg/logger"

	"github.com/google/uuid"
)

// DefaultVersions are the models registered when none are configured.
func DefaultVersions() map[string]string {
	return map[string]string{
		models.ModelNavPredictor:       "1.0",
		models.ModelPortfolioOptimizer: "1.0",
		models.ModelRiskScorer:         "1.0",
	}
}

const maxTickets = 32

type snapshot map[string]*models.ModelArtifact

// Registry tracks trained model artifacts. Readers load an immutable
// snapshot and never block; all writes go through writeMu and publish a
// new snapshot after the artifact store has accepted the bytes.
type Registry struct {
	store    domrepo.ArtifactStore
	versions map[string]string
	names    []string
	trainers map[string]domsvc.ModelTrainer
	pub      domrepo.EventPublisher
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time

	snap    atomic.Pointer[snapshot]
	writeMu sync.Mutex

	retrainMu sync.Mutex
	running   *models.RetrainTicket
	tickets   map[string]*models.RetrainTicket
	order     []string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures Registry.
type Option func(*Registry)

func WithLogger(l *applogger.Logger) Option { return func(r *Registry) { r.l = l } }

func WithPublisher(p domrepo.EventPublisher) Option { return func(r *Registry) { r.pub = p } }

func WithMetrics(m domrepo.Metrics) Option { return func(r *Registry) { r.metrics = m } }

// WithTrainers attaches training entry points, keyed by their model name.
func WithTrainers(ts ...domsvc.ModelTrainer) Option {
	return func(r *Registry) {
		for _, t := range ts {
			r.trainers[t.ModelName()] = t
		}
	}
}

func withClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// New creates a registry for the given model name to version map.
func New(store domrepo.ArtifactStore, versions map[string]string, opts ...Option) *Registry {
	if len(versions) == 0 {
		versions = DefaultVersions()
	}
	r := &Registry{
		store:    store,
		versions: make(map[string]string, len(versions)),
		trainers: map[string]domsvc.ModelTrainer{},
		now:      time.Now,
		tickets:  map[string]*models.RetrainTicket{},
	}
	for name, v := range versions {
		r.versions[name] = v
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	for _, opt := range opts {
		opt(r)
	}
	r.baseCtx, r.cancel = context.WithCancel(context.Background())
	empty := snapshot{}
	r.snap.Store(&empty)
	return r
}

// LoadModels loads every registered artifact. A missing or unreadable
// artifact leaves that model not loaded; the rest still load.
func (r *Registry) LoadModels(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := r.copySnapshot()
	for _, name := range r.names {
		if err := ctx.Err(); err != nil {
			return err
		}
		version := r.versions[name]
		data, err := r.store.Load(ctx, name, version)
		if err != nil {
			if errors.Is(err, domrepo.ErrArtifactNotFound) {
				r.warn("model artifact not found", applogger.String("model", name), applogger.String("version", version))
			} else {
				r.error("model artifact load failed", applogger.String("model", name), applogger.String("version", version), applogger.Error(err))
			}
			r.setLoaded(name, next[name] != nil)
			continue
		}
		now := r.now()
		next[name] = &models.ModelArtifact{Name: name, Version: version, State: data, LoadedAt: now}
		r.setLoaded(name, true)
		r.info("model loaded", applogger.String("model", name), applogger.String("version", version), applogger.Int("bytes", len(data)))
	}
	r.snap.Store(&next)
	return nil
}

// SaveModel persists state for a registered model and swaps it in.
func (r *Registry) SaveModel(ctx context.Context, name string, state []byte) error {
	version, ok := r.versions[name]
	if !ok {
		return &models.UnknownModelError{Name: name}
	}
	data := append([]byte(nil), state...)

	r.writeMu.Lock()
	if err := r.store.Save(ctx, name, version, data); err != nil {
		r.writeMu.Unlock()
		r.error("model artifact save failed", applogger.String("model", name), applogger.Error(err))
		return fmt.Errorf("save model %s: %w", name, err)
	}
	now := r.now()
	next := r.copySnapshot()
	next[name] = &models.ModelArtifact{Name: name, Version: version, State: data, LoadedAt: now, SavedAt: now}
	r.snap.Store(&next)
	r.writeMu.Unlock()

	r.setLoaded(name, true)
	r.info("model saved", applogger.String("model", name), applogger.String("version", version), applogger.Int("bytes", len(data)))
	r.publish(ctx, models.ModelEvent{Type: "model.saved", Model: name, Version: version, Timestamp: now})
	return nil
}

// GetModel returns the current artifact for name. The artifact is shared
// and must not be modified.
func (r *Registry) GetModel(name string) (*models.ModelArtifact, bool) {
	a, ok := (*r.snap.Load())[name]
	return a, ok
}

// GetModelStatus reports version and load state for every registered model.
func (r *Registry) GetModelStatus() map[string]models.ModelStatus {
	snap := *r.snap.Load()
	out := make(map[string]models.ModelStatus, len(r.names))
	for _, name := range r.names {
		st := models.ModelStatus{Version: r.versions[name]}
		if a, ok := snap[name]; ok {
			st.Loaded = true
			loaded := a.LoadedAt
			st.LoadedAt = &loaded
			if !a.SavedAt.IsZero() {
				saved := a.SavedAt
				st.SavedAt = &saved
			}
		}
		out[name] = st
	}
	return out
}

// RetrainAllModels starts a background retrain of every model with a
// trainer and returns immediately. While a run is in progress the same
// ticket is returned.
func (r *Registry) RetrainAllModels(_ context.Context) models.RetrainTicket {
	r.retrainMu.Lock()
	defer r.retrainMu.Unlock()
	if r.running != nil {
		return copyTicket(r.running)
	}
	t := &models.RetrainTicket{
		ID:        uuid.NewString(),
		State:     models.RetrainRunning,
		StartedAt: r.now(),
		Results:   map[string]string{},
	}
	r.running = t
	r.tickets[t.ID] = t
	r.order = append(r.order, t.ID)
	if len(r.order) > maxTickets {
		delete(r.tickets, r.order[0])
		r.order = r.order[1:]
	}

	r.wg.Add(1)
	go r.retrain(t)
	r.info("retrain started", applogger.String("ticket", t.ID))
	return copyTicket(t)
}

// Ticket returns the state of a retrain run.
func (r *Registry) Ticket(id string) (models.RetrainTicket, bool) {
	r.retrainMu.Lock()
	defer r.retrainMu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return models.RetrainTicket{}, false
	}
	return copyTicket(t), true
}

func (r *Registry) retrain(t *models.RetrainTicket) {
	defer r.wg.Done()
	ctx := r.baseCtx
	ok, failed := 0, 0
	for _, name := range r.names {
		trainer, has := r.trainers[name]
		result := "skipped: no trainer"
		if has {
			start := r.now()
			state, err := trainer.Train(ctx)
			if err == nil {
				err = r.SaveModel(ctx, name, state)
			}
			if err != nil {
				failed++
				result = "failed: " + err.Error()
				r.error("retrain model failed", applogger.String("ticket", t.ID), applogger.String("model", name), applogger.Error(err))
			} else {
				ok++
				result = "ok"
				r.info("retrain model ok", applogger.String("ticket", t.ID), applogger.String("model", name), applogger.Duration("duration_ms", r.now().Sub(start)))
			}
		}
		r.retrainMu.Lock()
		t.Results[name] = result
		r.retrainMu.Unlock()
	}

	state := models.RetrainDone
	switch {
	case failed > 0 && ok > 0:
		state = models.RetrainPartial
	case failed > 0:
		state = models.RetrainFailed
	}
	finished := r.now()
	r.retrainMu.Lock()
	t.State = state
	t.FinishedAt = &finished
	r.running = nil
	r.retrainMu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordRetrain(string(state))
	}
	r.info("retrain finished", applogger.String("ticket", t.ID), applogger.String("state", string(state)))
	r.publish(ctx, models.ModelEvent{Type: "retrain.finished", TicketID: t.ID, State: string(state), Timestamp: finished})
}

// Wait blocks until in-flight retrain runs finish.
func (r *Registry) Wait() { r.wg.Wait() }

// Close cancels in-flight retraining and waits for it to stop.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Registry) copySnapshot() snapshot {
	cur := *r.snap.Load()
	next := make(snapshot, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	return next
}

func (r *Registry) publish(ctx context.Context, ev models.ModelEvent) {
	if r.pub == nil {
		return
	}
	if err := r.pub.PublishModelEvent(ctx, ev); err != nil {
		r.warn("model event publish failed", applogger.String("type", ev.Type), applogger.Error(err))
	}
}

func (r *Registry) setLoaded(name string, loaded bool) {
	if r.metrics != nil {
		r.metrics.SetModelLoaded(name, loaded)
	}
}

func (r *Registry) info(msg string, fields ...applogger.Field) {
	if r.l != nil {
		r.l.Info(msg, fields...)
	}
}

func (r *Registry) warn(msg string, fields ...applogger.Field) {
	if r.l != nil {
		r.l.Warn(msg, fields...)
	}
}

func (r *Registry) error(msg string, fields ...applogger.Field) {
	if r.l != nil {
		r.l.Error(msg, fields...)
	}
}

func copyTicket(t *models.RetrainTicket) models.RetrainTicket {
	c := *t
	c.Results = make(map[string]string, len(t.Results))
	for k, v := range t.Results {
		c.Results[k] = v
	}
	if t.FinishedAt != nil {
		f := *t.FinishedAt
		c.FinishedAt = &f
	}
	return c
}
