package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failKey string
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Load(_ context.Context, name, version string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[name+"@"+version]
	if !ok {
		return nil, domrepo.ErrArtifactNotFound
	}
	return b, nil
}

func (s *memStore) Save(_ context.Context, name, version string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.failKey {
		return errors.New("disk full")
	}
	s.data[name+"@"+version] = data
	return nil
}

type stubTrainer struct {
	name    string
	state   []byte
	err     error
	release chan struct{}
}

func (t *stubTrainer) ModelName() string { return t.name }

func (t *stubTrainer) Train(ctx context.Context) ([]byte, error) {
	if t.release != nil {
		select {
		case <-t.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return t.state, t.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ModelEvent
}

func (p *recordingPublisher) PublishModelEvent(_ context.Context, ev models.ModelEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestLoadModelsToleratesMissingArtifacts(t *testing.T) {
	store := newMemStore()
	store.data[models.ModelRiskScorer+"@1.0"] = []byte(`{"w":1}`)

	r := New(store, nil)
	require.NoError(t, r.LoadModels(context.Background()))

	status := r.GetModelStatus()
	require.Len(t, status, 3)
	assert.True(t, status[models.ModelRiskScorer].Loaded)
	assert.NotNil(t, status[models.ModelRiskScorer].LoadedAt)
	assert.False(t, status[models.ModelNavPredictor].Loaded)
	assert.False(t, status[models.ModelPortfolioOptimizer].Loaded)
	assert.Equal(t, "1.0", status[models.ModelNavPredictor].Version)

	a, ok := r.GetModel(models.ModelRiskScorer)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"w":1}`), a.State)
}

func TestSaveModelUnknownName(t *testing.T) {
	r := New(newMemStore(), nil)
	err := r.SaveModel(context.Background(), "sentiment", []byte("x"))

	var unknown *models.UnknownModelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "sentiment", unknown.Name)
}

func TestSaveModelPersistsBeforePublishing(t *testing.T) {
	store := newMemStore()
	store.failKey = models.ModelNavPredictor
	r := New(store, nil)

	err := r.SaveModel(context.Background(), models.ModelNavPredictor, []byte("v2"))
	require.Error(t, err)
	_, ok := r.GetModel(models.ModelNavPredictor)
	assert.False(t, ok)
}

func TestSaveThenReloadRoundTrip(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	r := New(store, nil, WithPublisher(pub))
	require.NoError(t, r.SaveModel(context.Background(), models.ModelRiskScorer, []byte("state")))

	fresh := New(store, nil)
	require.NoError(t, fresh.LoadModels(context.Background()))
	a, ok := fresh.GetModel(models.ModelRiskScorer)
	require.True(t, ok)
	assert.Equal(t, []byte("state"), a.State)
	assert.Equal(t, []string{"model.saved"}, pub.types())

	st := r.GetModelStatus()[models.ModelRiskScorer]
	assert.NotNil(t, st.SavedAt)
}

func TestRetrainKeepsOldArtifactVisibleUntilSwap(t *testing.T) {
	store := newMemStore()
	store.data[models.ModelNavPredictor+"@1.0"] = []byte("old")
	release := make(chan struct{})
	pub := &recordingPublisher{}

	r := New(store, map[string]string{models.ModelNavPredictor: "1.0"},
		WithTrainers(&stubTrainer{name: models.ModelNavPredictor, state: []byte("new"), release: release}),
		WithPublisher(pub),
	)
	defer r.Close()
	require.NoError(t, r.LoadModels(context.Background()))

	ticket := r.RetrainAllModels(context.Background())
	assert.Equal(t, models.RetrainRunning, ticket.State)
	assert.NotEmpty(t, ticket.ID)

	again := r.RetrainAllModels(context.Background())
	assert.Equal(t, ticket.ID, again.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a, ok := r.GetModel(models.ModelNavPredictor)
				if assert.True(t, ok) {
					assert.Contains(t, []string{"old", "new"}, string(a.State))
				}
			}
		}()
	}
	wg.Wait()

	a, _ := r.GetModel(models.ModelNavPredictor)
	assert.Equal(t, "old", string(a.State))

	close(release)
	r.Wait()

	a, _ = r.GetModel(models.ModelNavPredictor)
	assert.Equal(t, "new", string(a.State))

	done, ok := r.Ticket(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, models.RetrainDone, done.State)
	assert.Equal(t, "ok", done.Results[models.ModelNavPredictor])
	require.NotNil(t, done.FinishedAt)
	assert.Equal(t, []string{"model.saved", "retrain.finished"}, pub.types())
}

func TestRetrainPartialFailure(t *testing.T) {
	r := New(newMemStore(), nil, WithTrainers(
		&stubTrainer{name: models.ModelRiskScorer, state: []byte("r")},
		&stubTrainer{name: models.ModelNavPredictor, err: errors.New("no data")},
	))
	defer r.Close()

	ticket := r.RetrainAllModels(context.Background())
	r.Wait()

	done, ok := r.Ticket(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, models.RetrainPartial, done.State)
	assert.Equal(t, "ok", done.Results[models.ModelRiskScorer])
	assert.Contains(t, done.Results[models.ModelNavPredictor], "no data")
	assert.Equal(t, "skipped: no trainer", done.Results[models.ModelPortfolioOptimizer])

	_, ok = r.GetModel(models.ModelNavPredictor)
	assert.False(t, ok)
}

func TestCloseCancelsRunningRetrain(t *testing.T) {
	r := New(newMemStore(), map[string]string{models.ModelNavPredictor: "1.0"},
		WithTrainers(&stubTrainer{name: models.ModelNavPredictor, release: make(chan struct{})}))

	ticket := r.RetrainAllModels(context.Background())

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not stop retrain")
	}

	done, _ := r.Ticket(ticket.ID)
	assert.Equal(t, models.RetrainFailed, done.State)
}

func TestTicketUnknown(t *testing.T) {
	r := New(newMemStore(), nil)
	_, ok := r.Ticket("missing")
	assert.False(t, ok)
}
