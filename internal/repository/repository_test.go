package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	pkgkafka "FinAdvisor/pkg/kafka"
	"FinAdvisor/pkg/kv"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCHNavStoreGetNavHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := day(2024, 1, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM finadvisor.nav_history FINAL")).
		WithArgs("119551", from).
		WillReturnRows(sqlmock.NewRows([]string{"nav_date", "nav"}).
			AddRow(day(2024, 1, 2), 101.5).
			AddRow(day(2024, 1, 3), 102.25))

	s := newCHNavStore(db, "finadvisor")
	series, err := s.GetNavHistory(context.Background(), "119551", from)
	require.NoError(t, err)
	assert.Equal(t, "119551", series.FundID)
	assert.Equal(t, []float64{101.5, 102.25}, series.Values())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCHNavStoreRejectsNonPositiveNav(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("nav_history").
		WillReturnRows(sqlmock.NewRows([]string{"nav_date", "nav"}).
			AddRow(day(2024, 1, 2), 0.0))

	_, err = newCHNavStore(db, "finadvisor").GetNavHistory(context.Background(), "x", day(2024, 1, 1))
	var integrity *models.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "value", integrity.Field)
}

func TestCHNavStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("nav_history").WillReturnError(errors.New("connection reset"))
	_, err = newCHNavStore(db, "finadvisor").GetNavHistory(context.Background(), "x", day(2024, 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get nav history")
}

func TestFileArtifactStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileArtifactStore(filepath.Join(dir, "models"))
	ctx := context.Background()

	_, err := s.Load(ctx, models.ModelNavPredictor, "1.0")
	require.ErrorIs(t, err, domrepo.ErrArtifactNotFound)

	require.NoError(t, s.Save(ctx, models.ModelNavPredictor, "1.0", []byte("first")))
	require.NoError(t, s.Save(ctx, models.ModelNavPredictor, "1.0", []byte("second")))

	data, err := s.Load(ctx, models.ModelNavPredictor, "1.0")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "models"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nav_predictor_v1.0.model", entries[0].Name())
}

func TestFileArtifactStoreConcurrentLoadSeesWholeArtifact(t *testing.T) {
	s := NewFileArtifactStore(t.TempDir())
	ctx := context.Background()
	a := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NoError(t, s.Save(ctx, "m", "1", a))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			next := a
			if i%2 == 0 {
				next = b
			}
			assert.NoError(t, s.Save(ctx, "m", "1", next))
		}
	}()
	for i := 0; i < 200; i++ {
		data, err := s.Load(ctx, "m", "1")
		require.NoError(t, err)
		assert.Contains(t, []string{string(a), string(b)}, string(data))
	}
	wg.Wait()
}

func TestFileArtifactStoreRejectsPathTraversal(t *testing.T) {
	s := NewFileArtifactStore(t.TempDir())
	err := s.Save(context.Background(), "../escape", "1", []byte("x"))
	require.Error(t, err)
}

func TestRedisArtifactStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisArtifactStore(kv.Wrap(client, "finadvisor"))
	ctx := context.Background()

	mock.ExpectGet("finadvisor:artifact:risk_scorer:1.0").RedisNil()
	_, err := s.Load(ctx, models.ModelRiskScorer, "1.0")
	require.ErrorIs(t, err, domrepo.ErrArtifactNotFound)

	mock.ExpectSet("finadvisor:artifact:risk_scorer:1.0", []byte(`{"a":1}`), 0).SetVal("OK")
	require.NoError(t, s.Save(ctx, models.ModelRiskScorer, "1.0", []byte(`{"a":1}`)))

	mock.ExpectGet("finadvisor:artifact:risk_scorer:1.0").SetVal(`{"a":1}`)
	data, err := s.Load(ctx, models.ModelRiskScorer, "1.0")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	mock.ExpectGet("finadvisor:artifact:risk_scorer:1.0").SetErr(errors.New("READONLY"))
	_, err = s.Load(ctx, models.ModelRiskScorer, "1.0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domrepo.ErrArtifactNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaEventPublisherKeysByModel(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "gzip"), "model-events")

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.PublishModelEvent(context.Background(), models.ModelEvent{Type: "model.saved", Model: "risk_scorer", Version: "1.0", Timestamp: ts}))
	require.NoError(t, p.PublishModelEvent(context.Background(), models.ModelEvent{Type: "retrain.finished", TicketID: "t-1", State: "done", Timestamp: ts}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "risk_scorer", string(w.msgs[0].Key))
	assert.Equal(t, "t-1", string(w.msgs[1].Key))
	assert.JSONEq(t, `{"type":"model.saved","model":"risk_scorer","version":"1.0","timestamp":"2024-05-01T12:00:00Z"}`, string(w.msgs[0].Value))
}

type recordingQuerier struct {
	sql    string
	args   []any
	rowErr error
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func (q *recordingQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, errors.New("query not served")
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return errRow{err: q.rowErr}
}

func (q *recordingQuerier) Ping(context.Context) error { return nil }

func TestPGFundStoreCategoryMatchIsLiteral(t *testing.T) {
	q := &recordingQuerier{}
	s := &PGFundStore{pool: q}

	_, err := s.FundsByCategory(context.Background(), "Equity_100%", 5)
	require.Error(t, err)
	assert.Contains(t, q.sql, "lower(category) = lower($1)")
	assert.NotContains(t, q.sql, "LIKE")
	assert.Equal(t, []any{"Equity_100%", 5}, q.args)
}

func TestPGFundStoreGetFundNotFound(t *testing.T) {
	s := &PGFundStore{pool: &recordingQuerier{rowErr: pgx.ErrNoRows}}

	_, err := s.GetFund(context.Background(), "119551")
	require.ErrorIs(t, err, models.ErrFundNotFound)
}
