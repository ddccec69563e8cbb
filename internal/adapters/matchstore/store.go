package matchstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Amund211/riftlight/internal/adapters/database"
	"github.com/Amund211/riftlight/internal/config"
	"github.com/Amund211/riftlight/internal/domain"
	"github.com/Amund211/riftlight/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresMatchStore struct {
	db     *sqlx.DB
	schema string

	nowFunc func() time.Time
}

func NewPostgresMatchStore(db *sqlx.DB, schema string, nowFunc func() time.Time) *PostgresMatchStore {
	return &PostgresMatchStore{
		db:      db,
		schema:  schema,
		nowFunc: nowFunc,
	}
}

func (m *PostgresMatchStore) StoreMatch(ctx context.Context, region string, stableID string, matchID string, payload []byte) error {
	if region == "" || stableID == "" || matchID == "" {
		err := fmt.Errorf("match key is incomplete")
		reporting.Report(ctx, err, map[string]string{
			"region":  region,
			"matchId": matchID,
		})
		return err
	}

	txx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(m.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO match_artifacts
			(region, stable_id, match_id, payload, stored_at)
		VALUES
			($1, $2, $3, $4, $5)
		ON CONFLICT (region, stable_id, match_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			stored_at = EXCLUDED.stored_at`,
		region,
		stableID,
		matchID,
		payload,
		m.nowFunc(),
	)
	if err != nil {
		err := fmt.Errorf("failed to store match artifact: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return err
	}

	return nil
}

func (m *PostgresMatchStore) GetMatch(ctx context.Context, region string, stableID string, matchID string) ([]byte, error) {
	txx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return nil, err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(m.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return nil, err
	}

	var payload []byte
	err = txx.QueryRowxContext(
		ctx,
		`SELECT payload FROM match_artifacts
		WHERE region = $1 AND stable_id = $2 AND match_id = $3`,
		region,
		stableID,
		matchID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to query match artifact: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": matchID,
		})
		return nil, err
	}

	return payload, nil
}

type stubMatchKey struct {
	region   string
	stableID string
	matchID  string
}

// StubMatchStore keeps artifacts in memory for development runs without a
// database.
type StubMatchStore struct {
	mutex   sync.Mutex
	matches map[stubMatchKey][]byte
}

func (m *StubMatchStore) StoreMatch(ctx context.Context, region string, stableID string, matchID string, payload []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.matches[stubMatchKey{region, stableID, matchID}] = payload
	return nil
}

func (m *StubMatchStore) GetMatch(ctx context.Context, region string, stableID string, matchID string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	payload, ok := m.matches[stubMatchKey{region, stableID, matchID}]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return payload, nil
}

func NewStubMatchStore() *StubMatchStore {
	return &StubMatchStore{
		matches: make(map[stubMatchKey][]byte),
	}
}

func NewPostgresMatchStoreOrMock(ctx context.Context, conf config.Config, logger *slog.Logger) (MatchStore, error) {
	schemaName := database.GetSchemaName(!conf.IsProduction())

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(conf)

	if err == nil {
		err := database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return NewPostgresMatchStore(db, schemaName, time.Now), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("Failed to connect to database. Falling back to stub store.", "error", err.Error())
		return NewStubMatchStore(), nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
