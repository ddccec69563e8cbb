package playerrepository

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

type PostgresPlayerRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresPlayerRepository(db *sqlx.DB, schema string) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db, schema}
}

type dbPlayerRecord struct {
	RecordKey    string    `db:"record_key"`
	StableID     string    `db:"stable_id"`
	CompoundName string    `db:"compound_name"`
	Region       string    `db:"region"`
	LastUpdated  time.Time `db:"last_updated"`
}

func (p *PostgresPlayerRepository) UpsertPlayerRecord(ctx context.Context, record *domain.PlayerRecord) error {
	if record == nil {
		err := fmt.Errorf("record is nil")
		reporting.Report(ctx, err)
		return err
	}

	if record.RecordKey == "" || record.StableID == "" {
		err := fmt.Errorf("record is missing key or stable id")
		reporting.Report(ctx, err, map[string]string{
			"recordKey": record.RecordKey,
		})
		return err
	}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": record.RecordKey,
		})
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": record.RecordKey,
		})
		return err
	}

	// Repeat runs overwrite; there are no merge semantics for records.
	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO player_records
			(record_key, stable_id, compound_name, region, last_updated)
		VALUES
			($1, $2, $3, $4, $5)
		ON CONFLICT (record_key) DO UPDATE SET
			stable_id = EXCLUDED.stable_id,
			compound_name = EXCLUDED.compound_name,
			region = EXCLUDED.region,
			last_updated = EXCLUDED.last_updated`,
		record.RecordKey,
		record.StableID,
		record.CompoundName,
		record.Region,
		record.LastUpdated,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert player record: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": record.RecordKey,
		})
		return err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": record.RecordKey,
		})
		return err
	}

	return nil
}

func (p *PostgresPlayerRepository) GetPlayerRecord(ctx context.Context, recordKey string) (*domain.PlayerRecord, error) {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": recordKey,
		})
		return nil, err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": recordKey,
		})
		return nil, err
	}

	var dbRecord dbPlayerRecord
	err = txx.QueryRowxContext(
		ctx,
		`SELECT record_key, stable_id, compound_name, region, last_updated
		FROM player_records
		WHERE record_key = $1`,
		recordKey,
	).StructScan(&dbRecord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to query player record: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"recordKey": recordKey,
		})
		return nil, err
	}

	return &domain.PlayerRecord{
		RecordKey:    dbRecord.RecordKey,
		StableID:     dbRecord.StableID,
		CompoundName: dbRecord.CompoundName,
		Region:       dbRecord.Region,
		LastUpdated:  dbRecord.LastUpdated,
	}, nil
}

// StubPlayerRepository keeps records in memory for development runs without a
// database.
type StubPlayerRepository struct {
	mutex   sync.Mutex
	records map[string]domain.PlayerRecord
}

func (p *StubPlayerRepository) UpsertPlayerRecord(ctx context.Context, record *domain.PlayerRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.records[record.RecordKey] = *record
	return nil
}

func (p *StubPlayerRepository) GetPlayerRecord(ctx context.Context, recordKey string) (*domain.PlayerRecord, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	record, ok := p.records[recordKey]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &record, nil
}

func NewStubPlayerRepository() *StubPlayerRepository {
	return &StubPlayerRepository{
		records: make(map[string]domain.PlayerRecord),
	}
}

func NewPostgresPlayerRepositoryOrMock(ctx context.Context, conf config.Config, logger *slog.Logger) (PlayerRepository, error) {
	repositorySchemaName := database.GetSchemaName(!conf.IsProduction())

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(conf)

	if err == nil {
		err := database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return NewPostgresPlayerRepository(db, repositorySchemaName), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("Failed to connect to database. Falling back to stub repository.", "error", err.Error())
		return NewStubPlayerRepository(), nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
