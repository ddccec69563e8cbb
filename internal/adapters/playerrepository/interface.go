package playerrepository

import (
	"context"

	"github.com/Amund211/riftlight/internal/domain"
)

type PlayerRepository interface {
	UpsertPlayerRecord(ctx context.Context, record *domain.PlayerRecord) error
	GetPlayerRecord(ctx context.Context, recordKey string) (*domain.PlayerRecord, error)
}
