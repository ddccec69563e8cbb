package stagetrigger

import (
	"context"

	"github.com/Amund211/riftlight/internal/domain"
)

// StageTrigger hands one stored match off to the next pipeline stage.
// Delivery is at-most-once: Publish returns once the handoff is accepted,
// without waiting for the downstream stage to process it.
type StageTrigger interface {
	Publish(ctx context.Context, payload domain.StageTriggerPayload) error
}
