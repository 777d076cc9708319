package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/storefront/auth-core/internal/core/domain"
	"github.com/storefront/auth-core/pkg/logger"
)

// LogRepository writes audit events to the structured log. It backs the
// dispatcher when the service runs without MongoDB.
type LogRepository struct {
	log zerolog.Logger
}

func NewLogRepository(log zerolog.Logger) *LogRepository {
	return &LogRepository{log: log}
}

func (r *LogRepository) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	r.log.Info().
		Str("type", string(event.Type)).
		Str("identity_id", event.IdentityID).
		Str("email", logger.MaskEmail(event.Email)).
		Time("at", event.At).
		Str("detail", event.Detail).
		Msg("auth event")
	return nil
}
