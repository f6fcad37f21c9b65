package server

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

// statusCode classifies err for transport. Rejected actions are the
// client's fault; failed games and broken content are not retryable.
func statusCode(err error) codes.Code {
	var (
		invalid   *game.InvalidActionError
		integrity *cards.DataIntegrityError
	)
	switch {
	case errors.Is(err, table.ErrGameNotFound), errors.Is(err, table.ErrNotSeated):
		return codes.NotFound
	case errors.Is(err, table.ErrGameExists):
		return codes.AlreadyExists
	case errors.Is(err, table.ErrStaleVersion):
		return codes.Aborted
	case errors.Is(err, table.ErrGameFailed), errors.Is(err, table.ErrGameFinished):
		return codes.FailedPrecondition
	case errors.As(err, &invalid):
		return codes.InvalidArgument
	case errors.As(err, &integrity):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	return status.Error(statusCode(err), err.Error())
}
