package stage

import (
	"context"
	"log/slog"
)

// Handler describes the contract the executor needs from each stage.
// Prepare discovers units from upstream artifacts; an error aborts the
// stage. Execute produces one unit's artifacts; an error fails only that
// unit.
type Handler interface {
	Prepare(context.Context) ([]*Unit, error)
	Execute(context.Context, *Unit) error
	HealthCheck(context.Context) Health
}

// LoggerAware handlers receive the stage-scoped logger before Prepare runs.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
