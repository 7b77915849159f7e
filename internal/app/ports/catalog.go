package ports

import (
	"context"

	"villagelife/internal/domain/task"
)

// CatalogLoader supplies the template and chain records the task catalog
// is built from.
type CatalogLoader interface {
	Load(ctx context.Context) ([]task.Template, []task.Chain, error)
}
