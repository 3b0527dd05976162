package cases

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerline/docket/pkg/pagination"
)

// System defines the public contract for case archive operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Create(ctx context.Context, cmd CreateCommand) (*Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
