package contexts

import (
	"context"

	"submissions/internal/types"
)

// Repository manages contexts. Creating a context installs its default genres,
// deleting one removes its genres first.
type Repository interface {
	GetById(ctx context.Context, id int64) (*types.Context, error)
	GetByPath(ctx context.Context, path string) (*types.Context, error)
	GetAll(ctx context.Context) ([]*types.Context, error)

	// Insert returns the new id and whether default genres were installed.
	Insert(ctx context.Context, c *types.Context) (int64, bool, error)
	Update(ctx context.Context, c *types.Context) error
	Delete(ctx context.Context, id int64) error
}
