package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a decrement would drive stock negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// Gateway exposes product lookups and stock commits to other domains. Every
// call runs on the caller's transaction when one is supplied.
type Gateway struct {
	repo *Repository
}

// NewGateway wraps the catalog repository.
func NewGateway(repo *Repository) (*Gateway, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Gateway{repo: repo}, nil
}

// LookupProducts resolves ids to their live snapshots.
func (g *Gateway) LookupProducts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error) {
	rows, err := g.repo.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]ProductSnapshot, len(rows))
	for id, row := range rows {
		out[id] = snapshotFromModel(row)
	}
	return out, nil
}

// CommitStock decrements stock for a confirmed order line.
func (g *Gateway) CommitStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("commit stock: qty must be positive")
	}
	ok, err := g.repo.WithTx(tx).DecrementStock(ctx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	return nil
}
