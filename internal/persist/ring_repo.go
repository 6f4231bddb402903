package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/ring"
)

// RingRepo stores worn summoning rings in postgres.
type RingRepo struct {
	db *DB
}

func NewRingRepo(db *DB) *RingRepo {
	return &RingRepo{db: db}
}

func (r *RingRepo) LoadWornRings(ctx context.Context) ([]ring.WornRing, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT ring_id, agent_id, pack, ring_name, location, tile_x, tile_y
		 FROM worn_rings
		 ORDER BY ring_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query worn rings: %w", err)
	}
	defer rows.Close()

	var result []ring.WornRing
	for rows.Next() {
		var (
			w      ring.WornRing
			ringID int64
			x, y   int32
		)
		if err := rows.Scan(&ringID, &w.AgentID, &w.Pack, &w.RingName, &w.Location, &x, &y); err != nil {
			return nil, fmt.Errorf("scan worn ring: %w", err)
		}
		w.RingID = uint64(ringID)
		w.Tile = companion.Tile{X: int(x), Y: int(y)}
		result = append(result, w)
	}
	return result, rows.Err()
}

// SaveWornRings applies upserts and deletes in a single transaction.
func (r *RingRepo) SaveWornRings(ctx context.Context, changed []ring.WornRing, removed []uint64) error {
	if len(changed) == 0 && len(removed) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("worn rings begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range changed {
		if _, err := tx.Exec(ctx,
			`INSERT INTO worn_rings (ring_id, agent_id, pack, ring_name, location, tile_x, tile_y, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			 ON CONFLICT (ring_id) DO UPDATE SET
			   agent_id = EXCLUDED.agent_id,
			   pack = EXCLUDED.pack,
			   ring_name = EXCLUDED.ring_name,
			   location = EXCLUDED.location,
			   tile_x = EXCLUDED.tile_x,
			   tile_y = EXCLUDED.tile_y,
			   updated_at = now()`,
			int64(w.RingID), w.AgentID, w.Pack, w.RingName, w.Location, int32(w.Tile.X), int32(w.Tile.Y),
		); err != nil {
			return fmt.Errorf("worn ring upsert %d: %w", w.RingID, err)
		}
	}
	for _, id := range removed {
		if _, err := tx.Exec(ctx, `DELETE FROM worn_rings WHERE ring_id = $1`, int64(id)); err != nil {
			return fmt.Errorf("worn ring delete %d: %w", id, err)
		}
	}

	return tx.Commit(ctx)
}
