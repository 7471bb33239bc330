package postgres

import (
	"context"
	"fmt"

	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

type counterRepository struct {
	db DB
}

func NewCounterRepository(db DB) interfaces.CounterRepository {
	return &counterRepository{db: db}
}

// NextValue allocates the current counter value and advances it in one
// atomic statement. The row is lazily created at 1 on first use, so the
// first allocation returns 1 and leaves 2 behind.
func (r *counterRepository) NextValue(ctx context.Context, name string) (int, error) {
	query := `
		INSERT INTO counters (name, value)
		VALUES ($1, 2)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value - 1
	`

	var value int
	if err := r.db.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to advance counter %q: %w", name, err)
	}

	return value, nil
}
