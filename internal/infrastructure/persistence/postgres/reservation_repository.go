package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq/charterdesk/internal/domain"
)

type ReservationRepository struct {
	q Executor
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{q: pool}
}

// MaterializeRooms inserts one reservation row per room selection. The
// unique (booking_id, room_id) constraint with ON CONFLICT DO NOTHING makes
// the insert a no-op for rows that already exist, so a duplicated
// confirmation never double-books.
func (r *ReservationRepository) MaterializeRooms(ctx context.Context, booking *domain.Booking) (int, error) {
	query := `
		INSERT INTO booking_rooms (id, booking_id, room_id, room_name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (booking_id, room_id) DO NOTHING
	`

	now := time.Now()
	inserted := 0
	for _, room := range booking.Rooms {
		tag, err := r.q.Exec(ctx, query,
			uuid.New(), booking.ID, room.RoomID, room.Name, room.Quantity, room.UnitPrice, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to materialize room reservation: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
