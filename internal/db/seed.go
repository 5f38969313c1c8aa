package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"terrafield/internal/core/domain"
)

// Seed inserts demo cities and territories. It is idempotent: names
// derive fixed uuids so reruns hit ON CONFLICT DO NOTHING.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	cities := []string{"Riverton", "Eastfall", "Marwick"}
	for _, city := range cities {
		cityID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("city:"+city))
		_, err := db.Exec(ctx, `INSERT INTO cities (id, name, created_at)
			VALUES ($1,$2,now()) ON CONFLICT DO NOTHING`, cityID, city)
		if err != nil {
			return err
		}
		for i := 1; i <= 8; i++ {
			name := fmt.Sprintf("%s %02d", city, i)
			id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("territory:"+name))
			_, err = db.Exec(ctx, `INSERT INTO territories
				(id, name, city_id, status, last_visited_on, note, created_at, updated_at)
				VALUES ($1,$2,$3,$4,'','',now(),now()) ON CONFLICT DO NOTHING`,
				id, name, cityID, domain.StatusAvailable)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
