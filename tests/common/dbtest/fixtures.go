//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestUser(t *testing.T, db DBLike, email, role string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, `INSERT INTO users (id, first_name, last_name, email, mobile_number, role)
		VALUES ($1, 'Test', 'User', $2, '9999999999', $3) ON CONFLICT (email) DO NOTHING`,
		userID, email, role)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	}

	return userID
}

// CreateTestProperty inserts an active property priced in minor units per night.
func CreateTestProperty(t *testing.T, db DBLike, hostID uuid.UUID, title string, price, weekendPrice int64, maxGuests int) uuid.UUID {
	t.Helper()

	propertyID := uuid.New()
	_, err := db.Exec(context.Background(), `INSERT INTO properties
		(id, host_id, title, address_line, city, state, pincode, price, weekend_price, max_guests, is_active)
		VALUES ($1, $2, $3, '12 Beach Road', 'Goa', 'Goa', '403001', $4, $5, $6, true)`,
		propertyID, hostID, title, price, weekendPrice, maxGuests)
	require.NoError(t, err)
	return propertyID
}

func CreateBlockedDates(t *testing.T, db DBLike, propertyID uuid.UUID, start, end time.Time) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO property_blocked_dates (property_id, start_date, end_date) VALUES ($1, $2, $3)",
		propertyID, start, end)
	require.NoError(t, err)
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, db DBLike, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

// SeedReferenceData inserts the admin account shared by tests.
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, role) VALUES
		    (gen_random_uuid(), 'Admin', 'User', 'admin@example.com', 'admin')
		ON CONFLICT (email) DO NOTHING;
	`)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
