package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// HolidayRepository stores holiday calendars and their dates.
type HolidayRepository interface {
	CreateCalendar(ctx context.Context, calendar *domain.HolidayCalendar) error
	GetCalendar(ctx context.Context, id string) (*domain.HolidayCalendar, error)
}

type holidayRepository struct {
	pool *pgxpool.Pool
}

// NewHolidayRepository instantiates repository.
func NewHolidayRepository(pool *pgxpool.Pool) HolidayRepository {
	return &holidayRepository{pool: pool}
}

func (r *holidayRepository) CreateCalendar(ctx context.Context, calendar *domain.HolidayCalendar) error {
	const insertCalendar = `
        INSERT INTO holiday_calendars (name)
        VALUES ($1)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, insertCalendar, calendar.Name).
		Scan(&calendar.ID, &calendar.CreatedAt); err != nil {
		return err
	}
	const insertDate = `INSERT INTO holiday_dates (calendar_id, day) VALUES ($1,$2) ON CONFLICT DO NOTHING`
	for _, date := range calendar.Dates {
		if _, err := r.pool.Exec(ctx, insertDate, calendar.ID, date); err != nil {
			return err
		}
	}
	return nil
}

func (r *holidayRepository) GetCalendar(ctx context.Context, id string) (*domain.HolidayCalendar, error) {
	const calendarQuery = `SELECT id, name, created_at FROM holiday_calendars WHERE id=$1`
	var calendar domain.HolidayCalendar
	if err := r.pool.QueryRow(ctx, calendarQuery, id).
		Scan(&calendar.ID, &calendar.Name, &calendar.CreatedAt); err != nil {
		return nil, err
	}

	const datesQuery = `SELECT day FROM holiday_dates WHERE calendar_id=$1 ORDER BY day ASC`
	rows, err := r.pool.Query(ctx, datesQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		calendar.Dates = append(calendar.Dates, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &calendar, nil
}
