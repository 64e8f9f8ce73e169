// Package storage реализует хранилище данных на основе PostgreSQL
// для расписания артиста: рабочие часы, выходные, блокировки времени,
// временные изменения графика, брони и гостевые туры. Движок доступности
// владеет этими данными только на время вызова; границы транзакций — здесь.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/models"
	"github.com/magabrotheeeer/availability-engine/internal/recurrence"
)

// ErrNotFound запись не найдена или не принадлежит артисту.
var ErrNotFound = errors.New("not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// ===== WORK HOURS =====

// GetWorkHours возвращает рабочие часы артиста по умолчанию.
// Отсутствие строк — это пустой график, не ошибка.
func (s *Storage) GetWorkHours(ctx context.Context, artistID string) (models.WorkHours, error) {
	const op = "storage.GetWorkHours"

	query := `SELECT weekday, start_time, end_time
			  FROM work_hours WHERE artist_id = $1`
	rows, err := s.DB.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	hours := models.WorkHours{}
	for rows.Next() {
		var weekday int
		var startRaw, endRaw string
		if err := rows.Scan(&weekday, &startRaw, &endRaw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		start, err := clock.Parse(startRaw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		end, err := clock.Parse(endRaw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		hours[time.Weekday(weekday)] = models.WorkWindow{Start: start, End: end}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hours, nil
}

// SetWorkHours заменяет рабочие часы артиста целиком в одной транзакции.
func (s *Storage) SetWorkHours(ctx context.Context, artistID string, hours models.WorkHours) error {
	const op = "storage.SetWorkHours"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_hours WHERE artist_id = $1`, artistID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO work_hours (artist_id, weekday, start_time, end_time)
			  VALUES ($1, $2, $3, $4)`
	for weekday, window := range hours {
		if _, err := tx.ExecContext(ctx, query,
			artistID, int(weekday), window.Start.String(), window.End.String()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== OFF DAYS =====

// CreateOffDaySeries вставляет все вхождения серии выходных в одной
// транзакции: либо сохраняется серия целиком, либо ничего. Это защищает
// от наполовину созданной повторяющейся серии при сбое в середине.
func (s *Storage) CreateOffDaySeries(ctx context.Context, series []models.OffDay) error {
	const op = "storage.CreateOffDaySeries"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO off_days (id, series_id, artist_id, title, start_date, end_date,
				  is_repeat, repeat_kind, repeat_amount, repeat_unit, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, od := range series {
		kind, amount, unit := ruleColumns(od.RepeatRule)
		_, err := tx.ExecContext(ctx, query,
			od.ID, od.SeriesID, od.ArtistID, od.Title,
			od.Range.Start.String(), od.Range.End.String(),
			od.IsRepeat, kind, amount, unit, od.Notes)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveOffDaySeries удаляет серию выходных и возвращает удалённые вхождения.
func (s *Storage) RemoveOffDaySeries(ctx context.Context, artistID, seriesID string) ([]models.OffDay, error) {
	const op = "storage.RemoveOffDaySeries"

	query := `DELETE FROM off_days
			  WHERE artist_id = $1 AND series_id = $2
			  RETURNING id, series_id, artist_id, title, start_date, end_date,
				  is_repeat, repeat_kind, repeat_amount, repeat_unit, notes`
	rows, err := s.DB.QueryContext(ctx, query, artistID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var removed []models.OffDay
	for rows.Next() {
		od, err := scanOffDay(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		removed = append(removed, od)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(removed) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return removed, nil
}

// ListOffDays возвращает выходные артиста, пересекающиеся с диапазоном дат.
func (s *Storage) ListOffDays(ctx context.Context, artistID string, r date.Range) ([]models.OffDay, error) {
	const op = "storage.ListOffDays"

	query := `SELECT id, series_id, artist_id, title, start_date, end_date,
				  is_repeat, repeat_kind, repeat_amount, repeat_unit, notes
			  FROM off_days
			  WHERE artist_id = $1 AND start_date <= $2 AND end_date >= $3
			  ORDER BY start_date`
	rows, err := s.DB.QueryContext(ctx, query, artistID, r.End.String(), r.Start.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.OffDay
	for rows.Next() {
		od, err := scanOffDay(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, od)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ===== BLOCK TIMES =====

// CreateBlockTimeSeries вставляет все вхождения серии блокировок в одной
// транзакции, как и CreateOffDaySeries.
func (s *Storage) CreateBlockTimeSeries(ctx context.Context, series []models.EventBlockTime) error {
	const op = "storage.CreateBlockTimeSeries"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO block_times (id, series_id, artist_id, date, title,
				  start_time, end_time, repeatable, repeat_kind, repeat_amount, repeat_unit, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, bt := range series {
		kind, amount, unit := ruleColumns(bt.RepeatRule)
		_, err := tx.ExecContext(ctx, query,
			bt.ID, bt.SeriesID, bt.ArtistID, bt.Date.String(), bt.Title,
			bt.StartTime.String(), bt.EndTime.String(),
			bt.Repeatable, kind, amount, unit, bt.Notes)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveBlockTimeSeries удаляет серию блокировок и возвращает удалённые вхождения.
func (s *Storage) RemoveBlockTimeSeries(ctx context.Context, artistID, seriesID string) ([]models.EventBlockTime, error) {
	const op = "storage.RemoveBlockTimeSeries"

	query := `DELETE FROM block_times
			  WHERE artist_id = $1 AND series_id = $2
			  RETURNING id, series_id, artist_id, date, title, start_time, end_time,
				  repeatable, repeat_kind, repeat_amount, repeat_unit, notes`
	rows, err := s.DB.QueryContext(ctx, query, artistID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var removed []models.EventBlockTime
	for rows.Next() {
		bt, err := scanBlockTime(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		removed = append(removed, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(removed) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return removed, nil
}

// ListBlockTimes возвращает блокировки артиста на дату по возрастанию времени начала.
func (s *Storage) ListBlockTimes(ctx context.Context, artistID string, day date.Date) ([]models.EventBlockTime, error) {
	const op = "storage.ListBlockTimes"

	query := `SELECT id, series_id, artist_id, date, title, start_time, end_time,
				  repeatable, repeat_kind, repeat_amount, repeat_unit, notes
			  FROM block_times
			  WHERE artist_id = $1 AND date = $2
			  ORDER BY start_time`
	rows, err := s.DB.QueryContext(ctx, query, artistID, day.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.EventBlockTime
	for rows.Next() {
		bt, err := scanBlockTime(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ===== TEMP CHANGES =====

// CreateTempChange вставляет временное изменение графика.
func (s *Storage) CreateTempChange(ctx context.Context, tc models.TempChange) error {
	const op = "storage.CreateTempChange"

	workDays, startTimes, endTimes, err := tempChangeColumns(tc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO temp_changes (id, artist_id, start_date, end_date,
				  work_days, different_time_enabled, start_times, end_times, location_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = s.DB.ExecContext(ctx, query,
		tc.ID, tc.ArtistID, tc.Range.Start.String(), tc.Range.End.String(),
		workDays, tc.DifferentTimeEnabled, startTimes, endTimes, tc.LocationID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveTempChange удаляет временное изменение и возвращает удалённую запись.
func (s *Storage) RemoveTempChange(ctx context.Context, artistID, id string) (*models.TempChange, error) {
	const op = "storage.RemoveTempChange"

	query := `DELETE FROM temp_changes
			  WHERE artist_id = $1 AND id = $2
			  RETURNING id, artist_id, start_date, end_date,
				  work_days, different_time_enabled, start_times, end_times, location_id`
	row := s.DB.QueryRowContext(ctx, query, artistID, id)
	tc, err := scanTempChange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tc, nil
}

// ListTempChanges возвращает временные изменения, пересекающиеся с диапазоном дат.
func (s *Storage) ListTempChanges(ctx context.Context, artistID string, r date.Range) ([]models.TempChange, error) {
	const op = "storage.ListTempChanges"

	query := `SELECT id, artist_id, start_date, end_date,
				  work_days, different_time_enabled, start_times, end_times, location_id
			  FROM temp_changes
			  WHERE artist_id = $1 AND start_date <= $2 AND end_date >= $3
			  ORDER BY start_date`
	rows, err := s.DB.QueryContext(ctx, query, artistID, r.End.String(), r.Start.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.TempChange
	for rows.Next() {
		tc, err := scanTempChange(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ===== BOOKINGS =====

// ListBookings возвращает брони артиста на дату в локации.
// Пустой locationID не фильтрует по локации.
func (s *Storage) ListBookings(ctx context.Context, artistID string, day date.Date, locationID string) ([]models.Booking, error) {
	const op = "storage.ListBookings"

	query := `SELECT id, artist_id, date, start_time, duration_minutes, location_id
			  FROM bookings
			  WHERE artist_id = $1 AND date = $2 AND ($3 = '' OR location_id = $3)
			  ORDER BY start_time`
	rows, err := s.DB.QueryContext(ctx, query, artistID, day.String(), locationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		var dateRaw time.Time
		var startRaw string
		if err := rows.Scan(&b.ID, &b.ArtistID, &dateRaw, &startRaw,
			&b.DurationMinutes, &b.LocationID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b.Date = date.FromTime(dateRaw)
		if b.StartTime, err = clock.Parse(startRaw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ===== GUEST SPOTS =====

// HasGuestSpotOverlap сообщает, пересекается ли дата с активным гостевым
// туром или конвенцией артиста. Контракт коллаборатора для OverlapDetector.
func (s *Storage) HasGuestSpotOverlap(ctx context.Context, artistID string, day date.Date) (bool, error) {
	const op = "storage.HasGuestSpotOverlap"

	query := `SELECT EXISTS (
				  SELECT 1 FROM guest_spots
				  WHERE artist_id = $1 AND is_active
					AND start_date <= $2 AND end_date >= $2)`
	var exists bool
	err := s.DB.QueryRowContext(ctx, query, artistID, day.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ===== HELPERS =====

func ruleColumns(rule *recurrence.Rule) (kind sql.NullString, amount sql.NullInt64, unit sql.NullString) {
	if rule == nil {
		return sql.NullString{}, sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullString{String: string(rule.Kind), Valid: true},
		sql.NullInt64{Int64: int64(rule.Amount), Valid: true},
		sql.NullString{String: string(rule.Unit), Valid: true}
}

func ruleFromColumns(kind, unit sql.NullString, amount sql.NullInt64) *recurrence.Rule {
	if !kind.Valid {
		return nil
	}
	return &recurrence.Rule{
		Kind:   recurrence.Kind(kind.String),
		Amount: int(amount.Int64),
		Unit:   recurrence.Unit(unit.String),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffDay(row scanner) (models.OffDay, error) {
	var od models.OffDay
	var startRaw, endRaw time.Time
	var kind, unit sql.NullString
	var amount sql.NullInt64
	if err := row.Scan(&od.ID, &od.SeriesID, &od.ArtistID, &od.Title,
		&startRaw, &endRaw, &od.IsRepeat, &kind, &amount, &unit, &od.Notes); err != nil {
		return models.OffDay{}, err
	}
	od.Range = date.NewRange(date.FromTime(startRaw), date.FromTime(endRaw))
	od.RepeatRule = ruleFromColumns(kind, unit, amount)
	return od, nil
}

func scanBlockTime(row scanner) (models.EventBlockTime, error) {
	var bt models.EventBlockTime
	var dateRaw time.Time
	var startRaw, endRaw string
	var kind, unit sql.NullString
	var amount sql.NullInt64
	if err := row.Scan(&bt.ID, &bt.SeriesID, &bt.ArtistID, &dateRaw, &bt.Title,
		&startRaw, &endRaw, &bt.Repeatable, &kind, &amount, &unit, &bt.Notes); err != nil {
		return models.EventBlockTime{}, err
	}
	bt.Date = date.FromTime(dateRaw)
	var err error
	if bt.StartTime, err = clock.Parse(startRaw); err != nil {
		return models.EventBlockTime{}, err
	}
	if bt.EndTime, err = clock.Parse(endRaw); err != nil {
		return models.EventBlockTime{}, err
	}
	bt.RepeatRule = ruleFromColumns(kind, unit, amount)
	return bt, nil
}

func tempChangeColumns(tc models.TempChange) (workDays, startTimes, endTimes []byte, err error) {
	days := make([]int, 0, len(tc.WorkDays))
	for _, wd := range tc.WorkDays {
		days = append(days, int(wd))
	}
	if workDays, err = json.Marshal(days); err != nil {
		return nil, nil, nil, err
	}
	if startTimes, err = json.Marshal(clockMapColumns(tc.StartTimes)); err != nil {
		return nil, nil, nil, err
	}
	if endTimes, err = json.Marshal(clockMapColumns(tc.EndTimes)); err != nil {
		return nil, nil, nil, err
	}
	return workDays, startTimes, endTimes, nil
}

func clockMapColumns(m map[time.Weekday]clock.Time) map[string]string {
	out := make(map[string]string, len(m))
	for wd, t := range m {
		out[fmt.Sprintf("%d", int(wd))] = t.String()
	}
	return out
}

func scanTempChange(row scanner) (*models.TempChange, error) {
	var tc models.TempChange
	var startRaw, endRaw time.Time
	var workDaysRaw, startTimesRaw, endTimesRaw []byte
	if err := row.Scan(&tc.ID, &tc.ArtistID, &startRaw, &endRaw,
		&workDaysRaw, &tc.DifferentTimeEnabled, &startTimesRaw, &endTimesRaw,
		&tc.LocationID); err != nil {
		return nil, err
	}
	tc.Range = date.NewRange(date.FromTime(startRaw), date.FromTime(endRaw))

	var days []int
	if err := json.Unmarshal(workDaysRaw, &days); err != nil {
		return nil, err
	}
	for _, d := range days {
		tc.WorkDays = append(tc.WorkDays, time.Weekday(d))
	}

	var err error
	if tc.StartTimes, err = clockMapFromColumns(startTimesRaw); err != nil {
		return nil, err
	}
	if tc.EndTimes, err = clockMapFromColumns(endTimesRaw); err != nil {
		return nil, err
	}
	return &tc, nil
}

func clockMapFromColumns(raw []byte) (map[time.Weekday]clock.Time, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(map[time.Weekday]clock.Time, len(m))
	for k, v := range m {
		var wd int
		if _, err := fmt.Sscanf(k, "%d", &wd); err != nil {
			return nil, err
		}
		t, err := clock.Parse(v)
		if err != nil {
			return nil, err
		}
		out[time.Weekday(wd)] = t
	}
	return out, nil
}
