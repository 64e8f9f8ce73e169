// Package schedule содержит бизнес-логику расписания артиста: создание и
// удаление выходных, блокировок времени и временных изменений графика,
// проверку пересечений с гостевыми турами и выдачу допустимых времён начала
// сеанса с кешированием.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/availability-engine/internal/availability"
	"github.com/magabrotheeeer/availability-engine/internal/cache"
	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
	"github.com/magabrotheeeer/availability-engine/internal/metrics"
	"github.com/magabrotheeeer/availability-engine/internal/models"
	"github.com/magabrotheeeer/availability-engine/internal/rabbitmq"
	"github.com/magabrotheeeer/availability-engine/internal/recurrence"
)

// startTimesTTL время жизни кеша времён начала сеанса.
const startTimesTTL = 5 * time.Minute

// Repository определяет методы хранилища, нужные движку расписания.
type Repository interface {
	// GetWorkHours возвращает рабочие часы артиста по умолчанию.
	GetWorkHours(ctx context.Context, artistID string) (models.WorkHours, error)
	// SetWorkHours заменяет рабочие часы артиста целиком.
	SetWorkHours(ctx context.Context, artistID string, hours models.WorkHours) error
	// CreateOffDaySeries сохраняет серию выходных атомарно: все вхождения или ни одного.
	CreateOffDaySeries(ctx context.Context, series []models.OffDay) error
	// RemoveOffDaySeries удаляет серию выходных и возвращает удалённые вхождения.
	RemoveOffDaySeries(ctx context.Context, artistID, seriesID string) ([]models.OffDay, error)
	// ListOffDays возвращает выходные, пересекающиеся с диапазоном.
	ListOffDays(ctx context.Context, artistID string, r date.Range) ([]models.OffDay, error)
	// CreateBlockTimeSeries сохраняет серию блокировок атомарно.
	CreateBlockTimeSeries(ctx context.Context, series []models.EventBlockTime) error
	// RemoveBlockTimeSeries удаляет серию блокировок и возвращает удалённые вхождения.
	RemoveBlockTimeSeries(ctx context.Context, artistID, seriesID string) ([]models.EventBlockTime, error)
	// ListBlockTimes возвращает блокировки артиста на дату.
	ListBlockTimes(ctx context.Context, artistID string, day date.Date) ([]models.EventBlockTime, error)
	// CreateTempChange сохраняет временное изменение графика.
	CreateTempChange(ctx context.Context, tc models.TempChange) error
	// RemoveTempChange удаляет временное изменение и возвращает удалённую запись.
	RemoveTempChange(ctx context.Context, artistID, id string) (*models.TempChange, error)
	// ListTempChanges возвращает временные изменения, пересекающиеся с диапазоном.
	ListTempChanges(ctx context.Context, artistID string, r date.Range) ([]models.TempChange, error)
	// ListBookings возвращает брони артиста на дату в локации.
	ListBookings(ctx context.Context, artistID string, day date.Date, locationID string) ([]models.Booking, error)
}

// Cache описывает методы для кэширования вычисленных времён начала.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	InvalidatePrefix(prefix string) error
}

// ConflictScreener проверяет даты на пересечение с гостевыми турами.
type ConflictScreener interface {
	Check(ctx context.Context, artistID string, dates []date.Date) ([]date.Date, error)
}

// EventPublisher публикует события изменения расписания.
type EventPublisher interface {
	Publish(routingKey string, event rabbitmq.ScheduleEvent) error
}

// Options параметры сетки записи.
type Options struct {
	IntervalMinutes int
	BufferMinutes   int
	MaxOccurrences  int
}

// Service реализует бизнес-логику расписания.
type Service struct {
	repo     Repository
	screener ConflictScreener
	cache    Cache
	events   EventPublisher
	opts     Options
	log      *slog.Logger
}

// New создает новый Service.
func New(repo Repository, screener ConflictScreener, cache Cache, events EventPublisher, opts Options, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		screener: screener,
		cache:    cache,
		events:   events,
		opts:     opts,
		log:      log,
	}
}

// MutationResult итог попытки мутации расписания. Непустой Conflicts при
// Persisted=false означает, что данные не сохранены и пользователю нужно
// подтвердить пересечение с гостевыми турами.
type MutationResult struct {
	SeriesID  string      `json:"series_id,omitempty"`
	Persisted bool        `json:"persisted"`
	Conflicts []date.Date `json:"conflicts,omitempty"`
	Dates     []date.Date `json:"dates,omitempty"`
}

// CreateOffDay раскрывает диапазон выходного по правилу повтора, проверяет
// вхождения на пересечение с гостевыми турами и атомарно сохраняет серию.
// При найденных пересечениях без confirm ничего не сохраняется.
func (s *Service) CreateOffDay(ctx context.Context, artistID string, req models.DummyOffDay) (*MutationResult, error) {
	const op = "services.schedule.CreateOffDay"

	baseRange, rule, err := s.rangeAndRule(req.StartDate, req.EndDate, req.IsRepeat,
		req.RepeatKind, req.RepeatAmount, req.RepeatUnit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	occurrences := []date.Range{baseRange}
	if rule != nil {
		occurrences = recurrence.Expand(baseRange, *rule, s.opts.MaxOccurrences)
	}

	allDates := rangeDates(occurrences)
	conflicts, err := s.screener.Check(ctx, artistID, allDates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(conflicts) > 0 && !req.Confirm {
		s.log.Info("off day conflicts with guest spots, confirmation required",
			slog.String("artist_id", artistID),
			slog.Int("conflicts", len(conflicts)))
		return &MutationResult{Conflicts: conflicts}, nil
	}

	seriesID := uuid.NewString()
	series := make([]models.OffDay, 0, len(occurrences))
	for _, r := range occurrences {
		series = append(series, models.OffDay{
			ID:         uuid.NewString(),
			SeriesID:   seriesID,
			ArtistID:   artistID,
			Title:      req.Title,
			Range:      r,
			IsRepeat:   req.IsRepeat,
			RepeatRule: rule,
			Notes:      req.Notes,
		})
	}
	if err := s.repo.CreateOffDaySeries(ctx, series); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created off day series",
		slog.String("artist_id", artistID),
		slog.String("series_id", seriesID),
		slog.Int("occurrences", len(series)))

	s.invalidateDates(artistID, allDates)
	s.publish("offday.created", artistID, seriesID, allDates)

	return &MutationResult{SeriesID: seriesID, Persisted: true, Conflicts: conflicts, Dates: allDates}, nil
}

// RemoveOffDay удаляет серию выходных.
func (s *Service) RemoveOffDay(ctx context.Context, artistID, seriesID string) error {
	const op = "services.schedule.RemoveOffDay"

	removed, err := s.repo.RemoveOffDaySeries(ctx, artistID, seriesID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var dates []date.Date
	for _, od := range removed {
		dates = append(dates, od.Range.Dates()...)
	}
	s.invalidateDates(artistID, dates)
	s.publish("offday.removed", artistID, seriesID, dates)
	return nil
}

// ListOffDays возвращает выходные артиста, пересекающиеся с диапазоном.
func (s *Service) ListOffDays(ctx context.Context, artistID string, r date.Range) ([]models.OffDay, error) {
	const op = "services.schedule.ListOffDays"
	out, err := s.repo.ListOffDays(ctx, artistID, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreateBlockTime раскрывает блокировку по правилу повтора, проверяет даты
// на пересечение с гостевыми турами и атомарно сохраняет серию.
func (s *Service) CreateBlockTime(ctx context.Context, artistID string, req models.DummyEventBlockTime) (*MutationResult, error) {
	const op = "services.schedule.CreateBlockTime"

	baseRange, rule, err := s.rangeAndRule(req.Date, req.Date, req.Repeatable,
		req.RepeatKind, req.RepeatAmount, req.RepeatUnit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	startTime, err := clock.Parse(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endTime, err := clock.Parse(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endTime <= startTime {
		return nil, fmt.Errorf("%s: end time must be after start time", op)
	}

	occurrences := []date.Range{baseRange}
	if rule != nil {
		occurrences = recurrence.Expand(baseRange, *rule, s.opts.MaxOccurrences)
	}

	allDates := rangeDates(occurrences)
	conflicts, err := s.screener.Check(ctx, artistID, allDates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(conflicts) > 0 && !req.Confirm {
		return &MutationResult{Conflicts: conflicts}, nil
	}

	seriesID := uuid.NewString()
	series := make([]models.EventBlockTime, 0, len(occurrences))
	for _, r := range occurrences {
		series = append(series, models.EventBlockTime{
			ID:         uuid.NewString(),
			SeriesID:   seriesID,
			ArtistID:   artistID,
			Date:       r.Start,
			Title:      req.Title,
			StartTime:  startTime,
			EndTime:    endTime,
			Repeatable: req.Repeatable,
			RepeatRule: rule,
			Notes:      req.Notes,
		})
	}
	if err := s.repo.CreateBlockTimeSeries(ctx, series); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created block time series",
		slog.String("artist_id", artistID),
		slog.String("series_id", seriesID),
		slog.Int("occurrences", len(series)))

	s.invalidateDates(artistID, allDates)
	s.publish("blocktime.created", artistID, seriesID, allDates)

	return &MutationResult{SeriesID: seriesID, Persisted: true, Conflicts: conflicts, Dates: allDates}, nil
}

// RemoveBlockTime удаляет серию блокировок.
func (s *Service) RemoveBlockTime(ctx context.Context, artistID, seriesID string) error {
	const op = "services.schedule.RemoveBlockTime"

	removed, err := s.repo.RemoveBlockTimeSeries(ctx, artistID, seriesID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var dates []date.Date
	for _, bt := range removed {
		dates = append(dates, bt.Date)
	}
	s.invalidateDates(artistID, dates)
	s.publish("blocktime.removed", artistID, seriesID, dates)
	return nil
}

// CreateTempChange валидирует и сохраняет временное изменение графика.
// Пересечения с гостевыми турами не проверяются: изменение графика не
// объявляет недоступность, а меняет рабочие окна.
func (s *Service) CreateTempChange(ctx context.Context, artistID string, req models.DummyTempChange) (*MutationResult, error) {
	const op = "services.schedule.CreateTempChange"

	start, err := date.Parse(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := date.Parse(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tcRange := date.NewRange(start, end)

	workDays := make([]time.Weekday, 0, len(req.WorkDays))
	for _, name := range req.WorkDays {
		wd, err := models.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		workDays = append(workDays, wd)
	}

	startTimes, endTimes, err := tempChangeWindows(req, workDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tc := models.TempChange{
		ID:                   uuid.NewString(),
		ArtistID:             artistID,
		Range:                tcRange,
		WorkDays:             workDays,
		DifferentTimeEnabled: req.DifferentTimeEnabled,
		StartTimes:           startTimes,
		EndTimes:             endTimes,
	}
	if req.LocationID != "" {
		tc.LocationID = &req.LocationID
	}
	if err := s.repo.CreateTempChange(ctx, tc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created temp change",
		slog.String("artist_id", artistID),
		slog.String("id", tc.ID))

	allDates := tcRange.Dates()
	s.invalidateDates(artistID, allDates)
	s.publish("tempchange.created", artistID, tc.ID, allDates)

	return &MutationResult{SeriesID: tc.ID, Persisted: true, Dates: allDates}, nil
}

// RemoveTempChange удаляет временное изменение графика.
func (s *Service) RemoveTempChange(ctx context.Context, artistID, id string) error {
	const op = "services.schedule.RemoveTempChange"

	removed, err := s.repo.RemoveTempChange(ctx, artistID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateDates(artistID, removed.Range.Dates())
	s.publish("tempchange.removed", artistID, id, removed.Range.Dates())
	return nil
}

// SetWorkHours заменяет рабочие часы артиста по умолчанию.
func (s *Service) SetWorkHours(ctx context.Context, artistID string, hours models.WorkHours) error {
	const op = "services.schedule.SetWorkHours"
	if err := s.repo.SetWorkHours(ctx, artistID, hours); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// Часы по умолчанию затрагивают все даты; кеш артиста чистится целиком.
	if err := s.cache.InvalidatePrefix(fmt.Sprintf("starttimes:%s:", artistID)); err != nil {
		s.log.Warn("failed to invalidate cache", sl.Err(err))
	}
	return nil
}

// StartTimes возвращает допустимые времена начала сеанса на дату в локации,
// используя кеш или собирая снимок данных из хранилища.
func (s *Service) StartTimes(ctx context.Context, artistID string, day date.Date, sessionMinutes int, locationID string) ([]clock.Time, error) {
	const op = "services.schedule.StartTimes"

	cacheKey := cache.StartTimesKey(artistID, day, locationID, sessionMinutes)
	var cached []clock.Time
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read start times cache", sl.Err(err))
	}
	if found {
		metrics.StartTimesRequests.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.StartTimesRequests.WithLabelValues("miss").Inc()

	dayRange := date.NewRange(day, day)
	workHours, err := s.repo.GetWorkHours(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	offDays, err := s.repo.ListOffDays(ctx, artistID, dayRange)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	blockTimes, err := s.repo.ListBlockTimes(ctx, artistID, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tempChanges, err := s.repo.ListTempChanges(ctx, artistID, dayRange)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bookings, err := s.repo.ListBookings(ctx, artistID, day, locationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	times := availability.StartTimes(availability.Input{
		Date:            day,
		SessionMinutes:  sessionMinutes,
		LocationID:      locationID,
		WorkHours:       workHours,
		TempChanges:     tempChanges,
		OffDays:         offDays,
		BlockTimes:      blockTimes,
		Bookings:        bookings,
		IntervalMinutes: s.opts.IntervalMinutes,
		BufferMinutes:   s.opts.BufferMinutes,
	})

	if err := s.cache.Set(cacheKey, times, startTimesTTL); err != nil {
		s.log.Warn("failed to cache start times", slog.String("key", cacheKey), sl.Err(err))
	}
	return times, nil
}

// DisabledRepeatKinds возвращает недопустимые виды повтора для строковых дат
// формы. Невалидные или пустые даты отключают все виды. Диапазон собирается
// тем же BuildRange, что и на клиенте, поэтому порядок дат в форме не важен.
func (s *Service) DisabledRepeatKinds(startDate, endDate string) []recurrence.Kind {
	dates := date.BuildRange(startDate, endDate)
	if len(dates) == 0 {
		return recurrence.DisabledKinds(nil)
	}
	r := date.NewRange(dates[0], dates[len(dates)-1])
	return recurrence.DisabledKinds(&r)
}

// rangeAndRule разбирает даты формы и строит правило повтора с проверкой
// допустимости вида для диапазона.
func (s *Service) rangeAndRule(startDate, endDate string, isRepeat bool, kind string, amount int, unit string) (date.Range, *recurrence.Rule, error) {
	start, err := date.Parse(startDate)
	if err != nil {
		return date.Range{}, nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := date.Parse(endDate)
	if err != nil {
		return date.Range{}, nil, fmt.Errorf("invalid end date: %w", err)
	}
	r := date.NewRange(start, end)

	if !isRepeat {
		return r, nil, nil
	}
	rule, err := recurrence.NewRule(recurrence.Kind(kind), amount, recurrence.Unit(unit))
	if err != nil {
		return date.Range{}, nil, err
	}
	if !recurrence.KindAllowed(&r, rule.Kind) {
		return date.Range{}, nil, fmt.Errorf("repeat kind %q is not allowed for this date range", rule.Kind)
	}
	return r, &rule, nil
}

// tempChangeWindows собирает окна по дням: одно общее окно или свои на каждый
// день при DifferentTimeEnabled.
func tempChangeWindows(req models.DummyTempChange, workDays []time.Weekday) (map[time.Weekday]clock.Time, map[time.Weekday]clock.Time, error) {
	startTimes := make(map[time.Weekday]clock.Time, len(workDays))
	endTimes := make(map[time.Weekday]clock.Time, len(workDays))

	if !req.DifferentTimeEnabled {
		start, err := clock.Parse(req.StartTime)
		if err != nil {
			return nil, nil, err
		}
		end, err := clock.Parse(req.EndTime)
		if err != nil {
			return nil, nil, err
		}
		if end <= start {
			return nil, nil, fmt.Errorf("end time must be after start time")
		}
		for _, wd := range workDays {
			startTimes[wd] = start
			endTimes[wd] = end
		}
		return startTimes, endTimes, nil
	}

	for _, wd := range workDays {
		name := weekdayName(wd)
		start, err := clock.Parse(req.StartTimes[name])
		if err != nil {
			return nil, nil, fmt.Errorf("start time for %s: %w", name, err)
		}
		end, err := clock.Parse(req.EndTimes[name])
		if err != nil {
			return nil, nil, fmt.Errorf("end time for %s: %w", name, err)
		}
		if end <= start {
			return nil, nil, fmt.Errorf("end time must be after start time for %s", name)
		}
		startTimes[wd] = start
		endTimes[wd] = end
	}
	return startTimes, endTimes, nil
}

func weekdayName(wd time.Weekday) string {
	return map[time.Weekday]string{
		time.Sunday:    "sunday",
		time.Monday:    "monday",
		time.Tuesday:   "tuesday",
		time.Wednesday: "wednesday",
		time.Thursday:  "thursday",
		time.Friday:    "friday",
		time.Saturday:  "saturday",
	}[wd]
}

// rangeDates собирает даты всех вхождений без дубликатов, по возрастанию.
func rangeDates(occurrences []date.Range) []date.Date {
	seen := make(map[date.Date]struct{})
	var out []date.Date
	for _, r := range occurrences {
		for _, d := range r.Dates() {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// invalidateDates чистит кеш времён начала на каждую затронутую дату.
func (s *Service) invalidateDates(artistID string, dates []date.Date) {
	for _, d := range dates {
		if err := s.cache.InvalidatePrefix(cache.DayPrefix(artistID, d)); err != nil {
			s.log.Warn("failed to invalidate cache",
				slog.String("date", d.String()), sl.Err(err))
		}
	}
}

// publish отправляет событие расписания; сбой публикации не откатывает мутацию.
func (s *Service) publish(routingKey, artistID, entityID string, dates []date.Date) {
	err := s.events.Publish(routingKey, rabbitmq.ScheduleEvent{
		ArtistID: artistID,
		EntityID: entityID,
		Dates:    dates,
	})
	if err != nil {
		s.log.Warn("failed to publish schedule event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}
