// Package availability вычисляет допустимые времена начала сеанса на дату.
// Вычисление чистое и синхронное: все данные (рабочие часы, исключения,
// существующие брони) приходят на вход, результат — упорядоченный список
// времён, входы не мутируются. «Нет доступности» — нормальное состояние,
// а не ошибка: при некорректных входах возвращается пустой список.
package availability

import (
	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/models"
)

// Input снимок всех данных, влияющих на доступность одной даты.
type Input struct {
	Date           date.Date
	SessionMinutes int
	LocationID     string

	WorkHours   models.WorkHours
	TempChanges []models.TempChange
	OffDays     []models.OffDay
	BlockTimes  []models.EventBlockTime
	Bookings    []models.Booking

	IntervalMinutes int
	BufferMinutes   int
}

// span полуинтервал минут [start, end).
type span struct {
	start clock.Time
	end   clock.Time
}

// StartTimes возвращает упорядоченные допустимые времена начала сеанса.
//
// Порядок вычисления:
//  1. действующее рабочее окно дня: покрывающий дату TempChange имеет
//     приоритет над часами по умолчанию; нет окна — нет доступности;
//  2. полнодневный OffDay обнуляет окно, EventBlockTime вычитаются из него;
//  3. каждая бронь вычитается вместе с буфером с обеих сторон;
//  4. в оставшихся свободных окнах кандидаты идут шагом IntervalMinutes
//     от начала окна; кандидат допустим, если сеанс целиком помещается
//     до конца окна.
func StartTimes(in Input) []clock.Time {
	if in.SessionMinutes <= 0 || in.IntervalMinutes <= 0 || in.BufferMinutes < 0 {
		return nil
	}
	window, ok := effectiveWindow(in)
	if !ok || window.end <= window.start {
		return nil
	}

	for _, od := range in.OffDays {
		if od.Range.Contains(in.Date) {
			return nil
		}
	}

	free := []span{window}
	for _, bt := range in.BlockTimes {
		if bt.Date != in.Date {
			continue
		}
		free = subtract(free, span{start: bt.StartTime, end: bt.EndTime})
	}
	for _, b := range in.Bookings {
		if b.Date != in.Date {
			continue
		}
		occupied := span{
			start: b.StartTime.Add(-in.BufferMinutes),
			end:   b.StartTime.Add(b.DurationMinutes + in.BufferMinutes),
		}
		free = subtract(free, occupied)
	}

	var out []clock.Time
	for _, s := range free {
		for t := s.start; t.Add(in.SessionMinutes) <= s.end; t = t.Add(in.IntervalMinutes) {
			out = append(out, t)
		}
	}
	return dedupe(out)
}

// effectiveWindow выбирает рабочее окно дня: сначала покрывающий дату
// TempChange, затем часы по умолчанию. Если TempChange переносит работу
// в другую локацию, в запрошенной локации доступности нет.
func effectiveWindow(in Input) (span, bool) {
	weekday := in.Date.Weekday()
	for _, tc := range in.TempChanges {
		if !tc.Range.Contains(in.Date) {
			continue
		}
		if tc.LocationID != nil && in.LocationID != "" && *tc.LocationID != in.LocationID {
			return span{}, false
		}
		w, ok := tc.Window(weekday)
		if !ok {
			return span{}, false
		}
		return span{start: w.Start, end: w.End}, true
	}
	w, ok := in.WorkHours[weekday]
	if !ok {
		return span{}, false
	}
	return span{start: w.Start, end: w.End}, true
}

// subtract вычитает занятый интервал из каждого свободного, сохраняя порядок.
func subtract(free []span, busy span) []span {
	if busy.end <= busy.start {
		return free
	}
	out := make([]span, 0, len(free)+1)
	for _, f := range free {
		// Нет пересечения: [f.start, f.end) и [busy.start, busy.end).
		if busy.end <= f.start || f.end <= busy.start {
			out = append(out, f)
			continue
		}
		if busy.start > f.start {
			out = append(out, span{start: f.start, end: busy.start})
		}
		if busy.end < f.end {
			out = append(out, span{start: busy.end, end: f.end})
		}
	}
	return out
}

// dedupe убирает дубликаты из упорядоченного списка. Свободные окна не
// пересекаются и идут по возрастанию, поэтому достаточно соседних сравнений.
func dedupe(times []clock.Time) []clock.Time {
	if len(times) == 0 {
		return nil
	}
	out := times[:1]
	for _, t := range times[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}
