// Package models содержит доменные структуры движка доступности:
// выходные, блокировки времени, временные изменения графика и брони,
// а также Dummy-двойники для приёма данных из JSON-запросов до валидации.
// Движок держит эти структуры только как входы и выходы функций; владеет
// ими слой хранения.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/recurrence"
)

// WorkWindow рабочее окно одного дня недели.
type WorkWindow struct {
	Start clock.Time `json:"start"`
	End   clock.Time `json:"end"`
}

// WorkHours рабочие часы артиста по умолчанию: день недели -> окно.
// Отсутствие дня означает нерабочий день.
type WorkHours map[time.Weekday]WorkWindow

// OffDay выходной артиста: диапазон дат, в которые запись невозможна,
// с необязательным правилом повтора. Редактирование — пересоздание:
// ранее материализованные вхождения отбрасываются и считаются заново.
type OffDay struct {
	ID string `json:"id"`
	// SeriesID объединяет материализованные вхождения одного повторяющегося
	// выходного; удаление и пересоздание идут по серии целиком.
	SeriesID   string           `json:"series_id"`
	ArtistID   string           `json:"artist_id"`
	Title      string           `json:"title"`
	Range      date.Range       `json:"range"`
	IsRepeat   bool             `json:"is_repeat"`
	RepeatRule *recurrence.Rule `json:"repeat_rule,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// DummyOffDay форма создания выходного: даты и правило повтора приходят
// строками и валидируются до преобразования в OffDay.
type DummyOffDay struct {
	Title        string `json:"title" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsRepeat     bool   `json:"is_repeat"`
	RepeatKind   string `json:"repeat_kind,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	RepeatAmount int    `json:"repeat_amount,omitempty" validate:"omitempty,gt=0"`
	RepeatUnit   string `json:"repeat_unit,omitempty" validate:"omitempty,oneof=days weeks months years"`
	Notes        string `json:"notes,omitempty"`
	// Confirm подтверждает сохранение несмотря на найденные пересечения
	// с гостевыми турами (второй заход после ответа Conflict).
	Confirm bool `json:"confirm,omitempty"`
}

// EventBlockTime однодневная блокировка: личное событие с окном времени
// вместо полного дня.
type EventBlockTime struct {
	ID         string           `json:"id"`
	SeriesID   string           `json:"series_id"`
	ArtistID   string           `json:"artist_id"`
	Date       date.Date        `json:"date"`
	Title      string           `json:"title"`
	StartTime  clock.Time       `json:"start_time"`
	EndTime    clock.Time       `json:"end_time"`
	Repeatable bool             `json:"repeatable"`
	RepeatRule *recurrence.Rule `json:"repeat_rule,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// DummyEventBlockTime форма создания блокировки времени.
type DummyEventBlockTime struct {
	Title        string `json:"title" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	Repeatable   bool   `json:"repeatable"`
	RepeatKind   string `json:"repeat_kind,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	RepeatAmount int    `json:"repeat_amount,omitempty" validate:"omitempty,gt=0"`
	RepeatUnit   string `json:"repeat_unit,omitempty" validate:"omitempty,oneof=days weeks months years"`
	Notes        string `json:"notes,omitempty"`
	Confirm      bool   `json:"confirm,omitempty"`
}

// TempChange временное изменение графика: на своём диапазоне дат
// переопределяет рабочие дни и часы по умолчанию. Если DifferentTimeEnabled,
// у каждого рабочего дня своё окно, иначе одно окно на все дни.
type TempChange struct {
	ID                   string                    `json:"id"`
	ArtistID             string                    `json:"artist_id"`
	Range                date.Range                `json:"range"`
	WorkDays             []time.Weekday            `json:"work_days"`
	DifferentTimeEnabled bool                      `json:"different_time_enabled"`
	StartTimes           map[time.Weekday]clock.Time `json:"start_times"`
	EndTimes             map[time.Weekday]clock.Time `json:"end_times"`
	LocationID           *string                   `json:"location_id,omitempty"`
}

// Window возвращает действующее окно временного изменения для дня недели
// и false, если этот день в изменении нерабочий.
func (tc TempChange) Window(day time.Weekday) (WorkWindow, bool) {
	included := false
	for _, wd := range tc.WorkDays {
		if wd == day {
			included = true
			break
		}
	}
	if !included {
		return WorkWindow{}, false
	}
	start, okStart := tc.StartTimes[day]
	end, okEnd := tc.EndTimes[day]
	if !okStart || !okEnd {
		return WorkWindow{}, false
	}
	return WorkWindow{Start: start, End: end}, true
}

// DummyTempChange форма создания временного изменения. Дни недели приходят
// именами ("monday"), времена — строками "HH:MM" по дням.
type DummyTempChange struct {
	StartDate            string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate              string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	WorkDays             []string          `json:"work_days" validate:"required,min=1"`
	DifferentTimeEnabled bool              `json:"different_time_enabled"`
	StartTime            string            `json:"start_time,omitempty"`
	EndTime              string            `json:"end_time,omitempty"`
	StartTimes           map[string]string `json:"start_times,omitempty"`
	EndTimes             map[string]string `json:"end_times,omitempty"`
	LocationID           string            `json:"location_id,omitempty"`
}

// DummyWorkWindow окно одного дня в форме рабочих часов.
type DummyWorkWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// DummyWorkHours форма замены рабочих часов по умолчанию: имя дня недели -> окно.
type DummyWorkHours struct {
	Days map[string]DummyWorkWindow `json:"days" validate:"required,min=1"`
}

// ToWorkHours преобразует форму в WorkHours, разбирая имена дней и времена.
func (d DummyWorkHours) ToWorkHours() (WorkHours, error) {
	const op = "models.ToWorkHours"
	hours := WorkHours{}
	for name, window := range d.Days {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		start, err := clock.Parse(window.Start)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		end, err := clock.Parse(window.End)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if end <= start {
			return nil, fmt.Errorf("%s: end before start for %s", op, name)
		}
		hours[wd] = WorkWindow{Start: start, End: end}
	}
	return hours, nil
}

// Booking существующая запись клиента. Для движка — только чтение,
// им владеет подсистема бронирования.
type Booking struct {
	ID              string     `json:"id"`
	ArtistID        string     `json:"artist_id"`
	Date            date.Date  `json:"date"`
	StartTime       clock.Time `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	LocationID      string     `json:"location_id"`
}

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday разбирает имя дня недели ("monday") без учёта регистра.
func ParseWeekday(name string) (time.Weekday, error) {
	const op = "models.ParseWeekday"
	wd, ok := weekdayByName[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%s: unknown weekday %q", op, name)
	}
	return wd, nil
}
