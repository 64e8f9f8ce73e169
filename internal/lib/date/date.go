// Package date реализует календарную дату без компонента времени суток.
// Все вычисления выполняются над полями год/месяц/день, а не над epoch-миллисекундами,
// поэтому переводы часов (DST) не влияют на результат.
package date

import (
	"fmt"
	"time"
)

// Layout формат даты на границах системы: "YYYY-MM-DD".
const Layout = "2006-01-02"

// Date календарная дата артиста (локальная). Сравнение — по (год, месяц, день).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse разбирает строку формата "YYYY-MM-DD" в Date.
func Parse(s string) (Date, error) {
	const op = "date.Parse"
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%s: %w", op, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustParse как Parse, но паникует при ошибке. Только для тестов и констант.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime берёт календарные поля из time.Time, отбрасывая время суток.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

// time возвращает полночь UTC этой даты. UTC не имеет переводов часов,
// поэтому арифметика через time.Date остаётся календарной.
func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare возвращает -1, 0 или +1 при сравнении d с other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// Before сообщает, что d раньше other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After сообщает, что d позже other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Weekday возвращает день недели даты.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// AddDays сдвигает дату на n календарных дней (n может быть отрицательным).
func (d Date) AddDays(n int) Date {
	return FromTime(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// AddMonths сдвигает дату на n календарных месяцев. Если в целевом месяце
// нет такого числа (31 января + 1 месяц), день прижимается к последнему
// дню целевого месяца, а не перетекает в следующий.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// AddYears сдвигает дату на n лет с тем же прижатием дня (29 февраля).
func (d Date) AddYears(n int) Date {
	return d.AddMonths(n * 12)
}

// DaysUntil возвращает число дней от d до other (other раньше — отрицательное).
func (d Date) DaysUntil(other Date) int {
	return int(other.time().Sub(d.time()).Hours() / 24)
}

// ISOWeek возвращает год и номер недели по ISO-8601 (неделя привязана к четвергу).
// Используется для проверки, попадают ли две даты в одну неделю.
func (d Date) ISOWeek() (year, week int) {
	return d.time().ISOWeek()
}

// MarshalJSON сериализует дату строкой "YYYY-MM-DD" (формат внешних границ).
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON разбирает дату из строки "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	const op = "date.UnmarshalJSON"
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%s: expected string", op)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func daysIn(year int, month time.Month) int {
	// День 0 следующего месяца — последний день текущего.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
