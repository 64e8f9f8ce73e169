// Package overlap проверяет кандидатные даты недоступности на пересечение
// с активными гостевыми турами и конвенциями артиста.
package overlap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
	"github.com/magabrotheeeer/availability-engine/internal/metrics"
)

// GuestSpotChecker определяет вызов коллаборатора хранения: есть ли у артиста
// активный гостевой тур или конвенция на дату.
type GuestSpotChecker interface {
	HasGuestSpotOverlap(ctx context.Context, artistID string, d date.Date) (bool, error)
}

// Detector проверяет даты последовательно, чтобы список конфликтов был
// детерминированным, а первая же ошибка коллаборатора прерывала операцию.
type Detector struct {
	checker GuestSpotChecker
	log     *slog.Logger
}

// New создаёт новый Detector.
func New(checker GuestSpotChecker, log *slog.Logger) *Detector {
	return &Detector{checker: checker, log: log}
}

// Check возвращает подмножество дат, пересекающихся с гостевыми турами,
// по возрастанию. Пустой вход не порождает ни одного вызова коллаборатора.
// Проверки идут по одной и прерываются отменой контекста (пользователь
// закрыл форму) или первой ошибкой коллаборатора — оставшиеся даты в этом
// случае не проверяются, ошибка возвращается вызывающему.
func (d *Detector) Check(ctx context.Context, artistID string, dates []date.Date) ([]date.Date, error) {
	const op = "services.overlap.Check"
	if len(dates) == 0 {
		return nil, nil
	}

	sorted := make([]date.Date, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var overlapping []date.Date
	for _, day := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		metrics.OverlapChecks.Inc()
		has, err := d.checker.HasGuestSpotOverlap(ctx, artistID, day)
		if err != nil {
			d.log.Error("overlap check failed",
				slog.String("artist_id", artistID),
				slog.String("date", day.String()),
				sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if has {
			metrics.OverlapConflicts.Inc()
			overlapping = append(overlapping, day)
		}
	}
	return overlapping, nil
}
