package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/models"
	"github.com/magabrotheeeer/availability-engine/internal/rabbitmq"
	"github.com/magabrotheeeer/availability-engine/internal/recurrence"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetWorkHours(ctx context.Context, artistID string) (models.WorkHours, error) {
	args := m.Called(ctx, artistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.WorkHours), args.Error(1)
}
func (m *RepoMock) SetWorkHours(ctx context.Context, artistID string, hours models.WorkHours) error {
	return m.Called(ctx, artistID, hours).Error(0)
}
func (m *RepoMock) CreateOffDaySeries(ctx context.Context, series []models.OffDay) error {
	return m.Called(ctx, series).Error(0)
}
func (m *RepoMock) RemoveOffDaySeries(ctx context.Context, artistID, seriesID string) ([]models.OffDay, error) {
	args := m.Called(ctx, artistID, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OffDay), args.Error(1)
}
func (m *RepoMock) ListOffDays(ctx context.Context, artistID string, r date.Range) ([]models.OffDay, error) {
	args := m.Called(ctx, artistID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OffDay), args.Error(1)
}
func (m *RepoMock) CreateBlockTimeSeries(ctx context.Context, series []models.EventBlockTime) error {
	return m.Called(ctx, series).Error(0)
}
func (m *RepoMock) RemoveBlockTimeSeries(ctx context.Context, artistID, seriesID string) ([]models.EventBlockTime, error) {
	args := m.Called(ctx, artistID, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventBlockTime), args.Error(1)
}
func (m *RepoMock) ListBlockTimes(ctx context.Context, artistID string, day date.Date) ([]models.EventBlockTime, error) {
	args := m.Called(ctx, artistID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventBlockTime), args.Error(1)
}
func (m *RepoMock) CreateTempChange(ctx context.Context, tc models.TempChange) error {
	return m.Called(ctx, tc).Error(0)
}
func (m *RepoMock) RemoveTempChange(ctx context.Context, artistID, id string) (*models.TempChange, error) {
	args := m.Called(ctx, artistID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TempChange), args.Error(1)
}
func (m *RepoMock) ListTempChanges(ctx context.Context, artistID string, r date.Range) ([]models.TempChange, error) {
	args := m.Called(ctx, artistID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TempChange), args.Error(1)
}
func (m *RepoMock) ListBookings(ctx context.Context, artistID string, day date.Date, locationID string) ([]models.Booking, error) {
	args := m.Called(ctx, artistID, day, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) InvalidatePrefix(prefix string) error {
	return m.Called(prefix).Error(0)
}

type ScreenerMock struct{ mock.Mock }

func (m *ScreenerMock) Check(ctx context.Context, artistID string, dates []date.Date) ([]date.Date, error) {
	args := m.Called(ctx, artistID, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]date.Date), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, event rabbitmq.ScheduleEvent) error {
	return m.Called(routingKey, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepoMock, screener *ScreenerMock, cache *CacheMock, events *PublisherMock) *Service {
	return New(repo, screener, cache, events, Options{
		IntervalMinutes: 30,
		BufferMinutes:   0,
		MaxOccurrences:  12,
	}, newNoopLogger())
}

func TestCreateOffDay(t *testing.T) {
	conflictDate := date.MustParse("2025-06-10")

	tests := []struct {
		name          string
		req           models.DummyOffDay
		setupMocks    func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock)
		wantErr       string
		wantPersisted bool
		wantConflicts int
		wantDates     int
	}{
		{
			name: "single day without conflicts",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).Return(nil, nil).Once()
				r.On("CreateOffDaySeries", mock.Anything, mock.MatchedBy(func(series []models.OffDay) bool {
					return len(series) == 1 &&
						series[0].Title == "day off" &&
						series[0].ArtistID == "artist1" &&
						series[0].SeriesID != "" &&
						series[0].Range.Start == date.MustParse("2025-06-10")
				})).Return(nil).Once()
				c.On("InvalidatePrefix", "starttimes:artist1:2025-06-10:").Return(nil).Once()
				p.On("Publish", "offday.created", mock.Anything).Return(nil).Once()
			},
			wantPersisted: true,
			wantDates:     1,
		},
		{
			name: "weekly repeat expands series",
			req: models.DummyOffDay{
				Title:        "recurring off",
				StartDate:    "2025-06-10",
				EndDate:      "2025-06-10",
				IsRepeat:     true,
				RepeatKind:   "weekly",
				RepeatAmount: 3,
				RepeatUnit:   "weeks",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.MatchedBy(func(dates []date.Date) bool {
					return len(dates) == 3
				})).Return(nil, nil).Once()
				r.On("CreateOffDaySeries", mock.Anything, mock.MatchedBy(func(series []models.OffDay) bool {
					if len(series) != 3 {
						return false
					}
					// Одна серия на все вхождения.
					for _, od := range series {
						if od.SeriesID != series[0].SeriesID {
							return false
						}
					}
					return series[1].Range.Start == date.MustParse("2025-06-17") &&
						series[2].Range.Start == date.MustParse("2025-06-24")
				})).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Times(3)
				p.On("Publish", "offday.created", mock.Anything).Return(nil).Once()
			},
			wantPersisted: true,
			wantDates:     3,
		},
		{
			name: "conflict without confirm is not persisted",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).
					Return([]date.Date{conflictDate}, nil).Once()
			},
			wantPersisted: false,
			wantConflicts: 1,
		},
		{
			name: "conflict with confirm is persisted",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
				Confirm:   true,
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).
					Return([]date.Date{conflictDate}, nil).Once()
				r.On("CreateOffDaySeries", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Once()
				p.On("Publish", "offday.created", mock.Anything).Return(nil).Once()
			},
			wantPersisted: true,
			wantConflicts: 1,
			wantDates:     1,
		},
		{
			name: "invalid start date",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "not-a-date",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(_ *RepoMock, _ *ScreenerMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "invalid start date",
		},
		{
			name: "daily repeat rejected for multi day range",
			req: models.DummyOffDay{
				Title:        "long off",
				StartDate:    "2025-06-10",
				EndDate:      "2025-06-12",
				IsRepeat:     true,
				RepeatKind:   "daily",
				RepeatAmount: 5,
			},
			setupMocks: func(_ *RepoMock, _ *ScreenerMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "not allowed",
		},
		{
			name: "screener error aborts",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(_ *RepoMock, sc *ScreenerMock, _ *CacheMock, _ *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).
					Return(nil, errors.New("storage is down")).Once()
			},
			wantErr: "storage is down",
		},
		{
			name: "repo error aborts",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, _ *CacheMock, _ *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).Return(nil, nil).Once()
				r.On("CreateOffDaySeries", mock.Anything, mock.Anything).
					Return(errors.New("tx failed")).Once()
			},
			wantErr: "tx failed",
		},
		{
			name: "publish failure does not fail mutation",
			req: models.DummyOffDay{
				Title:     "day off",
				StartDate: "2025-06-10",
				EndDate:   "2025-06-10",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).Return(nil, nil).Once()
				r.On("CreateOffDaySeries", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Once()
				p.On("Publish", "offday.created", mock.Anything).
					Return(errors.New("broker unavailable")).Once()
			},
			wantPersisted: true,
			wantDates:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			screener := new(ScreenerMock)
			cacheMock := new(CacheMock)
			events := new(PublisherMock)
			svc := newService(repo, screener, cacheMock, events)

			tt.setupMocks(repo, screener, cacheMock, events)

			got, err := svc.CreateOffDay(context.Background(), "artist1", tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.wantPersisted, got.Persisted)
				assert.Len(t, got.Conflicts, tt.wantConflicts)
				assert.Len(t, got.Dates, tt.wantDates)
				if tt.wantPersisted {
					assert.NotEmpty(t, got.SeriesID)
				} else {
					assert.Empty(t, got.SeriesID)
				}
			}

			repo.AssertExpectations(t)
			screener.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
			events.AssertExpectations(t)
		})
	}
}

func TestRemoveOffDay(t *testing.T) {
	removed := []models.OffDay{
		{Range: date.NewRange(date.MustParse("2025-06-10"), date.MustParse("2025-06-11"))},
	}

	t.Run("success invalidates and publishes", func(t *testing.T) {
		repo := new(RepoMock)
		screener := new(ScreenerMock)
		cacheMock := new(CacheMock)
		events := new(PublisherMock)
		svc := newService(repo, screener, cacheMock, events)

		repo.On("RemoveOffDaySeries", mock.Anything, "artist1", "series1").Return(removed, nil).Once()
		cacheMock.On("InvalidatePrefix", "starttimes:artist1:2025-06-10:").Return(nil).Once()
		cacheMock.On("InvalidatePrefix", "starttimes:artist1:2025-06-11:").Return(nil).Once()
		events.On("Publish", "offday.removed", mock.MatchedBy(func(e rabbitmq.ScheduleEvent) bool {
			return e.ArtistID == "artist1" && e.EntityID == "series1" && len(e.Dates) == 2
		})).Return(nil).Once()

		require.NoError(t, svc.RemoveOffDay(context.Background(), "artist1", "series1"))
		repo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("repo error", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo, new(ScreenerMock), new(CacheMock), new(PublisherMock))

		repo.On("RemoveOffDaySeries", mock.Anything, "artist1", "missing").
			Return(nil, errors.New("not found")).Once()

		err := svc.RemoveOffDay(context.Background(), "artist1", "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestCreateBlockTime(t *testing.T) {
	tests := []struct {
		name          string
		req           models.DummyEventBlockTime
		setupMocks    func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock)
		wantErr       string
		wantPersisted bool
	}{
		{
			name: "success",
			req: models.DummyEventBlockTime{
				Title:     "dentist",
				Date:      "2025-06-10",
				StartTime: "12:00",
				EndTime:   "13:00",
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).Return(nil, nil).Once()
				r.On("CreateBlockTimeSeries", mock.Anything, mock.MatchedBy(func(series []models.EventBlockTime) bool {
					return len(series) == 1 &&
						series[0].StartTime == clock.MustParse("12:00") &&
						series[0].EndTime == clock.MustParse("13:00") &&
						series[0].Date == date.MustParse("2025-06-10")
				})).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Once()
				p.On("Publish", "blocktime.created", mock.Anything).Return(nil).Once()
			},
			wantPersisted: true,
		},
		{
			name: "end before start",
			req: models.DummyEventBlockTime{
				Title:     "dentist",
				Date:      "2025-06-10",
				StartTime: "13:00",
				EndTime:   "12:00",
			},
			setupMocks: func(_ *RepoMock, _ *ScreenerMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "end time must be after start time",
		},
		{
			name: "unparseable start time",
			req: models.DummyEventBlockTime{
				Title:     "dentist",
				Date:      "2025-06-10",
				StartTime: "noon",
				EndTime:   "13:00",
			},
			setupMocks: func(_ *RepoMock, _ *ScreenerMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "clock.Parse",
		},
		{
			name: "monthly repeat materializes occurrences",
			req: models.DummyEventBlockTime{
				Title:        "supply run",
				Date:         "2025-01-31",
				StartTime:    "10:00",
				EndTime:      "12:00",
				Repeatable:   true,
				RepeatKind:   "monthly",
				RepeatAmount: 2,
			},
			setupMocks: func(r *RepoMock, sc *ScreenerMock, c *CacheMock, p *PublisherMock) {
				sc.On("Check", mock.Anything, "artist1", mock.Anything).Return(nil, nil).Once()
				r.On("CreateBlockTimeSeries", mock.Anything, mock.MatchedBy(func(series []models.EventBlockTime) bool {
					// Февральское вхождение прижато к 28-му.
					return len(series) == 2 &&
						series[1].Date == date.MustParse("2025-02-28")
				})).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Times(2)
				p.On("Publish", "blocktime.created", mock.Anything).Return(nil).Once()
			},
			wantPersisted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			screener := new(ScreenerMock)
			cacheMock := new(CacheMock)
			events := new(PublisherMock)
			svc := newService(repo, screener, cacheMock, events)

			tt.setupMocks(repo, screener, cacheMock, events)

			got, err := svc.CreateBlockTime(context.Background(), "artist1", tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPersisted, got.Persisted)
			}

			repo.AssertExpectations(t)
			screener.AssertExpectations(t)
		})
	}
}

func TestCreateTempChange(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyTempChange
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantErr    string
	}{
		{
			name: "common window for all days",
			req: models.DummyTempChange{
				StartDate: "2025-06-09",
				EndDate:   "2025-06-13",
				WorkDays:  []string{"monday", "tuesday"},
				StartTime: "10:00",
				EndTime:   "16:00",
			},
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("CreateTempChange", mock.Anything, mock.MatchedBy(func(tc models.TempChange) bool {
					mon, okMon := tc.Window(time.Monday)
					_, okWed := tc.Window(time.Wednesday)
					return okMon && !okWed &&
						mon.Start == clock.MustParse("10:00") &&
						mon.End == clock.MustParse("16:00") &&
						tc.LocationID == nil
				})).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Times(5)
				p.On("Publish", "tempchange.created", mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "different windows per day",
			req: models.DummyTempChange{
				StartDate:            "2025-06-09",
				EndDate:              "2025-06-10",
				WorkDays:             []string{"monday", "tuesday"},
				DifferentTimeEnabled: true,
				StartTimes:           map[string]string{"monday": "09:00", "tuesday": "12:00"},
				EndTimes:             map[string]string{"monday": "15:00", "tuesday": "20:00"},
				LocationID:           "loc-berlin",
			},
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("CreateTempChange", mock.Anything, mock.MatchedBy(func(tc models.TempChange) bool {
					tue, ok := tc.Window(time.Tuesday)
					return ok && tue.Start == clock.MustParse("12:00") &&
						tc.LocationID != nil && *tc.LocationID == "loc-berlin"
				})).Return(nil).Once()
				c.On("InvalidatePrefix", mock.Anything).Return(nil).Times(2)
				p.On("Publish", "tempchange.created", mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "unknown weekday",
			req: models.DummyTempChange{
				StartDate: "2025-06-09",
				EndDate:   "2025-06-13",
				WorkDays:  []string{"someday"},
				StartTime: "10:00",
				EndTime:   "16:00",
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "unknown weekday",
		},
		{
			name: "missing per day window",
			req: models.DummyTempChange{
				StartDate:            "2025-06-09",
				EndDate:              "2025-06-13",
				WorkDays:             []string{"monday", "tuesday"},
				DifferentTimeEnabled: true,
				StartTimes:           map[string]string{"monday": "09:00"},
				EndTimes:             map[string]string{"monday": "15:00"},
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "tuesday",
		},
		{
			name: "end before start",
			req: models.DummyTempChange{
				StartDate: "2025-06-09",
				EndDate:   "2025-06-13",
				WorkDays:  []string{"monday"},
				StartTime: "16:00",
				EndTime:   "10:00",
			},
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    "end time must be after start time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			events := new(PublisherMock)
			svc := newService(repo, new(ScreenerMock), cacheMock, events)

			tt.setupMocks(repo, cacheMock, events)

			got, err := svc.CreateTempChange(context.Background(), "artist1", tt.req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, got.Persisted)
				assert.NotEmpty(t, got.SeriesID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestSetWorkHours(t *testing.T) {
	hours := models.WorkHours{
		time.Tuesday: {Start: clock.MustParse("09:00"), End: clock.MustParse("17:00")},
	}

	t.Run("success invalidates whole artist prefix", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		repo.On("SetWorkHours", mock.Anything, "artist1", hours).Return(nil).Once()
		cacheMock.On("InvalidatePrefix", "starttimes:artist1:").Return(nil).Once()

		require.NoError(t, svc.SetWorkHours(context.Background(), "artist1", hours))
		repo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("cache failure is only logged", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		repo.On("SetWorkHours", mock.Anything, "artist1", hours).Return(nil).Once()
		cacheMock.On("InvalidatePrefix", "starttimes:artist1:").
			Return(errors.New("redis down")).Once()

		require.NoError(t, svc.SetWorkHours(context.Background(), "artist1", hours))
	})
}

func TestStartTimes(t *testing.T) {
	day := date.MustParse("2025-06-10")
	hours := models.WorkHours{
		time.Tuesday: {Start: clock.MustParse("09:00"), End: clock.MustParse("11:00")},
	}
	cacheKey := "starttimes:artist1:2025-06-10::60"

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		cached := []clock.Time{clock.MustParse("09:00")}
		cacheMock.On("Get", cacheKey, mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(*[]clock.Time)
			*ptr = cached
		}).Once()

		got, err := svc.StartTimes(context.Background(), "artist1", day, 60, "")
		require.NoError(t, err)
		assert.Equal(t, cached, got)
		repo.AssertNotCalled(t, "GetWorkHours")
		cacheMock.AssertExpectations(t)
	})

	t.Run("cache miss resolves and caches", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		dayRange := date.NewRange(day, day)
		cacheMock.On("Get", cacheKey, mock.Anything).Return(false, nil).Once()
		repo.On("GetWorkHours", mock.Anything, "artist1").Return(hours, nil).Once()
		repo.On("ListOffDays", mock.Anything, "artist1", dayRange).Return([]models.OffDay{}, nil).Once()
		repo.On("ListBlockTimes", mock.Anything, "artist1", day).Return([]models.EventBlockTime{}, nil).Once()
		repo.On("ListTempChanges", mock.Anything, "artist1", dayRange).Return([]models.TempChange{}, nil).Once()
		repo.On("ListBookings", mock.Anything, "artist1", day, "").Return([]models.Booking{}, nil).Once()
		cacheMock.On("Set", cacheKey, mock.Anything, startTimesTTL).Return(nil).Once()

		got, err := svc.StartTimes(context.Background(), "artist1", day, 60, "")
		require.NoError(t, err)
		// Окно 09:00-11:00, сеанс 60, шаг 30: старты 09:00, 09:30, 10:00.
		assert.Equal(t, []clock.Time{
			clock.MustParse("09:00"), clock.MustParse("09:30"), clock.MustParse("10:00"),
		}, got)

		repo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("cache read error falls through to repository", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		cacheMock.On("Get", cacheKey, mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetWorkHours", mock.Anything, "artist1").Return(hours, nil).Once()
		repo.On("ListOffDays", mock.Anything, "artist1", mock.Anything).Return([]models.OffDay{}, nil).Once()
		repo.On("ListBlockTimes", mock.Anything, "artist1", day).Return([]models.EventBlockTime{}, nil).Once()
		repo.On("ListTempChanges", mock.Anything, "artist1", mock.Anything).Return([]models.TempChange{}, nil).Once()
		repo.On("ListBookings", mock.Anything, "artist1", day, "").Return([]models.Booking{}, nil).Once()
		cacheMock.On("Set", cacheKey, mock.Anything, startTimesTTL).Return(nil).Once()

		got, err := svc.StartTimes(context.Background(), "artist1", day, 60, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(RepoMock)
		cacheMock := new(CacheMock)
		svc := newService(repo, new(ScreenerMock), cacheMock, new(PublisherMock))

		cacheMock.On("Get", cacheKey, mock.Anything).Return(false, nil).Once()
		repo.On("GetWorkHours", mock.Anything, "artist1").
			Return(nil, errors.New("db error")).Once()

		got, err := svc.StartTimes(context.Background(), "artist1", day, 60, "")
		require.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestDisabledRepeatKinds(t *testing.T) {
	svc := newService(new(RepoMock), new(ScreenerMock), new(CacheMock), new(PublisherMock))

	assert.Empty(t, svc.DisabledRepeatKinds("2025-06-10", "2025-06-10"))
	assert.Equal(t, []recurrence.Kind{recurrence.Daily, recurrence.Weekly},
		svc.DisabledRepeatKinds("2025-06-10", "2025-06-17"))
	// Порядок дат формы не влияет на результат.
	assert.Equal(t,
		svc.DisabledRepeatKinds("2025-06-10", "2025-06-17"),
		svc.DisabledRepeatKinds("2025-06-17", "2025-06-10"))
	// Невалидные даты отключают все виды.
	assert.Len(t, svc.DisabledRepeatKinds("", "2025-06-17"), 4)
	assert.Len(t, svc.DisabledRepeatKinds("2025-06-10", "garbage"), 4)
}
