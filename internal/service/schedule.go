package service

import (
	"context"
	"errors"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// ScheduleService generates meal templates over a calendar range. The
// community's week has common dinners on Tuesday and Thursday plus one more
// dinner on an alternating day: Sunday one week, Monday the next. A Sunday
// dinner also blanks the following Monday so two dinners never land back to
// back, and holidays are skipped outright.
type ScheduleService struct {
	mealRepo      repository.MealRepository
	communityRepo repository.CommunityRepository
}

func NewScheduleService(mealRepo repository.MealRepository, communityRepo repository.CommunityRepository) *ScheduleService {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for ScheduleService")
	}
	if communityRepo == nil {
		panic("CommunityRepository cannot be nil for ScheduleService")
	}
	return &ScheduleService{mealRepo: mealRepo, communityRepo: communityRepo}
}

// CreateTemplates writes a meal row for every dinner day in [start, end]
// that does not already have one, and persists the community's flipped
// alternating day for the next run. Returns the number of meals created.
func (s *ScheduleService) CreateTemplates(ctx context.Context, communityID uint, start, end time.Time) (int, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"community_id": communityID,
		"start":        start.Format("2006-01-02"),
		"end":          end.Format("2006-01-02"),
	})

	community, err := s.communityRepo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, repository.ErrCommunityNotFound) {
			return 0, ErrCommunityNotFound
		}
		logCtx.WithError(err).Error("Failed to load community")
		return 0, ErrInternalServer
	}

	holidays, err := s.communityRepo.HolidaysBetween(ctx, communityID, start, end.AddDate(0, 0, 1))
	if err != nil {
		logCtx.WithError(err).Error("Failed to load holidays")
		return 0, ErrInternalServer
	}
	holidaySet := make(map[string]bool, len(holidays))
	for i := range holidays {
		holidaySet[dayKey(holidays[i].Date)] = true
	}

	days, endDay := DinnerDays(start, end, community.AlternatingDinnerDay, holidaySet)

	created := 0
	for _, date := range days {
		_, err := s.mealRepo.FindByDate(ctx, communityID, date)
		if err == nil {
			continue // template already exists
		}
		if !errors.Is(err, repository.ErrMealNotFound) {
			logCtx.WithError(err).Error("Failed to check for existing meal")
			return created, ErrInternalServer
		}

		meal := &domain.Meal{
			Date:        date,
			Cap:         community.Cap,
			CommunityID: communityID,
		}
		if err := s.mealRepo.Save(ctx, meal); err != nil {
			logCtx.WithError(err).WithField("date", date.Format("2006-01-02")).Error("Failed to create meal template")
			return created, ErrInternalServer
		}
		created++
	}

	// The alternating day flips once per occurrence; persist where the
	// pattern ended up so the next range continues it.
	if endDay != community.AlternatingDinnerDay {
		community.AlternatingDinnerDay = endDay
		if err := s.communityRepo.Save(ctx, community); err != nil {
			logCtx.WithError(err).Error("Failed to persist alternating dinner day")
			return created, ErrInternalServer
		}
	}

	logCtx.WithField("created", created).Info("Meal templates generated")
	return created, nil
}

// DinnerDays lists the dinner dates in [start, end]: every Tuesday and
// Thursday, plus the alternating day, which flips between Sunday (0) and
// Monday (1) after each occurrence. The Monday right after a Sunday dinner
// is skipped, and so are holidays. Returns the dates and where the
// alternating day ended up after the range.
func DinnerDays(start, end time.Time, alternatingDay int, holidays map[string]bool) ([]time.Time, int) {
	var days []time.Time
	day := alternatingDay
	skipNext := false

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if skipNext {
			skipNext = false
			continue
		}
		if holidays[dayKey(date)] {
			continue
		}

		switch wd := int(date.Weekday()); {
		case wd == 2 || wd == 4: // Tuesday, Thursday
			days = append(days, date)
		case wd == day:
			days = append(days, date)
			day = (day - 1) * (day - 1) // 0 <-> 1
			if wd == 0 {
				skipNext = true
			}
		}
	}
	return days, day
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
