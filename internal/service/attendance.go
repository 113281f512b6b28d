package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
	"github.com/oosca/comeals-backend/internal/tasks"

	"github.com/sirupsen/logrus"
)

// AttendanceService is the authoritative side of joining and leaving meals.
// The client applies these changes optimistically; this service is where
// they actually get refused.
type AttendanceService struct {
	mealRepo       repository.MealRepository
	residentRepo   repository.ResidentRepository
	attendanceRepo repository.AttendanceRepository
	stateRepo      repository.StateRepository
	queue          TaskQueue
}

func NewAttendanceService(
	mealRepo repository.MealRepository,
	residentRepo repository.ResidentRepository,
	attendanceRepo repository.AttendanceRepository,
	stateRepo repository.StateRepository,
	queue TaskQueue,
) *AttendanceService {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for AttendanceService")
	}
	if residentRepo == nil {
		panic("ResidentRepository cannot be nil for AttendanceService")
	}
	if attendanceRepo == nil {
		panic("AttendanceRepository cannot be nil for AttendanceService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for AttendanceService")
	}
	if queue == nil {
		queue = NoQueue
	}
	return &AttendanceService{
		mealRepo:       mealRepo,
		residentRepo:   residentRepo,
		attendanceRepo: attendanceRepo,
		stateRepo:      stateRepo,
		queue:          queue,
	}
}

// Join adds the resident to the meal and returns the committed attendance
// record. A closed meal with its ceiling reached is full; a settled meal
// takes no one. AttendingAt is stamped here, server side, because the
// closed-window policy compares it against ClosedAt later.
func (s *AttendanceService) Join(ctx context.Context, mealID, residentID uint, late, vegetarian bool, sessionID string) (*domain.MealResident, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.Reconciled() {
		return nil, reject(MsgMealReconciled)
	}
	if meal.Closed && meal.Max != nil && meal.AttendeesCount() >= *meal.Max {
		logCtx.WithFields(logrus.Fields{"attendees": meal.AttendeesCount(), "max": *meal.Max}).
			Warn("Rejected join: meal full")
		return nil, reject(MsgMealFull)
	}
	if meal.Closed && meal.Max == nil {
		// A closed meal that never got a ceiling accepts no late joins.
		logCtx.Warn("Rejected join: meal closed without ceiling")
		return nil, reject(MsgMealClosed)
	}

	resident, err := s.findResident(ctx, residentID)
	if err != nil {
		return nil, err
	}

	record := &domain.MealResident{
		MealID:      mealID,
		ResidentID:  residentID,
		CommunityID: meal.CommunityID,
		Late:        late,
		Vegetarian:  vegetarian,
		Multiplier:  resident.Multiplier,
		AttendingAt: time.Now(),
	}
	if err := s.attendanceRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("Rejected join: already attending")
			return nil, ErrAlreadyAttending
		}
		logCtx.WithError(err).Error("Failed to create attendance")
		return nil, ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: residentID,
		Change:     "joined",
		SessionID:  sessionID,
		OccurredAt: record.AttendingAt,
	})
	logCtx.Info("Resident joined meal")
	return record, nil
}

// Leave removes the resident's attendance. Once a meal has closed, only
// attendance committed after the closing instant may still be withdrawn.
func (s *AttendanceService) Leave(ctx context.Context, mealID, residentID uint, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if meal.Reconciled() {
		return reject(MsgMealReconciled)
	}

	record, err := s.attendanceRepo.Find(ctx, mealID, residentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttendanceNotFound) {
			return ErrNotAttending
		}
		logCtx.WithError(err).Error("Failed to load attendance")
		return ErrInternalServer
	}

	if !record.Removable(meal) {
		logCtx.Warn("Rejected leave: attendance frozen by closed window")
		return reject(MsgAttendanceFrozen)
	}

	if err := s.attendanceRepo.Delete(ctx, record); err != nil {
		logCtx.WithError(err).Error("Failed to delete attendance")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: residentID,
		Change:     "left",
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.Info("Resident left meal")
	return nil
}

// UpdateFlags writes the late/vegetarian flags of an existing attendance.
// Nil pointers leave the corresponding flag alone.
func (s *AttendanceService) UpdateFlags(ctx context.Context, mealID, residentID uint, late, vegetarian *bool, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"meal_id":     mealID,
		"resident_id": residentID,
		"session_id":  sessionID,
	})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if meal.Reconciled() {
		return reject(MsgMealReconciled)
	}

	if _, err := s.attendanceRepo.Find(ctx, mealID, residentID); err != nil {
		if errors.Is(err, repository.ErrAttendanceNotFound) {
			return ErrNotAttending
		}
		logCtx.WithError(err).Error("Failed to load attendance")
		return ErrInternalServer
	}

	if err := s.attendanceRepo.UpdateFlags(ctx, mealID, residentID, late, vegetarian); err != nil {
		logCtx.WithError(err).Error("Failed to update attendance flags")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		ResidentID: residentID,
		Change:     "flags_changed",
		Detail:     describeFlags(late, vegetarian),
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.Info("Attendance flags updated")
	return nil
}

func (s *AttendanceService) findMeal(ctx context.Context, mealID uint) (*domain.Meal, error) {
	meal, err := s.mealRepo.FindByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return nil, ErrMealNotFound
		}
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load meal")
		return nil, ErrInternalServer
	}
	return meal, nil
}

func (s *AttendanceService) findResident(ctx context.Context, residentID uint) (*domain.Resident, error) {
	resident, err := s.residentRepo.FindByID(ctx, residentID)
	if err != nil {
		if errors.Is(err, repository.ErrResidentNotFound) {
			return nil, ErrResidentNotFound
		}
		logrus.WithError(err).WithField("resident_id", residentID).Error("Failed to load resident")
		return nil, ErrInternalServer
	}
	return resident, nil
}

func (s *AttendanceService) fanOut(ctx context.Context, mealID uint, sessionID string) {
	err := s.stateRepo.PublishUpdate(ctx, repository.MealUpdate{
		MealID:    mealID,
		Type:      "update",
		SessionID: sessionID,
	})
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Warn("Failed to publish meal update")
	}
}

func (s *AttendanceService) audit(ctx context.Context, p tasks.MealAuditPayload) {
	payload, err := tasks.NewMealAuditTask(p)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize audit task")
		return
	}
	if err := s.queue.Enqueue(ctx, tasks.TypeMealAudit, payload); err != nil {
		logrus.WithError(err).WithField("meal_id", p.MealID).Warn("Failed to enqueue audit task")
	}
}

func describeFlags(late, vegetarian *bool) string {
	detail := ""
	if late != nil {
		detail += fmt.Sprintf("late=%t ", *late)
	}
	if vegetarian != nil {
		detail += fmt.Sprintf("vegetarian=%t", *vegetarian)
	}
	return detail
}
