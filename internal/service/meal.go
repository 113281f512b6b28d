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

// MealSnapshot is the authoritative state of one meal handed to clients,
// both on initial load and when they reload after an invalidation.
type MealSnapshot struct {
	ID          uint       `json:"id"`
	Date        time.Time  `json:"date"`
	Description string     `json:"description"`
	Cap         *int       `json:"cap"`
	Max         *int       `json:"max"`
	Closed      bool       `json:"closed"`
	ClosedAt    *time.Time `json:"closed_at"`
	Cost        int        `json:"cost"`

	Residents []SnapshotResident `json:"residents"`
	Guests    []SnapshotGuest    `json:"guests"`
}

// SnapshotResident merges a community resident with their attendance record
// for the meal, if any.
type SnapshotResident struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Attending   bool       `json:"attending"`
	AttendingAt *time.Time `json:"attending_at"`
	Late        bool       `json:"late"`
	Vegetarian  bool       `json:"vegetarian"`
	CanCook     bool       `json:"can_cook"`
	Active      bool       `json:"active"`
}

// SnapshotGuest is one guest reservation inside a snapshot.
type SnapshotGuest struct {
	ID         uint      `json:"id"`
	ResidentID uint      `json:"resident_id"`
	Name       *string   `json:"name"`
	Vegetarian bool      `json:"vegetarian"`
	CreatedAt  time.Time `json:"created_at"`
}

// MealService owns the capacity and lifecycle operations on meals: the
// attendee ceiling, the open/closed flip, settlement, and snapshot assembly.
type MealService struct {
	mealRepo       repository.MealRepository
	residentRepo   repository.ResidentRepository
	attendanceRepo repository.AttendanceRepository
	guestRepo      repository.GuestRepository
	stateRepo      repository.StateRepository
	queue          TaskQueue
}

// NewMealService creates a MealService. queue may be NoQueue when no worker
// is attached.
func NewMealService(
	mealRepo repository.MealRepository,
	residentRepo repository.ResidentRepository,
	attendanceRepo repository.AttendanceRepository,
	guestRepo repository.GuestRepository,
	stateRepo repository.StateRepository,
	queue TaskQueue,
) *MealService {
	if mealRepo == nil {
		panic("MealRepository cannot be nil for MealService")
	}
	if residentRepo == nil {
		panic("ResidentRepository cannot be nil for MealService")
	}
	if attendanceRepo == nil {
		panic("AttendanceRepository cannot be nil for MealService")
	}
	if guestRepo == nil {
		panic("GuestRepository cannot be nil for MealService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for MealService")
	}
	if queue == nil {
		queue = NoQueue
	}
	return &MealService{
		mealRepo:       mealRepo,
		residentRepo:   residentRepo,
		attendanceRepo: attendanceRepo,
		guestRepo:      guestRepo,
		stateRepo:      stateRepo,
		queue:          queue,
	}
}

// Snapshot assembles the full authoritative state of a meal: the meal row,
// every active community resident merged with their attendance, and the
// guest ledger newest first.
func (s *MealService) Snapshot(ctx context.Context, mealID uint) (*MealSnapshot, error) {
	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}

	residents, err := s.residentRepo.FindActiveByCommunity(ctx, meal.CommunityID)
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load residents for snapshot")
		return nil, ErrInternalServer
	}
	attendance, err := s.attendanceRepo.FindByMeal(ctx, mealID)
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load attendance for snapshot")
		return nil, ErrInternalServer
	}
	guests, err := s.guestRepo.FindByMeal(ctx, mealID)
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load guests for snapshot")
		return nil, ErrInternalServer
	}

	byResident := make(map[uint]*domain.MealResident, len(attendance))
	for i := range attendance {
		byResident[attendance[i].ResidentID] = &attendance[i]
	}

	snap := &MealSnapshot{
		ID:          meal.ID,
		Date:        meal.Date,
		Description: meal.Description,
		Cap:         meal.Cap,
		Max:         meal.Max,
		Closed:      meal.Closed,
		ClosedAt:    meal.ClosedAt,
		Cost:        meal.Cost,
	}
	for i := range residents {
		r := residents[i]
		sr := SnapshotResident{
			ID:         r.ID,
			Name:       r.Name,
			Vegetarian: r.Vegetarian,
			CanCook:    r.CanCook,
			Active:     r.Active,
		}
		if att, ok := byResident[r.ID]; ok {
			at := att.AttendingAt
			sr.Attending = true
			sr.AttendingAt = &at
			sr.Late = att.Late
			sr.Vegetarian = att.Vegetarian
		}
		snap.Residents = append(snap.Residents, sr)
	}
	for i := range guests {
		g := guests[i]
		snap.Guests = append(snap.Guests, SnapshotGuest{
			ID:         g.ID,
			ResidentID: g.ResidentID,
			Name:       g.Name,
			Vegetarian: g.Vegetarian,
			CreatedAt:  g.CreatedAt,
		})
	}
	return snap, nil
}

// SetMax writes the attendee ceiling. A nil max clears it. The ceiling can
// never undercut the people already counted in; that rejection carries the
// message clients surface after rolling back.
func (s *MealService) SetMax(ctx context.Context, mealID uint, max *int, sessionID string) error {
	logCtx := logrus.WithFields(logrus.Fields{"meal_id": mealID, "session_id": sessionID})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return err
	}
	if meal.Reconciled() {
		return reject(MsgMealReconciled)
	}
	// An open meal never carries a ceiling; whatever was asked for, nil is
	// what gets stored until the meal closes.
	if !meal.Closed && max != nil {
		logCtx.WithField("requested_max", *max).Debug("Meal is open, storing nil max")
		max = nil
	}
	if max != nil && *max < meal.AttendeesCount() {
		logCtx.WithFields(logrus.Fields{"max": *max, "attendees": meal.AttendeesCount()}).
			Warn("Rejected max below current attendees")
		return reject(MsgMaxBelowAttendees)
	}

	if err := s.mealRepo.UpdateMax(ctx, mealID, max); err != nil {
		logCtx.WithError(err).Error("Failed to update meal max")
		return ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		Change:     "max_changed",
		Detail:     describeMax(max),
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.Info("Meal max updated")
	return nil
}

// ToggleClosed flips the meal between open and closed. Closing stamps
// ClosedAt so the removal window has its reference point; reopening clears
// both the stamp and the ceiling, since an open meal never carries one.
func (s *MealService) ToggleClosed(ctx context.Context, mealID uint, sessionID string) (bool, error) {
	logCtx := logrus.WithFields(logrus.Fields{"meal_id": mealID, "session_id": sessionID})

	meal, err := s.findMeal(ctx, mealID)
	if err != nil {
		return false, err
	}
	if meal.Reconciled() {
		return meal.Closed, reject(MsgMealReconciled)
	}

	closed := !meal.Closed
	var closedAt *time.Time
	var max *int
	if closed {
		now := time.Now()
		closedAt = &now
		max = meal.Max
	}

	if err := s.mealRepo.UpdateClosed(ctx, mealID, closed, closedAt, max); err != nil {
		logCtx.WithError(err).Error("Failed to toggle meal closed")
		return meal.Closed, ErrInternalServer
	}

	s.fanOut(ctx, mealID, sessionID)
	change := "reopened"
	if closed {
		change = "closed"
	}
	s.audit(ctx, tasks.MealAuditPayload{
		MealID:     mealID,
		Change:     change,
		SessionID:  sessionID,
		OccurredAt: time.Now(),
	})
	logCtx.WithField("closed", closed).Info("Meal closed flag toggled")
	return closed, nil
}

// UnreconciledMeals lists a community's meals dated strictly before the
// cutoff that have not been settled yet.
func (s *MealService) UnreconciledMeals(ctx context.Context, communityID uint, before time.Time) ([]domain.Meal, error) {
	meals, err := s.mealRepo.FindUnreconciled(ctx, communityID, before)
	if err != nil {
		logrus.WithError(err).WithField("community_id", communityID).Error("Failed to list unreconciled meals")
		return nil, ErrInternalServer
	}
	return meals, nil
}

// Reconcile settles every unreconciled meal of the community dated before
// the cutoff: one Reconciliation row is created and each meal stamped with
// its id. Returns the batch, nil when there was nothing to settle.
func (s *MealService) Reconcile(ctx context.Context, communityID uint, cutoff time.Time) (*domain.Reconciliation, error) {
	logCtx := logrus.WithFields(logrus.Fields{"community_id": communityID, "cutoff": cutoff.Format("2006-01-02")})

	meals, err := s.mealRepo.FindUnreconciled(ctx, communityID, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list meals for reconciliation")
		return nil, ErrInternalServer
	}
	if len(meals) == 0 {
		logCtx.Info("Nothing to reconcile")
		return nil, nil
	}

	rec := &domain.Reconciliation{
		CommunityID: communityID,
		CutoffDate:  cutoff,
		MealsCount:  len(meals),
	}
	ids := make([]uint, 0, len(meals))
	for i := range meals {
		rec.TotalCost += meals[i].Cost
		ids = append(ids, meals[i].ID)
	}

	if err := s.mealRepo.CreateReconciliation(ctx, rec); err != nil {
		logCtx.WithError(err).Error("Failed to create reconciliation")
		return nil, ErrInternalServer
	}
	if err := s.mealRepo.MarkReconciled(ctx, ids, rec.ID); err != nil {
		logCtx.WithError(err).WithField("reconciliation_id", rec.ID).Error("Failed to stamp meals reconciled")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"reconciliation_id": rec.ID, "meals": len(ids)}).Info("Meals reconciled")
	return rec, nil
}

// Find loads one meal, mapping missing rows to ErrMealNotFound. Used by
// callers that only need existence, like the WebSocket handshake.
func (s *MealService) Find(ctx context.Context, mealID uint) (*domain.Meal, error) {
	return s.findMeal(ctx, mealID)
}

func (s *MealService) findMeal(ctx context.Context, mealID uint) (*domain.Meal, error) {
	meal, err := s.mealRepo.FindByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return nil, ErrMealNotFound
		}
		logrus.WithError(err).WithField("meal_id", mealID).Error("Failed to load meal")
		return nil, ErrInternalServer
	}
	if meal == nil {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

// fanOut publishes the invalidation message. Delivery is best effort; a
// broken channel must not fail the mutation that already committed.
func (s *MealService) fanOut(ctx context.Context, mealID uint, sessionID string) {
	err := s.stateRepo.PublishUpdate(ctx, repository.MealUpdate{
		MealID:    mealID,
		Type:      "update",
		SessionID: sessionID,
	})
	if err != nil {
		logrus.WithError(err).WithField("meal_id", mealID).Warn("Failed to publish meal update")
	}
}

func (s *MealService) audit(ctx context.Context, p tasks.MealAuditPayload) {
	payload, err := tasks.NewMealAuditTask(p)
	if err != nil {
		logrus.WithError(err).Warn("Failed to serialize audit task")
		return
	}
	if err := s.queue.Enqueue(ctx, tasks.TypeMealAudit, payload); err != nil {
		logrus.WithError(err).WithField("meal_id", p.MealID).Warn("Failed to enqueue audit task")
	}
}

func describeMax(max *int) string {
	if max == nil {
		return "max cleared"
	}
	return fmt.Sprintf("max set to %d", *max)
}
