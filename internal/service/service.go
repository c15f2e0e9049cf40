package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wassimhassan/backend/api"
	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/internal/lock"
	"github.com/wassimhassan/backend/internal/models"
	"github.com/wassimhassan/backend/pkg/response"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store  Store
	locker lock.Locker
	tokens *auth.Manager
}

func NewService(store Store, locker lock.Locker, tokens *auth.Manager) *Service {
	return &Service{store: store, locker: locker, tokens: tokens}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Users
	CreateUser(ctx context.Context, user *models.User) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddBalanceDueTx(ctx context.Context, tx *sql.Tx, clientID string, amount float64) error

	// Availability
	ReplaceAvailability(ctx context.Context, trainerID string, slots []models.AvailabilitySlot) error
	GetAvailability(ctx context.Context, trainerID string) ([]models.AvailabilitySlot, error)
	DeleteAvailabilityDay(ctx context.Context, trainerID, day string) error

	// Bookings
	HasActiveBookingTx(ctx context.Context, tx *sql.Tx, trainerID, clientID string, sessionTime time.Time) (bool, error)
	CreateBookingTx(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookingsByClient(ctx context.Context, clientID string) ([]models.BookingWithTrainer, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error

	// Subscriptions
	CreateSubscription(ctx context.Context, sub *models.Subscription) (string, error)
	GetActiveSubscription(ctx context.Context, clientID string) (*models.Subscription, error)
}

// defaultBalanceLimit caps how much a client may owe before bookings are refused.
const defaultBalanceLimit = 200

// #### auth ####

func (s *Service) Signup(ctx context.Context, req *api.SignupRequest) (*api.UserResponse, error) {
	const op = "service.Signup"

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	switch req.Role {
	case auth.RoleClient, auth.RoleTrainer, auth.RoleOwner:
	default:
		return nil, fmt.Errorf("%s: invalid role: %w", op, response.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Specialty:    req.Specialty,
		BalanceLimit: defaultBalanceLimit,
	}

	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.ID = id

	return userResponse(user), nil
}

func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	const op = "service.Login"

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, response.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AuthResponse{Token: token, User: *userResponse(user)}, nil
}

func userResponse(user *models.User) *api.UserResponse {
	return &api.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		Specialty:    user.Specialty,
		BalanceDue:   user.BalanceDue,
		BalanceLimit: user.BalanceLimit,
	}
}

// #### availability ####

func (s *Service) SetAvailability(ctx context.Context, trainerID string, req *api.SetAvailabilityRequest) (*api.AvailabilityResponse, error) {
	const op = "service.SetAvailability"

	if len(req.AvailableSlots) == 0 {
		return nil, fmt.Errorf("%s: no slots: %w", op, response.ErrBadRequest)
	}

	trainer, err := s.store.GetUser(ctx, trainerID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trainer.Role != auth.RoleTrainer {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	// Malformed entries fail the whole call, nothing is applied.
	var slots []models.AvailabilitySlot
	for _, slot := range req.AvailableSlots {
		if slot.Day == "" || len(slot.Time) == 0 {
			return nil, fmt.Errorf("%s: invalid slot format: %w", op, response.ErrBadRequest)
		}

		for _, timeStr := range slot.Time {
			parsed, err := time.Parse(time.RFC3339, timeStr)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid time format %q: %w", op, timeStr, response.ErrBadRequest)
			}

			slots = append(slots, models.AvailabilitySlot{
				TrainerID: trainerID,
				Day:       slot.Day,
				Time:      parsed,
			})
		}
	}

	if err := s.store.ReplaceAvailability(ctx, trainerID, slots); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAvailability(ctx, trainerID)
}

func (s *Service) GetAvailability(ctx context.Context, trainerID string) (*api.AvailabilityResponse, error) {
	const op = "service.GetAvailability"

	slots, err := s.store.GetAvailability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	// Group rows back into the (day, times) document shape.
	var days []string
	byDay := make(map[string][]string)
	for _, slot := range slots {
		if _, ok := byDay[slot.Day]; !ok {
			days = append(days, slot.Day)
		}
		byDay[slot.Day] = append(byDay[slot.Day], slot.Time.Format(time.RFC3339))
	}

	resp := &api.AvailabilityResponse{TrainerID: trainerID}
	for _, day := range days {
		resp.AvailableSlots = append(resp.AvailableSlots, api.AvailabilitySlot{
			Day:  day,
			Time: byDay[day],
		})
	}

	return resp, nil
}

func (s *Service) RemoveAvailabilityDay(ctx context.Context, trainerID, day string) error {
	const op = "service.RemoveAvailabilityDay"

	if day == "" {
		return fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	err := s.store.DeleteAvailabilityDay(ctx, trainerID, day)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### bookings ####

// BookSession reconciles a client's request against the trainer's declared
// slots, applies the subscription discount, checks the balance cap and
// records the booking. Creation and the balance charge share one tx; the
// (trainer, client, time) duplicate check is serialized by a redis lock and
// backstopped by a partial unique index in the store.
func (s *Service) BookSession(ctx context.Context, clientID string, req *api.BookSessionRequest) (*api.BookingResponse, error) {
	const op = "service.BookSession"

	if req.TrainerID == "" || req.SessionTime == "" {
		return nil, fmt.Errorf("%s: trainer id and session time are required: %w", op, response.ErrBadRequest)
	}

	sessionTime, err := time.Parse(time.RFC3339, req.SessionTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid session time: %w", op, response.ErrBadRequest)
	}

	client, err := s.store.GetUser(ctx, clientID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: client: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	trainer, err := s.store.GetUser(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: trainer: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trainer.Role != auth.RoleTrainer {
		return nil, fmt.Errorf("%s: trainer: %w", op, response.ErrNotFound)
	}

	slots, err := s.store.GetAvailability(ctx, req.TrainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%s: trainer has not set availability: %w", op, response.ErrSlotNotAvailable)
	}

	// Exact instant match against the declared slots.
	available := false
	for _, slot := range slots {
		if slot.Time.Equal(sessionTime) {
			available = true
			break
		}
	}
	if !available {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	sub, err := s.store.GetActiveSubscription(ctx, clientID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSubscriptionRequired)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	finalCost := req.SessionCost - (req.SessionCost * sub.SessionDiscount / 100)

	if client.BalanceDue+finalCost > client.BalanceLimit {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBalanceExceeded)
	}

	lockKey := fmt.Sprintf("booking:%s:%s", req.TrainerID, sessionTime.UTC().Format(time.RFC3339))

	lockToken, locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey, lockToken)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	exists, err := s.store.HasActiveBookingTx(ctx, tx, req.TrainerID, clientID, sessionTime)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrDuplicateBooking)
	}

	booking := &models.Booking{
		TrainerID:   req.TrainerID,
		ClientID:    clientID,
		SessionTime: sessionTime,
		Status:      models.BookingPending,
		SessionCost: finalCost,
	}

	bookingID, err := s.store.CreateBookingTx(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrDuplicateBooking) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrDuplicateBooking)
		}
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if finalCost != 0 {
		if err := s.store.AddBalanceDueTx(ctx, tx, clientID, finalCost); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: charge balance: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.BookingResponse{
		ID:          booking.ID,
		TrainerID:   booking.TrainerID,
		ClientID:    booking.ClientID,
		SessionTime: booking.SessionTime,
		Status:      string(booking.Status),
		SessionCost: booking.SessionCost,
	}, nil
}

func (s *Service) ListBookings(ctx context.Context, clientID string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	bookings, err := s.store.ListBookingsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, &api.BookingResponse{
			ID:               booking.ID,
			TrainerID:        booking.TrainerID,
			ClientID:         booking.ClientID,
			SessionTime:      booking.SessionTime,
			Status:           string(booking.Status),
			SessionCost:      booking.SessionCost,
			TrainerName:      booking.TrainerName,
			TrainerSpecialty: booking.TrainerSpecialty,
		})
	}

	return result, nil
}

func (s *Service) ConfirmBooking(ctx context.Context, bookingID, callerID, callerRole string) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	if callerRole != auth.RoleTrainer && callerRole != auth.RoleOwner {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if callerRole == auth.RoleTrainer && booking.TrainerID != callerID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	// Nothing leaves cancelled.
	if booking.Status == models.BookingCancelled {
		return nil, fmt.Errorf("%s: booking is cancelled: %w", op, response.ErrConflict)
	}

	if booking.Status == models.BookingConfirmed {
		return s.GetBooking(ctx, bookingID)
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// CancelBooking soft-cancels: the row is kept with status cancelled and a
// repeated cancel returns it unchanged. The balance charge is not reversed.
func (s *Service) CancelBooking(ctx context.Context, bookingID, callerID, callerRole string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if callerRole != auth.RoleOwner && booking.ClientID != callerID && booking.TrainerID != callerID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if booking.Status == models.BookingCancelled {
		return s.GetBooking(ctx, bookingID)
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// #### subscriptions ####

type planPreset struct {
	discount    float64
	maxPerMonth int
}

var planPresets = map[models.PlanType]planPreset{
	models.PlanBasic:   {discount: 0, maxPerMonth: 10},
	models.PlanPremium: {discount: 10, maxPerMonth: 20},
	models.PlanPro:     {discount: 20, maxPerMonth: 30},
}

func (s *Service) CreateSubscription(ctx context.Context, clientID string, req *api.SubscriptionRequest) (*api.SubscriptionResponse, error) {
	const op = "service.CreateSubscription"

	preset, ok := planPresets[models.PlanType(req.PlanType)]
	if !ok {
		return nil, fmt.Errorf("%s: invalid plan type: %w", op, response.ErrBadRequest)
	}

	if _, err := s.store.GetUser(ctx, clientID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	sub := &models.Subscription{
		ClientID:            clientID,
		PlanType:            models.PlanType(req.PlanType),
		Status:              models.SubscriptionActive,
		SessionDiscount:     preset.discount,
		MaxBookingsPerMonth: preset.maxPerMonth,
		StartDate:           now,
		RenewalDate:         now.AddDate(0, 1, 0),
		EndDate:             now.AddDate(0, 1, 0),
	}

	id, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub.ID = id

	return subscriptionResponse(sub), nil
}

func (s *Service) GetSubscription(ctx context.Context, clientID string) (*api.SubscriptionResponse, error) {
	const op = "service.GetSubscription"

	sub, err := s.store.GetActiveSubscription(ctx, clientID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return subscriptionResponse(sub), nil
}

func subscriptionResponse(sub *models.Subscription) *api.SubscriptionResponse {
	return &api.SubscriptionResponse{
		ID:                  sub.ID,
		ClientID:            sub.ClientID,
		PlanType:            string(sub.PlanType),
		Status:              string(sub.Status),
		SessionDiscount:     sub.SessionDiscount,
		MaxBookingsPerMonth: sub.MaxBookingsPerMonth,
		StartDate:           sub.StartDate,
		RenewalDate:         sub.RenewalDate,
		EndDate:             sub.EndDate,
	}
}
