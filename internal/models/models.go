package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
	PlanPro     PlanType = "pro"
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Specialty    string    `db:"specialty"`
	BalanceDue   float64   `db:"balance_due"`
	BalanceLimit float64   `db:"balance_limit"`
	CreatedAt    time.Time `db:"created_at"`
}

// AvailabilitySlot is one (day, instant) entry of a trainer's availability.
// The set of rows for a trainer forms the availability document.
type AvailabilitySlot struct {
	TrainerID string    `db:"trainer_id"`
	Day       string    `db:"day"`
	Time      time.Time `db:"slot_time"`
}

type Booking struct {
	ID          string        `db:"id"`
	TrainerID   string        `db:"trainer_id"`
	ClientID    string        `db:"client_id"`
	SessionTime time.Time     `db:"session_time"`
	Status      BookingStatus `db:"status"`
	SessionCost float64       `db:"session_cost"`
	CreatedAt   time.Time     `db:"created_at"`
}

// BookingWithTrainer carries trainer details denormalized for list views.
type BookingWithTrainer struct {
	Booking
	TrainerName      string `db:"trainer_name"`
	TrainerSpecialty string `db:"trainer_specialty"`
}

type Subscription struct {
	ID                  string             `db:"id"`
	ClientID            string             `db:"client_id"`
	PlanType            PlanType           `db:"plan_type"`
	Status              SubscriptionStatus `db:"status"`
	SessionDiscount     float64            `db:"session_discount"`
	MaxBookingsPerMonth int                `db:"max_bookings_per_month"`
	StartDate           time.Time          `db:"start_date"`
	RenewalDate         time.Time          `db:"renewal_date"`
	EndDate             time.Time          `db:"end_date"`
}

type Message struct {
	ID        string    `db:"id"`
	Sender    string    `db:"sender_id"`
	Receiver  string    `db:"receiver_id"`
	Text      string    `db:"text"`
	Timestamp time.Time `db:"created_at"`
}
