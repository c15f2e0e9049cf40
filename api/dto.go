package api

import "time"

type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Specialty string `json:"specialty,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Specialty    string  `json:"specialty,omitempty"`
	BalanceDue   float64 `json:"balanceDue"`
	BalanceLimit float64 `json:"balanceLimit"`
}

type AuthResponse struct {
	Token string       `json:"token,omitempty"`
	User  UserResponse `json:"user"`
}

type BookSessionRequest struct {
	TrainerID   string  `json:"trainerId"`
	SessionTime string  `json:"sessionTime"`
	SessionCost float64 `json:"sessionCost"`
}

type BookingResponse struct {
	ID               string    `json:"id"`
	TrainerID        string    `json:"trainerId"`
	ClientID         string    `json:"clientId"`
	SessionTime      time.Time `json:"sessionTime"`
	Status           string    `json:"status"`
	SessionCost      float64   `json:"sessionCost"`
	TrainerName      string    `json:"trainerName,omitempty"`
	TrainerSpecialty string    `json:"trainerSpecialty,omitempty"`
}

// AvailabilitySlot groups the bookable instants of one day,
// mirroring the availableSlots document shape the clients send.
type AvailabilitySlot struct {
	Day  string   `json:"day"`
	Time []string `json:"time"`
}

type SetAvailabilityRequest struct {
	TrainerID      string             `json:"trainerId"`
	AvailableSlots []AvailabilitySlot `json:"availableSlots"`
}

type AvailabilityResponse struct {
	TrainerID      string             `json:"trainerId"`
	AvailableSlots []AvailabilitySlot `json:"availableSlots"`
}

type SubscriptionRequest struct {
	PlanType string `json:"planType"`
}

type SubscriptionResponse struct {
	ID                  string    `json:"id"`
	ClientID            string    `json:"clientId"`
	PlanType            string    `json:"planType"`
	Status              string    `json:"status"`
	SessionDiscount     float64   `json:"sessionDiscount"`
	MaxBookingsPerMonth int       `json:"maxBookingsPerMonth"`
	StartDate           time.Time `json:"startDate"`
	RenewalDate         time.Time `json:"renewalDate"`
	EndDate             time.Time `json:"endDate"`
}

type SendMessageRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
