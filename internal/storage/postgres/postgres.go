package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wassimhassan/backend/internal/models"
	"github.com/wassimhassan/backend/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	specialty     TEXT NOT NULL DEFAULT '',
	balance_due   DOUBLE PRECISION NOT NULL DEFAULT 0,
	balance_limit DOUBLE PRECISION NOT NULL DEFAULT 200,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS availability_slots (
	trainer_id TEXT NOT NULL REFERENCES users(id),
	day        TEXT NOT NULL,
	slot_time  TIMESTAMPTZ NOT NULL,
	UNIQUE (trainer_id, day, slot_time)
);

CREATE TABLE IF NOT EXISTS bookings (
	id           TEXT PRIMARY KEY,
	trainer_id   TEXT NOT NULL REFERENCES users(id),
	client_id    TEXT NOT NULL REFERENCES users(id),
	session_time TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL,
	session_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_unique
	ON bookings (trainer_id, client_id, session_time)
	WHERE status <> 'cancelled';

CREATE TABLE IF NOT EXISTS subscriptions (
	id                     TEXT PRIMARY KEY,
	client_id              TEXT NOT NULL REFERENCES users(id),
	plan_type              TEXT NOT NULL,
	status                 TEXT NOT NULL,
	session_discount       DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_bookings_per_month INTEGER NOT NULL DEFAULT 10,
	start_date             TIMESTAMPTZ NOT NULL DEFAULT now(),
	renewal_date           TIMESTAMPTZ NOT NULL,
	end_date               TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	text        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS messages_pair_idx
	ON messages (sender_id, receiver_id, created_at);
`

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%s: init schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### users ####

func (s *Storage) CreateUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.postgres.CreateUser"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, specialty, balance_due, balance_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, user.Username, user.Email, user.PasswordHash, user.Role, user.Specialty, user.BalanceDue, user.BalanceLimit,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, specialty, balance_due, balance_limit, created_at
		 FROM users WHERE id=$1`, id).
		Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Specialty,
			&user.BalanceDue,
			&user.BalanceLimit,
			&user.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.GetUserByEmail"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, specialty, balance_due, balance_limit, created_at
		 FROM users WHERE email=$1`, email).
		Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Specialty,
			&user.BalanceDue,
			&user.BalanceLimit,
			&user.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) AddBalanceDueTx(ctx context.Context, tx *sql.Tx, clientID string, amount float64) error {
	const op = "storage.postgres.AddBalanceDueTx"

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance_due = balance_due + $1 WHERE id=$2`, amount, clientID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### availability ####

// ReplaceAvailability overwrites the trainer's whole availability document.
func (s *Storage) ReplaceAvailability(ctx context.Context, trainerID string, slots []models.AvailabilitySlot) error {
	const op = "storage.postgres.ReplaceAvailability"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE trainer_id=$1`, trainerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, slot := range slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO availability_slots (trainer_id, day, slot_time)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			trainerID, slot.Day, slot.Time,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) GetAvailability(ctx context.Context, trainerID string) ([]models.AvailabilitySlot, error) {
	const op = "storage.postgres.GetAvailability"

	rows, err := s.db.QueryContext(ctx,
		`SELECT trainer_id, day, slot_time
		 FROM availability_slots
		 WHERE trainer_id=$1
		 ORDER BY day, slot_time`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var slots []models.AvailabilitySlot
	for rows.Next() {
		var slot models.AvailabilitySlot
		if err := rows.Scan(&slot.TrainerID, &slot.Day, &slot.Time); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func (s *Storage) DeleteAvailabilityDay(ctx context.Context, trainerID, day string) error {
	const op = "storage.postgres.DeleteAvailabilityDay"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM availability_slots WHERE trainer_id=$1 AND day=$2`, trainerID, day)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### bookings ####

func (s *Storage) HasActiveBookingTx(ctx context.Context, tx *sql.Tx, trainerID, clientID string, sessionTime time.Time) (bool, error) {
	const op = "storage.postgres.HasActiveBookingTx"

	var exists bool

	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE trainer_id=$1 AND client_id=$2 AND session_time=$3 AND status <> 'cancelled'
		)`, trainerID, clientID, sessionTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) CreateBookingTx(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBookingTx"

	id := uuid.NewString()

	_, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, trainer_id, client_id, session_time, status, session_cost)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, booking.TrainerID, booking.ClientID, booking.SessionTime, booking.Status, booking.SessionCost,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrDuplicateBooking)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking

	err := s.db.QueryRowContext(ctx,
		`SELECT id, trainer_id, client_id, session_time, status, session_cost, created_at
		 FROM bookings WHERE id=$1`, id).
		Scan(
			&booking.ID,
			&booking.TrainerID,
			&booking.ClientID,
			&booking.SessionTime,
			&booking.Status,
			&booking.SessionCost,
			&booking.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &booking, nil
}

func (s *Storage) ListBookingsByClient(ctx context.Context, clientID string) ([]models.BookingWithTrainer, error) {
	const op = "storage.postgres.ListBookingsByClient"

	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.trainer_id, b.client_id, b.session_time, b.status, b.session_cost, b.created_at,
		        u.username, u.specialty
		 FROM bookings b
		 JOIN users u ON u.id = b.trainer_id
		 WHERE b.client_id=$1
		 ORDER BY b.session_time ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var bookings []models.BookingWithTrainer
	for rows.Next() {
		var b models.BookingWithTrainer
		err := rows.Scan(
			&b.ID,
			&b.TrainerID,
			&b.ClientID,
			&b.SessionTime,
			&b.Status,
			&b.SessionCost,
			&b.CreatedAt,
			&b.TrainerName,
			&b.TrainerSpecialty,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func (s *Storage) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE id=$2`, status, bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### subscriptions ####

func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) (string, error) {
	const op = "storage.postgres.CreateSubscription"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, client_id, plan_type, status, session_discount, max_bookings_per_month, start_date, renewal_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, sub.ClientID, sub.PlanType, sub.Status, sub.SessionDiscount, sub.MaxBookingsPerMonth, sub.StartDate, sub.RenewalDate, sub.EndDate,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetActiveSubscription(ctx context.Context, clientID string) (*models.Subscription, error) {
	const op = "storage.postgres.GetActiveSubscription"

	var sub models.Subscription

	err := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, plan_type, status, session_discount, max_bookings_per_month, start_date, renewal_date, end_date
		 FROM subscriptions
		 WHERE client_id=$1 AND status='active'
		 ORDER BY start_date DESC
		 LIMIT 1`, clientID).
		Scan(
			&sub.ID,
			&sub.ClientID,
			&sub.PlanType,
			&sub.Status,
			&sub.SessionDiscount,
			&sub.MaxBookingsPerMonth,
			&sub.StartDate,
			&sub.RenewalDate,
			&sub.EndDate,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sub, nil
}

// #### messages ####

func (s *Storage) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	const op = "storage.postgres.CreateMessage"

	msg.ID = uuid.NewString()

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, text, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING created_at`,
		msg.ID, msg.Sender, msg.Receiver, msg.Text,
	).Scan(&msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return msg, nil
}

func (s *Storage) ListConversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	const op = "storage.postgres.ListConversation"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, text, created_at
		 FROM messages
		 WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
		 ORDER BY created_at ASC, id ASC`, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messages, nil
}
