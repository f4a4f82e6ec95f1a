package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID     string          `gorm:"uniqueIndex;not null;size:32"`
	UserID        *uuid.UUID      `gorm:"type:uuid;index"`
	PropertyID    string          `gorm:"not null;size:64;index"`
	PropertyTitle string          `gorm:"size:255"`
	Guest         json.RawMessage `gorm:"type:jsonb;not null"`
	Payment       json.RawMessage `gorm:"type:jsonb;not null"`
	CheckIn       time.Time       `gorm:"type:date;not null"`
	CheckOut      time.Time       `gorm:"type:date;not null"`
	Guests        int             `gorm:"not null"`
	Nights        int             `gorm:"not null"`
	NightlyRate   int64           `gorm:"not null"`
	Subtotal      int64           `gorm:"not null"`
	CleaningFee   int64           `gorm:"not null"`
	ServiceFee    int64           `gorm:"not null"`
	Total         int64           `gorm:"not null"`
	Currency      string          `gorm:"not null;size:3"`
	Status        string          `gorm:"not null;size:20;index"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of reservation.Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Save inserts a new record in a single statement, so the record is either
// fully visible or absent.
func (r *GormReservationRepository) Save(ctx context.Context, rec *reservation.Record) error {
	model, err := toReservationModel(rec)
	if err != nil {
		return fmt.Errorf("failed to convert reservation to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("booking id %s: %w", rec.BookingID(), reservation.ErrDuplicateID)
		}
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// ListByUser returns the user's reservations, newest first.
func (r *GormReservationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*reservation.Record, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list user reservations: %w", err)
	}

	records := make([]*reservation.Record, len(models))
	for i := range models {
		rec, err := toDomainRecord(&models[i])
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// FindByBookingID retrieves a reservation by its booking ID.
func (r *GormReservationRepository) FindByBookingID(ctx context.Context, bookingID string) (*reservation.Record, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Reservation", bookingID)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return toDomainRecord(&model)
}

// UpdateStatus changes the status only while it still equals from.
func (r *GormReservationRepository) UpdateStatus(ctx context.Context, bookingID string, from, to reservation.RecordStatus) error {
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update reservation status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check reservation: %w", err)
	}
	if count == 0 {
		return apperr.NewNotFoundError("Reservation", bookingID)
	}
	return apperr.NewConflictError(fmt.Sprintf("reservation %s is no longer %s", bookingID, from))
}

// ListAll returns one page of every reservation, newest first, with the total count.
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservation.Record, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	records := make([]*reservation.Record, len(models))
	for i := range models {
		rec, err := toDomainRecord(&models[i])
		if err != nil {
			return nil, 0, err
		}
		records[i] = rec
	}
	return records, total, nil
}

// CountByStatus returns reservation counts grouped by status.
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64, len(results))
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// --- Conversion Helpers ---

func toReservationModel(rec *reservation.Record) (*ReservationModel, error) {
	guestJSON, err := json.Marshal(rec.Guest())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guest details: %w", err)
	}
	paymentJSON, err := json.Marshal(rec.Payment())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment summary: %w", err)
	}

	q := rec.Quote()
	return &ReservationModel{
		ID:            rec.ID(),
		BookingID:     rec.BookingID(),
		UserID:        rec.UserID(),
		PropertyID:    rec.PropertyID(),
		PropertyTitle: rec.PropertyTitle(),
		Guest:         guestJSON,
		Payment:       paymentJSON,
		CheckIn:       rec.CheckIn(),
		CheckOut:      rec.CheckOut(),
		Guests:        rec.Guests(),
		Nights:        q.Nights,
		NightlyRate:   q.NightlyRate,
		Subtotal:      q.Subtotal,
		CleaningFee:   q.CleaningFee,
		ServiceFee:    q.ServiceFee,
		Total:         q.Total,
		Currency:      q.Currency,
		Status:        string(rec.Status()),
		CreatedAt:     rec.CreatedAt(),
		UpdatedAt:     rec.CreatedAt(),
	}, nil
}

func toDomainRecord(m *ReservationModel) (*reservation.Record, error) {
	var guest reservation.GuestDetails
	if err := json.Unmarshal(m.Guest, &guest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guest details: %w", err)
	}
	var payment reservation.PaymentSummary
	if err := json.Unmarshal(m.Payment, &payment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment summary: %w", err)
	}

	status, err := reservation.ParseRecordStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructRecord(reservation.RecordParams{
		ID:            m.ID,
		BookingID:     m.BookingID,
		UserID:        m.UserID,
		PropertyID:    m.PropertyID,
		PropertyTitle: m.PropertyTitle,
		Guest:         guest,
		Payment:       payment,
		Quote:         reservation.NewQuote(m.NightlyRate, m.Nights, m.CleaningFee, m.ServiceFee, m.Currency),
		CheckIn:       m.CheckIn,
		CheckOut:      m.CheckOut,
		Guests:        m.Guests,
		Status:        status,
		CreatedAt:     m.CreatedAt,
	}), nil
}
