package application

import (
	"context"
	"fmt"

	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationAdminStore is the read side used by back-office tooling.
type ReservationAdminStore interface {
	ListAll(ctx context.Context, page, limit int) ([]*reservation.Record, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ReservationStatsDTO holds reservation statistics for the admin dashboard.
type ReservationStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// AdminService exposes reservation management to administrators.
type AdminService struct {
	store        ReservationAdminStore
	reservations *ReservationService
	logger       *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(store ReservationAdminStore, reservations *ReservationService, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, reservations: reservations, logger: logger}
}

// ListAllReservations returns a paginated list of all reservations.
func (s *AdminService) ListAllReservations(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	records, total, err := s.store.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	dtos := make([]ReservationDTO, len(records))
	for i, r := range records {
		dtos[i] = toReservationDTO(r)
	}
	return dtos, total, nil
}

// GetReservationStats returns reservation counts by status.
func (s *AdminService) GetReservationStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &ReservationStatsDTO{TotalReservations: total, ByStatus: counts}, nil
}

// CancelReservation cancels any confirmed reservation on behalf of adminID.
func (s *AdminService) CancelReservation(ctx context.Context, adminID uuid.UUID, bookingID, reason string) (*ReservationDTO, error) {
	s.logger.Info("admin cancelling reservation",
		zap.String("booking_id", bookingID),
		zap.String("admin_id", adminID.String()),
	)
	return s.reservations.CancelAsAdmin(ctx, adminID, bookingID, reason)
}
