package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// PaymentService simulates a payment gateway. Every valid charge succeeds.
type PaymentService struct{}

func NewPaymentService() *PaymentService {
	return &PaymentService{}
}

// Pay charges amount and returns the receipt
func (s *PaymentService) Pay(ctx context.Context, amount float64) (*entities.Payment, error) {
	if amount < 0 {
		return nil, apperrors.NewValidationError("payment amount must not be negative")
	}
	payment := &entities.Payment{
		ID:     uuid.NewString(),
		Status: entities.PaymentStatusSuccess,
		Amount: amount,
	}
	log.Ctx(ctx).Debug().Str("payment_id", payment.ID).Float64("amount", amount).Msg("simulated payment captured")
	return payment, nil
}
