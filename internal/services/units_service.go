package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"energyshare/internal/models"
)

// PurchaseOutcome is the browser's view of a unit purchase: either pending
// with a transaction id to track, or done with a token.
type PurchaseOutcome struct {
	State         string              `json:"state"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Message       string              `json:"message"`
	Token         string              `json:"token,omitempty"`
	Units         models.Amount       `json:"units,omitempty"`
	Transaction   *models.Transaction `json:"transaction,omitempty"`
}

type UnitsService interface {
	Buy(ctx context.Context, req models.BuyUnitsRequest) (*PurchaseOutcome, error)
}

type unitsService struct {
	api Backend
	log *zap.Logger
}

func NewUnitsService(api Backend, log *zap.Logger) UnitsService {
	return &unitsService{api: api, log: log}
}

func (s *unitsService) Buy(ctx context.Context, req models.BuyUnitsRequest) (*PurchaseOutcome, error) {
	var p models.UnitPurchase
	resp, err := s.api.Post(ctx, "transactions/buy-units/", req)
	if err := result(resp, err, &p); err != nil {
		s.log.Info("[units][buy] rejected", zap.Float64("amount", req.Amount), zap.Error(err))
		return nil, err
	}

	status := strings.ToUpper(p.Status)
	if status == "" {
		status = strings.ToUpper(p.PaymentStatus)
	}
	switch {
	case status == "PENDING" && p.TransactionID != "":
		msg := p.UserPrompt
		if msg == "" {
			msg = "Simulating payment... Please wait"
		}
		s.log.Info("[units][buy] pending", zap.String("transaction_id", p.TransactionID.String()))
		return &PurchaseOutcome{State: "PENDING", TransactionID: p.TransactionID.String(), Message: msg}, nil
	case p.Token != "":
		s.log.Info("[units][buy] completed", zap.String("units", p.UnitsPurchased.String()))
		return &PurchaseOutcome{
			State:       "SUCCESS",
			Message:     "Payment initiated successfully!, check your phone to complete the payment",
			Token:       p.Token,
			Units:       p.UnitsPurchased,
			Transaction: p.Transaction,
		}, nil
	}
	s.log.Warn("[units][buy] unexpected answer", zap.String("status", status))
	return nil, invalid("", "Failed to process payment")
}
