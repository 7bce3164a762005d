package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/validation"
)

type MeterService interface {
	Register(ctx context.Context, req models.MeterRegistration) (*models.Meter, error)
	// MyMeter reports the user's meter; HasMeter is false when there is none.
	MyMeter(ctx context.Context) (*models.MeterStatus, error)
	Tokens(ctx context.Context) ([]models.Token, error)
	Token(ctx context.Context, id int) (*models.Token, error)
}

type meterService struct {
	api Backend
	log *zap.Logger
}

func NewMeterService(api Backend, log *zap.Logger) MeterService {
	return &meterService{api: api, log: log}
}

func (s *meterService) Register(ctx context.Context, req models.MeterRegistration) (*models.Meter, error) {
	req.MeterNo = strings.TrimSpace(req.MeterNo)
	req.StaticIP = strings.TrimSpace(req.StaticIP)
	// handlers validate too; the service refuses bad input on its own so no
	// caller can reach the backend with it
	if !validation.ValidMeterNumber(req.MeterNo) {
		return nil, invalid("meter_no", "Please enter a valid 10-12 digit meter number")
	}
	if !validation.ValidIPv4(req.StaticIP) {
		return nil, invalid("static_ip", "Please enter a valid IP address")
	}

	var out struct {
		Success string       `json:"success"`
		Data    models.Meter `json:"data"`
	}
	resp, err := s.api.Post(ctx, "meter/register/", req)
	if err := result(resp, err, &out); err != nil {
		s.log.Info("[meter][register] rejected", zap.String("meter_no", req.MeterNo), zap.Error(err))
		return nil, err
	}
	if out.Data.MeterNo == "" {
		out.Data.MeterNo = req.MeterNo
		out.Data.StaticIP = req.StaticIP
	}
	s.log.Info("[meter][register] registered", zap.String("meter_no", req.MeterNo))
	return &out.Data, nil
}

func (s *meterService) MyMeter(ctx context.Context) (*models.MeterStatus, error) {
	var st models.MeterStatus
	resp, err := s.api.Get(ctx, "meter/my-meter/")
	if err := result(resp, err, &st); err != nil {
		if ae, ok := apiclient.AsAPIError(err); ok && ae.Status == http.StatusNotFound {
			return &models.MeterStatus{HasMeter: false}, nil
		}
		return nil, err
	}
	return &st, nil
}

// Tokens lists the latest tokens, newest first. Users without a meter get
// {"data": {"data": []}} instead of a list.
func (s *meterService) Tokens(ctx context.Context) ([]models.Token, error) {
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	resp, err := s.api.Get(ctx, "meter/token/")
	if err := result(resp, err, &out); err != nil {
		return nil, err
	}
	tokens := []models.Token{}
	if len(out.Data) == 0 || out.Data[0] != '[' {
		return tokens, nil
	}
	if err := json.Unmarshal(out.Data, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return tokens, nil
}

// Token picks one token out of the user's list; the backend has no single
// token route.
func (s *meterService) Token(ctx context.Context, id int) (*models.Token, error) {
	tokens, err := s.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		if tokens[i].ID == id {
			return &tokens[i], nil
		}
	}
	return nil, fmt.Errorf("token %d: %w", id, ErrNotFound)
}
