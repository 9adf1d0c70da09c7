package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/calc"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	db     *gorm.DB
	orders repositories.OrderRepository
	client Best2PayClient
}

func NewPaymentService(db *gorm.DB, orders repositories.OrderRepository, client Best2PayClient) *PaymentService {
	return &PaymentService{db: db, orders: orders, client: client}
}

// RedirectURL registers the pending order with Best2Pay, once, and returns
// the card form URL. Gateway failures are stored on the order and
// reported as 502.
func (s *PaymentService) RedirectURL(ctx context.Context, owner repositories.Owner, orderID string) (string, error) {
	order, err := s.orders.FindForOwner(ctx, owner, orderID)
	if err != nil {
		return "", fmt.Errorf("find order: %w", err)
	}
	if order == nil || order.Status != models.OrderStatusPending {
		return "", ErrOrderNotFound
	}

	payment := order.PaymentInfo
	if payment == nil {
		payment = &models.OrderPaymentInfo{OrderID: order.ID, Type: models.PaymentCard}
		if err := s.orders.SavePaymentInfo(ctx, payment); err != nil {
			return "", fmt.Errorf("create payment info: %w", err)
		}
	}
	b2p := payment.B2P
	if b2p == nil {
		b2p = &models.OrderPaymentB2PInfo{PaymentInfoID: payment.ID, Status: models.B2PStatusNew}
	}
	if b2p.Status == models.B2PStatusRegistered && b2p.OrderID != "" {
		return s.client.AuthorizeURL(b2p.OrderID), nil
	}

	resp, regErr := s.client.Register(ctx, RegisterRequest{
		Amount:      calc.ToMinorUnits(order.Total()),
		Reference:   order.ID,
		Description: "Заказ " + order.ID,
	})
	if regErr != nil {
		b2p.Status = models.B2PStatusFailed
		b2p.RegisterError = regErr.Error()
		if err := s.orders.SaveB2PInfo(ctx, nil, b2p); err != nil {
			return "", fmt.Errorf("store failed registration: %w", err)
		}
		zap.L().Error("PaymentService.RedirectURL: registration failed", zap.String("order_id", order.ID), zap.Error(regErr))

		detail := "Payment gateway is unavailable."
		var gwErr *Best2PayError
		if errors.As(regErr, &gwErr) {
			detail = gwErr.Description
		}
		return "", &DetailError{Status: http.StatusBadGateway, Detail: detail}
	}

	b2p.OrderID = resp.ID
	b2p.Status = models.B2PStatusRegistered
	b2p.RegisterError = ""
	if err := s.orders.SaveB2PInfo(ctx, nil, b2p); err != nil {
		return "", fmt.Errorf("store registration: %w", err)
	}
	return s.client.AuthorizeURL(resp.ID), nil
}

type StatusUpdate struct {
	Status     string `json:"status" validate:"required"`
	Operation  int64  `json:"operation"`
	ResultCode int64  `json:"result_code"`
}

// UpdateStatus records the gateway callback result. A paid order is final.
func (s *PaymentService) UpdateStatus(ctx context.Context, owner repositories.Owner, orderID string, in StatusUpdate) (*models.OrderPaymentB2PInfo, error) {
	order, err := s.orders.FindForOwner(ctx, owner, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentInfo == nil || order.PaymentInfo.B2P == nil {
		return nil, ErrB2PNotFound
	}
	b2p := order.PaymentInfo.B2P
	if b2p.Status == models.B2PStatusSuccess {
		return nil, ErrOrderAlreadyPaid
	}
	if !models.IsB2PStatus(in.Status) {
		return nil, models.FieldErrors{"status": fmt.Sprintf("%q is not a valid choice.", in.Status)}
	}

	b2p.Status = in.Status
	b2p.LastOperationNumber = strconv.FormatInt(in.Operation, 10)
	b2p.LastOperationCode = strconv.FormatInt(in.ResultCode, 10)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.SaveB2PInfo(ctx, tx, b2p); err != nil {
			return err
		}
		if b2p.Status == models.B2PStatusSuccess {
			return s.orders.MarkPaid(ctx, tx, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	zap.L().Info("PaymentService.UpdateStatus: status changed", zap.String("order_id", order.ID), zap.String("status", b2p.Status))
	return b2p, nil
}
