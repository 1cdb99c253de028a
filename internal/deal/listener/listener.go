package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trustbit/mandi-service/internal/deal"
	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/pkg/broker"
	"go.uber.org/zap"
)

// DealListener consumes booking events published by the trade desk and
// registers them as deals.
type DealListener struct {
	consumer *broker.Consumer
	uc       deal.UseCase
	logger   *zap.Logger
}

func NewDealListener(consumer *broker.Consumer, uc deal.UseCase, logger *zap.Logger) *DealListener {
	return &DealListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *DealListener) Start(ctx context.Context) {
	l.logger.Info("starting deal booking listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping deal booking listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type DealBookedEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   DealPayload `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type DealPayload struct {
	Customer      string            `json:"customer"`
	CustomerName  string            `json:"customer_name"`
	PriceListArea string            `json:"price_list_area"`
	DealDate      time.Time         `json:"deal_date"`
	Items         []DealItemPayload `json:"items"`
}

type DealItemPayload struct {
	Item     string  `json:"item"`
	ItemName string  `json:"item_name"`
	PackSize string  `json:"pack_size"`
	Qty      float64 `json:"qty"`
	Rate     float64 `json:"rate"`
}

func (l *DealListener) processMessage(ctx context.Context, value []byte) {
	var event DealBookedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "DealBooked" {
		return
	}

	l.logger.Info("processing DealBooked event",
		zap.String("event_id", event.EventID),
		zap.String("customer", event.Payload.Customer))

	input := &dto.CreateDealInput{
		Customer:      event.Payload.Customer,
		CustomerName:  event.Payload.CustomerName,
		PriceListArea: event.Payload.PriceListArea,
		DealDate:      event.Payload.DealDate,
	}
	for _, item := range event.Payload.Items {
		input.Items = append(input.Items, dto.CreateDealItemRow{
			Item:     item.Item,
			ItemName: item.ItemName,
			PackSize: item.PackSize,
			Qty:      item.Qty,
			Rate:     item.Rate,
		})
	}

	if _, err := l.uc.Create(ctx, input); err != nil {
		l.logger.Error("failed to register booked deal",
			zap.String("event_id", event.EventID),
			zap.String("customer", event.Payload.Customer),
			zap.Error(err),
		)
	}
}
