package services

import (
	"context"
	"fmt"

	"kopi-store/models"
)

// Summary counts the store's orders created on the store-local day and the
// revenue of those not cancelled.
func (s *OrderService) Summary(ctx context.Context, storeID string, day models.Date) (*models.DashboardSummary, error) {
	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load settings for %s: %w", storeID, err)
	}
	cal, _ := NewCalendar(settings)
	if day.IsZero() {
		day = cal.LocalDate(s.deps.Clock.Now())
	}
	orders, err := s.deps.Orders.List(ctx, models.OrderFilter{
		StoreID:       storeID,
		CreatedFrom:   day.In(cal.location()),
		CreatedBefore: day.AddDays(1).In(cal.location()),
	})
	if err != nil {
		return nil, err
	}
	sum := &models.DashboardSummary{Day: day, Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusReceived:
			sum.Received++
		case models.OrderStatusPreparing:
			sum.Preparing++
		case models.OrderStatusReady:
			sum.Ready++
		case models.OrderStatusCollected:
			sum.Collected++
		case models.OrderStatusCancelled:
			sum.Cancelled++
		}
		if o.Status != models.OrderStatusCancelled {
			sum.Revenue += o.TotalAmount
		}
	}
	return sum, nil
}

// Recent returns the store's latest n orders, newest first.
func (s *OrderService) Recent(ctx context.Context, storeID string, n int) ([]models.Order, error) {
	return s.deps.Orders.List(ctx, models.OrderFilter{StoreID: storeID, Limit: n})
}
