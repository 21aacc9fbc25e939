package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/utils"
)

// orderKeyPrefix namespaces order records in the lock store's Redis.
const orderKeyPrefix = "order:"

// Order is the gateway order handed to the frontend so it can open the
// payment widget.  One order exists per reservation token; repeated
// create calls return the first one.
type Order struct {
	OrderID          string `json:"order_id"`
	AmountCents      uint32 `json:"amount_cents"`
	Currency         string `json:"currency"`
	ReservationToken string `json:"reservation_token"`
	GatewayKey       string `json:"gateway_key,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// Orders stores orders in Redis with the same lifetime as the seat
// lock: an order for an expired reservation is useless, so it expires
// alongside it.
type Orders struct {
	rdb        *redis.Client
	ttl        time.Duration
	gatewayKey string
}

// NewOrders builds the order store.  ttl should match the lock TTL.
func NewOrders(rdb *redis.Client, ttl time.Duration, gatewayKey string) *Orders {
	return &Orders{rdb: rdb, ttl: ttl, gatewayKey: gatewayKey}
}

// Create makes the order for a reservation, or returns the existing one
// when a retry races in.  The second return reports whether this call
// created it.
func (o *Orders) Create(ctx context.Context, res *model.Reservation, amountCents uint32, currency string) (*Order, bool, error) {
	orderID, err := utils.NewOrderID()
	if err != nil {
		return nil, false, fmt.Errorf("generate order id: %w", err)
	}
	order := &Order{
		OrderID:          orderID,
		AmountCents:      amountCents,
		Currency:         currency,
		ReservationToken: res.Token,
		GatewayKey:       o.gatewayKey,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, false, fmt.Errorf("marshal order: %w", err)
	}

	key := orderKeyPrefix + res.Token
	created, err := o.rdb.SetNX(ctx, key, payload, o.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("store order: %w", err)
	}
	if created {
		return order, true, nil
	}

	// Lost the SET NX race (or an earlier call created it): read back
	// the winning order.
	raw, err := o.rdb.Get(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("load existing order: %w", err)
	}
	var existing Order
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return nil, false, fmt.Errorf("decode existing order: %w", err)
	}
	return &existing, false, nil
}
