package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"marketplace-backend/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const orderCacheTTL = 5 * time.Minute

// CachedOrderRepository is a read-through cache over the order repository.
// The cache is advisory: a miss or a redis error falls back to the
// authoritative read, and every mutation invalidates the affected keys before
// it returns.
type CachedOrderRepository struct {
	*OrderRepository
	rdb *redis.Client
}

func NewCachedOrderRepository(repo *OrderRepository, rdb *redis.Client) *CachedOrderRepository {
	return &CachedOrderRepository{OrderRepository: repo, rdb: rdb}
}

func orderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

func (r *CachedOrderRepository) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	key := orderKey(id)
	if cached, err := r.rdb.Get(ctx, key).Result(); err == nil {
		order := &entity.Order{}
		if err := json.Unmarshal([]byte(cached), order); err == nil {
			return order, nil
		}
	}

	order, err := r.OrderRepository.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(order); err == nil {
		if err := r.rdb.Set(ctx, key, payload, orderCacheTTL).Err(); err != nil {
			logger.Warn().Err(err).Msgf("Error caching order %d", id)
		}
	}
	return order, nil
}

func (r *CachedOrderRepository) UpdateOrderStatus(ctx context.Context, id int64, version int, status entity.OrderStatus) error {
	r.invalidate(ctx, id)
	return r.OrderRepository.UpdateOrderStatus(ctx, id, version, status)
}

func (r *CachedOrderRepository) UpdateOrderPayment(ctx context.Context, id int64, version int, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error {
	r.invalidate(ctx, id)
	return r.OrderRepository.UpdateOrderPayment(ctx, id, version, status, paymentStatus)
}

func (r *CachedOrderRepository) invalidate(ctx context.Context, id int64) {
	if err := r.rdb.Del(ctx, orderKey(id)).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error invalidating cache for order %d", id)
	}
}
