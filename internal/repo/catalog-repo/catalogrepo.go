package catalogrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
)

// Repository serves read-only lookups of the property catalog, partner
// subscriptions and coupons, plus the coupon usage counter.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProperty(ctx context.Context, propertyID int64) (*domain.Property, error) {
	query := `
        SELECT id, partner_id, name, property_type, city, created_at
        FROM properties
        WHERE id = $1
    `
	var p domain.Property
	err := r.db.QueryRow(ctx, query, propertyID).Scan(&p.ID, &p.PartnerID, &p.Name, &p.PropertyType, &p.City, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get property", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetRoomType(ctx context.Context, roomTypeID int64) (*domain.RoomType, error) {
	query := `
        SELECT id, property_id, name, total_inventory, price_per_night,
               extra_adult_price, extra_child_price, base_occupancy, child_occupancy
        FROM room_types
        WHERE id = $1
    `
	var rt domain.RoomType
	err := r.db.QueryRow(ctx, query, roomTypeID).Scan(
		&rt.ID, &rt.PropertyID, &rt.Name, &rt.TotalInventory, &rt.PricePerNight,
		&rt.ExtraAdultPrice, &rt.ExtraChildPrice, &rt.BaseOccupancy, &rt.ChildOccupancy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get room type", zap.Error(err))
		return nil, err
	}
	return &rt, nil
}

// GetActiveSubscription returns the partner's current plan, if any. The
// commission rate is resolved per booking, so plan changes never affect
// existing bookings.
func (r *Repository) GetActiveSubscription(ctx context.Context, partnerID int64, now time.Time) (*domain.Subscription, error) {
	query := `
        SELECT id, partner_id, plan_name, commission_percentage, starts_at, expires_at, active
        FROM subscriptions
        WHERE partner_id = $1 AND active = TRUE AND starts_at <= $2 AND expires_at > $2
        ORDER BY expires_at DESC
        LIMIT 1
    `
	var s domain.Subscription
	err := r.db.QueryRow(ctx, query, partnerID, now).Scan(
		&s.ID, &s.PartnerID, &s.PlanName, &s.CommissionPercentage, &s.StartsAt, &s.ExpiresAt, &s.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get active subscription", zap.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
        SELECT id, code, discount_type, discount_value, max_discount, min_booking_amount,
               start_date, end_date, user_limit, usage_count, allowed_property_types, active
        FROM coupons
        WHERE code = $1
    `
	var c domain.Coupon
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount, &c.MinBookingAmount,
		&c.StartDate, &c.EndDate, &c.UserLimit, &c.UsageCount, &c.AllowedPropertyTypes, &c.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get coupon", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *Repository) IncrementCouponUsage(ctx context.Context, code string) error {
	query := `
        UPDATE coupons
        SET usage_count = usage_count + 1
        WHERE code = $1
    `
	if _, err := r.db.Exec(ctx, query, code); err != nil {
		zap.L().Error("failed to increment coupon usage", zap.String("code", code), zap.Error(err))
		return err
	}
	return nil
}
