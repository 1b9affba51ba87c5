package bookingrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `id, booking_id, user_id, partner_id, property_id, COALESCE(room_type_id, 0), check_in_date, check_out_date,
        total_nights, units, adults, children, price_per_night, base_amount, extra_charges, discount, taxes,
        admin_commission, partner_payout, total_amount, wallet_amount, coupon_code, payment_method, payment_status,
        booking_status, is_inquiry, inquiry_status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.PartnerID, &b.PropertyID, &b.RoomTypeID, &b.CheckInDate, &b.CheckOutDate,
		&b.TotalNights, &b.Units, &b.Guests.Adults, &b.Guests.Children, &b.PricePerNight, &b.BaseAmount,
		&b.ExtraCharges, &b.Discount, &b.Taxes, &b.AdminCommission, &b.PartnerPayout, &b.TotalAmount,
		&b.WalletAmount, &b.CouponCode, &b.PaymentMethod, &b.PaymentStatus, &b.BookingStatus,
		&b.IsInquiry, &b.InquiryStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	query := `
        INSERT INTO bookings (booking_id, user_id, partner_id, property_id, room_type_id, check_in_date, check_out_date,
            total_nights, units, adults, children, price_per_night, base_amount, extra_charges, discount, taxes,
            admin_commission, partner_payout, total_amount, wallet_amount, coupon_code, payment_method, payment_status,
            booking_status, is_inquiry, inquiry_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
        RETURNING id, created_at, updated_at
    `
	// inquiries carry no room type; 0 must become NULL or the FK rejects the row
	var roomTypeID *int64
	if b.RoomTypeID != 0 {
		roomTypeID = &b.RoomTypeID
	}
	err := r.db.QueryRow(ctx, query,
		b.BookingID, b.UserID, b.PartnerID, b.PropertyID, roomTypeID, b.CheckInDate, b.CheckOutDate,
		b.TotalNights, b.Units, b.Guests.Adults, b.Guests.Children, b.PricePerNight, b.BaseAmount,
		b.ExtraCharges, b.Discount, b.Taxes, b.AdminCommission, b.PartnerPayout, b.TotalAmount,
		b.WalletAmount, b.CouponCode, b.PaymentMethod, b.PaymentStatus, b.BookingStatus,
		b.IsInquiry, b.InquiryStatus,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		zap.L().Error("can't create booking", zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `
        SELECT ` + bookingColumns + `
        FROM bookings
        WHERE booking_id = $1
    `
	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get booking", zap.String("bookingID", bookingID), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	query := `
        SELECT ` + bookingColumns + `
        FROM bookings
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, userID)
}

func (r *Repository) ListByPartner(ctx context.Context, partnerID int64) ([]domain.Booking, error) {
	query := `
        SELECT ` + bookingColumns + `
        FROM bookings
        WHERE partner_id = $1
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, partnerID)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		zap.L().Error("failed to fetch bookings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			zap.L().Error("failed to scan booking row", zap.Error(err))
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

// UpdateStatus flips the state-machine columns; pricing fields are immutable
// after creation.
func (r *Repository) UpdateStatus(ctx context.Context, bookingID string, bookingStatus domain.BookingStatus, paymentStatus domain.PaymentStatus) error {
	query := `
        UPDATE bookings
        SET booking_status = $1, payment_status = $2, updated_at = now()
        WHERE booking_id = $3
    `
	tag, err := r.db.Exec(ctx, query, bookingStatus, paymentStatus, bookingID)
	if err != nil {
		zap.L().Error("failed to update booking status", zap.String("bookingID", bookingID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) UpdateInquiryStatus(ctx context.Context, bookingID string, status domain.InquiryStatus) error {
	query := `
        UPDATE bookings
        SET inquiry_status = $1, updated_at = now()
        WHERE booking_id = $2 AND is_inquiry = TRUE
    `
	tag, err := r.db.Exec(ctx, query, status, bookingID)
	if err != nil {
		zap.L().Error("failed to update inquiry status", zap.String("bookingID", bookingID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountCouponUse counts a user's redemptions of a coupon across bookings that
// still count against the limit.
func (r *Repository) CountCouponUse(ctx context.Context, userID int64, couponCode string) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM bookings
        WHERE user_id = $1 AND coupon_code = $2 AND booking_status NOT IN ('cancelled', 'rejected')
    `
	var count int
	if err := r.db.QueryRow(ctx, query, userID, couponCode).Scan(&count); err != nil {
		zap.L().Error("failed to count coupon use", zap.Error(err))
		return 0, err
	}
	return count, nil
}
