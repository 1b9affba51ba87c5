package bookingservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
)

// Cancel reverses money exactly as it was taken and releases the inventory
// hold. The reversal and the status flip run in one transaction, so booking
// state and wallet state cannot drift apart.
func (s *Service) Cancel(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}

	if booking.IsInquiry {
		return s.UpdateInquiryStatus(ctx, p, bookingID, domain.InquiryDropped)
	}

	switch booking.BookingStatus {
	case domain.BookingCancelled:
		return nil, ErrAlreadyCancelled
	case domain.BookingCheckedOut, domain.BookingNoShow, domain.BookingRejected:
		return nil, ErrInvalidTransition
	}

	paymentStatus := booking.PaymentStatus
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.reverseSettlement(ctx, booking); err != nil {
			return err
		}
		if booking.PaymentStatus == domain.PaymentPaid {
			paymentStatus = domain.PaymentRefunded
		}
		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingCancelled, paymentStatus); err != nil {
			return err
		}
		_, err := s.ledgerRepo.DeleteByReference(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	booking.BookingStatus = domain.BookingCancelled
	booking.PaymentStatus = paymentStatus
	s.notify(ctx, booking.UserID, domain.KindUser, "Booking cancelled", bookingID)
	s.notify(ctx, booking.PartnerID, domain.KindPartner, "Booking cancelled", bookingID)
	return booking, nil
}

// Reject is the partner's side of cancellation: the stay is refused before it
// starts, money comes back exactly as it was taken and the hold is released.
func (s *Service) Reject(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if booking.IsInquiry {
		// inquiries are refused through their own sub-machine
		return s.UpdateInquiryStatus(ctx, p, bookingID, domain.InquiryDropped)
	}
	if booking.BookingStatus != domain.BookingPending && booking.BookingStatus != domain.BookingConfirmed {
		return nil, ErrInvalidTransition
	}

	paymentStatus := booking.PaymentStatus
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.reverseSettlement(ctx, booking); err != nil {
			return err
		}
		if booking.PaymentStatus == domain.PaymentPaid {
			paymentStatus = domain.PaymentRefunded
		}
		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingRejected, paymentStatus); err != nil {
			return err
		}
		_, err := s.ledgerRepo.DeleteByReference(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	booking.BookingStatus = domain.BookingRejected
	booking.PaymentStatus = paymentStatus
	s.notify(ctx, booking.UserID, domain.KindUser, "Booking rejected", bookingID)
	return booking, nil
}

// reverseSettlement undoes the wallet movements the original booking made,
// conditioned on payment method and status.
func (s *Service) reverseSettlement(ctx context.Context, booking *domain.Booking) error {
	ref := booking.BookingID

	if booking.PaymentMethod == domain.PaymentAtHotel {
		// undo the fronted platform cut
		cut := booking.Taxes + booking.AdminCommission
		if _, err := s.wallets.Credit(ctx, booking.PartnerID, domain.KindPartner, cut,
			"platform cut returned", ref, domain.CatCommissionRefund); err != nil {
			return err
		}
		_, err := s.wallets.Debit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, cut,
			"platform cut returned", ref, domain.CatRefundDeduction)
		return err
	}

	if booking.PaymentStatus != domain.PaymentPaid {
		// awaiting_payment online bookings moved no money
		return nil
	}

	if _, err := s.wallets.Credit(ctx, booking.UserID, domain.KindUser, booking.TotalAmount,
		"booking refund", ref, domain.CatRefund); err != nil {
		return err
	}
	if booking.PartnerPayout > 0 {
		if _, err := s.wallets.Debit(ctx, booking.PartnerID, domain.KindPartner, booking.PartnerPayout,
			"booking refund", ref, domain.CatRefundDeduction); err != nil {
			return err
		}
	}
	_, err := s.wallets.Debit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, booking.Taxes+booking.AdminCommission,
		"booking refund", ref, domain.CatRefundDeduction)
	return err
}

// NoShow penalizes the guest rather than the partner alone: the platform
// keeps the partner's earned payout instead of refunding the user.
func (s *Service) NoShow(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if booking.BookingStatus != domain.BookingConfirmed {
		return nil, ErrInvalidTransition
	}

	ref := booking.BookingID
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if booking.PaymentMethod == domain.PaymentAtHotel {
			// the partner never collected payment, so the fronted cut comes back
			cut := booking.Taxes + booking.AdminCommission
			if _, err := s.wallets.Credit(ctx, booking.PartnerID, domain.KindPartner, cut,
				"platform cut returned", ref, domain.CatCommissionRefund); err != nil {
				return err
			}
			if _, err := s.wallets.Debit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, cut,
				"platform cut returned", ref, domain.CatRefundDeduction); err != nil {
				return err
			}
		}

		if booking.PartnerPayout > 0 {
			if _, err := s.wallets.Debit(ctx, booking.PartnerID, domain.KindPartner, booking.PartnerPayout,
				"no-show penalty", ref, domain.CatNoShowPenalty); err != nil {
				return err
			}
			if _, err := s.wallets.Credit(ctx, s.cfg.TreasuryOwner, domain.KindAdmin, booking.PartnerPayout,
				"no-show penalty", ref, domain.CatNoShowCompensation); err != nil {
				return err
			}
		}

		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingNoShow, booking.PaymentStatus); err != nil {
			return err
		}
		_, err := s.ledgerRepo.DeleteByReference(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	booking.BookingStatus = domain.BookingNoShow
	s.notify(ctx, booking.UserID, domain.KindUser, "Marked as no-show", bookingID)
	return booking, nil
}

func (s *Service) CheckIn(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if booking.BookingStatus != domain.BookingConfirmed {
		return nil, ErrInvalidTransition
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingCheckedIn, booking.PaymentStatus); err != nil {
		return nil, err
	}
	booking.BookingStatus = domain.BookingCheckedIn
	return booking, nil
}

// CheckOut completes a stay. Unless forced, the booking must be paid. An
// early checkout truncates the ledger hold to now, freeing the remaining
// nights for resale.
func (s *Service) CheckOut(ctx context.Context, p domain.Principal, bookingID string, force bool) (*domain.Booking, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if booking.BookingStatus != domain.BookingCheckedIn {
		return nil, ErrInvalidTransition
	}
	if !force && booking.PaymentStatus != domain.PaymentPaid {
		return nil, ErrPaymentPending
	}

	now := time.Now()
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingCheckedOut, booking.PaymentStatus); err != nil {
			return err
		}
		if now.Before(booking.CheckOutDate) {
			return s.ledgerRepo.TruncateEndDate(ctx, bookingID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	booking.BookingStatus = domain.BookingCheckedOut
	return booking, nil
}

// MarkPaid records cash collection for a pay_at_hotel booking. The platform
// cut was already taken at creation, so no wallet movement happens here.
func (s *Service) MarkPaid(ctx context.Context, p domain.Principal, bookingID string) (*domain.Booking, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if booking.PaymentMethod != domain.PaymentAtHotel {
		return nil, ErrInvalidPaymentMethod
	}
	if booking.PaymentStatus == domain.PaymentPaid {
		return booking, nil
	}
	if booking.BookingStatus.Terminal() && booking.BookingStatus != domain.BookingCheckedOut {
		return nil, ErrInvalidTransition
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, booking.BookingStatus, domain.PaymentPaid); err != nil {
		return nil, err
	}
	booking.PaymentStatus = domain.PaymentPaid
	return booking, nil
}

var inquiryTransitions = map[domain.InquiryStatus][]domain.InquiryStatus{
	domain.InquiryNew:         {domain.InquiryScheduled, domain.InquiryNegotiating, domain.InquiryDropped},
	domain.InquiryScheduled:   {domain.InquiryNegotiating, domain.InquiryClosed, domain.InquirySold, domain.InquiryRented, domain.InquiryDropped},
	domain.InquiryNegotiating: {domain.InquiryClosed, domain.InquirySold, domain.InquiryRented, domain.InquiryDropped},
}

// UpdateInquiryStatus drives the inquiry sub-machine; transitions are partner
// actions only and no money ever moves.
func (s *Service) UpdateInquiryStatus(ctx context.Context, p domain.Principal, bookingID string, status domain.InquiryStatus) (*domain.Booking, error) {
	if p.Kind == domain.KindUser && status != domain.InquiryDropped {
		return nil, ErrNotAuthorized
	}
	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, p); err != nil {
		return nil, err
	}
	if !booking.IsInquiry {
		return nil, ErrNotInquiry
	}

	allowed, ok := inquiryTransitions[booking.InquiryStatus]
	if !ok {
		return nil, ErrInquiryClosed
	}
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidTransition
	}

	if err := s.bookingRepo.UpdateInquiryStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.InquiryStatus = status
	return booking, nil
}

// Block places a manual hold (walk-in, external channel, maintenance block)
// under the same capacity guard as platform bookings.
func (s *Service) Block(ctx context.Context, p domain.Principal, params BlockParams) (*domain.LedgerEntry, error) {
	if p.Kind == domain.KindUser {
		return nil, ErrNotAuthorized
	}
	property, err := s.catalogRepo.GetProperty(ctx, params.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	if p.Kind == domain.KindPartner && property.PartnerID != p.ID {
		return nil, ErrNotAuthorized
	}
	if !params.StartDate.Before(params.EndDate) {
		return nil, ErrInvalidDates
	}

	entry := &domain.LedgerEntry{
		PropertyID:    params.PropertyID,
		RoomTypeID:    params.RoomTypeID,
		InventoryType: "room",
		Source:        params.Source,
		ReferenceID:   fmt.Sprintf("BLK-%s", uuid.NewString()[:8]),
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Units:         params.Units,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		roomType, err := s.ledgerRepo.LockRoomType(ctx, params.RoomTypeID)
		if err != nil {
			return err
		}
		if roomType == nil || roomType.PropertyID != params.PropertyID {
			return ErrRoomTypeNotFound
		}
		reserved, err := s.ledgerRepo.ReservedUnits(ctx, params.RoomTypeID, params.StartDate, params.EndDate)
		if err != nil {
			return err
		}
		if roomType.TotalInventory-reserved < params.Units {
			return ErrInsufficientCapacity
		}
		_, err = s.ledgerRepo.Insert(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Unblock removes a manual hold. Platform holds whose booking is still live
// are protected: cancelling the booking is the only way to free them.
func (s *Service) Unblock(ctx context.Context, p domain.Principal, entryID int64) error {
	if p.Kind == domain.KindUser {
		return ErrNotAuthorized
	}
	entry, err := s.ledgerRepo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrLedgerEntryNotFound
	}

	property, err := s.catalogRepo.GetProperty(ctx, entry.PropertyID)
	if err != nil {
		return err
	}
	if property == nil {
		return ErrPropertyNotFound
	}
	if p.Kind == domain.KindPartner && property.PartnerID != p.ID {
		return ErrNotAuthorized
	}

	if entry.Source == domain.SourcePlatform {
		booking, err := s.bookingRepo.GetByBookingID(ctx, entry.ReferenceID)
		if err != nil {
			return err
		}
		if booking != nil && booking.BookingStatus != domain.BookingCancelled {
			return ErrProtectedEntry
		}
	}
	return s.ledgerRepo.DeleteEntry(ctx, entryID)
}

// Availability returns remaining capacity for a date range.
func (s *Service) Availability(ctx context.Context, roomTypeID int64, start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, ErrInvalidDates
	}
	roomType, err := s.catalogRepo.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return 0, err
	}
	if roomType == nil {
		return 0, ErrRoomTypeNotFound
	}
	reserved, err := s.ledgerRepo.ReservedUnits(ctx, roomTypeID, start, end)
	if err != nil {
		return 0, err
	}
	available := roomType.TotalInventory - reserved
	if available < 0 {
		zap.L().Warn("ledger oversold", zap.Int64("roomTypeID", roomTypeID), zap.Int("available", available))
		available = 0
	}
	return available, nil
}
