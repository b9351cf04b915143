// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"brihaspati/internal/application/session"
	common "brihaspati/internal/domain/common"
	orderdom "brihaspati/internal/domain/order"
)

const mailTimeout = 10 * time.Second

var (
	ErrLoginRequired     = errors.New("checkout: login required")
	ErrOrderStoreMissing = errors.New("checkout: order repository is not configured")
)

// OrderMailer sends the order confirmation (outbound port).
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, o orderdom.Order) error
}

// CheckoutUsecase turns the session cart into a pending order.
//   - primary: orders collection
//   - fallback: tried once when the primary write fails (nil = none)
//   - mailer: confirmation is best-effort (nil = skipped)
type CheckoutUsecase struct {
	primary  orderdom.Repository
	fallback orderdom.Repository
	mailer   OrderMailer
	clock    common.Clock
	log      *zap.Logger
}

func NewCheckoutUsecase(primary, fallback orderdom.Repository, mailer OrderMailer, clock common.Clock, log *zap.Logger) *CheckoutUsecase {
	if clock == nil {
		clock = common.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutUsecase{
		primary:  primary,
		fallback: fallback,
		mailer:   mailer,
		clock:    clock,
		log:      log.Named("checkout_uc"),
	}
}

// Begin is the "proceed to checkout" gate: the cart must not be empty and
// the shopper must be signed in (otherwise the login prompt is requested).
func (u *CheckoutUsecase) Begin(sess *session.Session) error {
	if sess.Cart().TotalItemCount() == 0 {
		sess.Notify(session.NoticeInfo, "Your cart is empty!")
		return userError("Your cart is empty!", orderdom.ErrEmptyCart)
	}
	if _, ok := sess.RequireLogin(); !ok {
		sess.Notify(session.NoticeError, "Please log in to proceed with checkout")
		return userError("Please log in to proceed with checkout", ErrLoginRequired)
	}
	return nil
}

// PlaceOrder validates the form, stores the order and clears the cart.
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, sess *session.Session, form orderdom.Form) (orderdom.Order, error) {
	if err := u.Begin(sess); err != nil {
		return orderdom.Order{}, err
	}
	identity := sess.Identity()
	if identity == nil {
		return orderdom.Order{}, userError("Please log in to proceed with checkout", ErrLoginRequired)
	}

	o, err := orderdom.New(form, sess.Cart().Lines(), identity.UID, u.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, orderdom.ErrOnlinePaymentUnavailable):
			msg := "Online payment is under development. Please choose Cash on Delivery."
			sess.Notify(session.NoticeInfo, msg)
			return orderdom.Order{}, userError(msg, err)
		case errors.Is(err, orderdom.ErrEmptyCart):
			sess.Notify(session.NoticeInfo, "Your cart is empty!")
			return orderdom.Order{}, userError("Your cart is empty!", err)
		default:
			sess.Notify(session.NoticeError, MessageOf(err))
			return orderdom.Order{}, err
		}
	}

	id, err := u.save(ctx, o)
	if err != nil {
		msg := "Failed to place order. Please try again."
		if errors.Is(err, common.ErrOffline) {
			msg = "You appear to be offline. Please try again when online."
		}
		sess.Notify(session.NoticeError, msg)
		return orderdom.Order{}, userError(msg, err)
	}
	o.ID = id

	if err := sess.Cart().Clear(); err != nil {
		u.log.Warn("order placed but local cart not cleared", zap.String("orderId", id), zap.Error(err))
	}

	u.sendConfirmation(ctx, o)

	u.log.Info("order placed", zap.String("orderId", id), zap.String("uid", o.UserID), zap.Float64("total", o.Total))
	sess.Notify(session.NoticeSuccess, "Order placed successfully! Order ID: "+id)
	return o, nil
}

func (u *CheckoutUsecase) save(ctx context.Context, o orderdom.Order) (string, error) {
	if u.primary == nil {
		return "", ErrOrderStoreMissing
	}
	id, err := u.primary.Add(ctx, o)
	if err == nil {
		return id, nil
	}
	if u.fallback == nil {
		return "", err
	}

	u.log.Warn("order save failed; trying fallback collection", zap.Error(err))
	id, ferr := u.fallback.Add(ctx, o)
	if ferr != nil {
		return "", fmt.Errorf("checkout: save order: %w", errors.Join(err, ferr))
	}
	return id, nil
}

func (u *CheckoutUsecase) sendConfirmation(ctx context.Context, o orderdom.Order) {
	if u.mailer == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	if err := u.mailer.SendOrderConfirmation(mctx, o); err != nil {
		u.log.Warn("order confirmation mail failed", zap.String("orderId", o.ID), zap.Error(err))
	}
}
