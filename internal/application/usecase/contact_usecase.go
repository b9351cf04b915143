// internal/application/usecase/contact_usecase.go
package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"brihaspati/internal/application/session"
	common "brihaspati/internal/domain/common"
	inquirydom "brihaspati/internal/domain/inquiry"
)

const (
	msgContactThanks = "Thank you for your message! We will get back to you soon."
	msgContactFailed = "Failed to send message. Please try again later or contact us directly."
	msgNoDatabase    = "Unable to connect to database. Please try again later."
)

var ErrContactStoreMissing = errors.New("contact: message repository is not configured")

// ContactMailer acknowledges a stored contact message (outbound port).
type ContactMailer interface {
	SendContactAcknowledgement(ctx context.Context, m inquirydom.ContactMessage) error
}

// ContactUsecase stores contact-form messages. Any failure against the
// primary collection is retried once against the fallback collection.
type ContactUsecase struct {
	primary  inquirydom.Repository
	fallback inquirydom.Repository
	mailer   ContactMailer
	clock    common.Clock
	log      *zap.Logger
}

func NewContactUsecase(primary, fallback inquirydom.Repository, mailer ContactMailer, clock common.Clock, log *zap.Logger) *ContactUsecase {
	if clock == nil {
		clock = common.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactUsecase{
		primary:  primary,
		fallback: fallback,
		mailer:   mailer,
		clock:    clock,
		log:      log.Named("contact_uc"),
	}
}

// Submit validates and stores the message. sess may be nil for callers
// without a storefront session.
func (u *ContactUsecase) Submit(ctx context.Context, sess *session.Session, form inquirydom.Form) (inquirydom.ContactMessage, error) {
	userID := ""
	if sess != nil {
		if id := sess.Identity(); id != nil {
			userID = id.UID
		}
	}

	m, err := inquirydom.New(form, userID, u.clock.Now())
	if err != nil {
		notify(sess, session.NoticeError, MessageOf(err))
		return inquirydom.ContactMessage{}, err
	}

	if u.primary == nil {
		notify(sess, session.NoticeError, msgNoDatabase)
		return inquirydom.ContactMessage{}, userError(msgNoDatabase, ErrContactStoreMissing)
	}

	id, err := u.primary.Add(ctx, m)
	if err != nil && u.fallback != nil {
		u.log.Warn("contact message save failed; trying fallback collection", zap.Error(err))
		var ferr error
		id, ferr = u.fallback.Add(ctx, m)
		if ferr != nil {
			err = errors.Join(err, ferr)
		} else {
			err = nil
		}
	}
	if err != nil {
		u.log.Error("contact message save failed", zap.Error(err))
		notify(sess, session.NoticeError, msgContactFailed)
		return inquirydom.ContactMessage{}, userError(msgContactFailed, err)
	}
	m.ID = id

	if u.mailer != nil {
		if merr := u.mailer.SendContactAcknowledgement(context.WithoutCancel(ctx), m); merr != nil {
			u.log.Warn("contact acknowledgement mail failed", zap.String("messageId", id), zap.Error(merr))
		}
	}

	notify(sess, session.NoticeSuccess, msgContactThanks)
	return m, nil
}

func notify(sess *session.Session, kind session.NoticeKind, msg string) {
	if sess != nil {
		sess.Notify(kind, msg)
	}
}
