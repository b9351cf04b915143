// internal/application/usecase/auth_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"brihaspati/internal/application/session"
	"brihaspati/internal/domain/auth"
	common "brihaspati/internal/domain/common"
)

// MinPasswordLength is enforced on sign-up before calling the provider.
const MinPasswordLength = 6

var ErrRedirectStateMismatch = errors.New("auth: redirect state mismatch")

// PopupResult is what the browser reports after the federated popup:
// either the id token, or the popup's error code.
type PopupResult struct {
	IDToken string    `json:"idToken"`
	Error   auth.Code `json:"popupError"`
}

// FederatedOutcome tells the caller what happened. Exactly one of Identity or
// RedirectURL is set on success; both are empty when the attempt was
// cancelled (benign, no message).
type FederatedOutcome struct {
	Identity    *auth.Identity `json:"identity,omitempty"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthUsecase runs the sign-in/sign-up/sign-out flows of one storefront
// session: input validation first, then the provider, then a toast.
type AuthUsecase struct {
	log *zap.Logger
}

func NewAuthUsecase(log *zap.Logger) *AuthUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthUsecase{log: log.Named("auth_uc")}
}

// SignIn signs in with email and password.
func (u *AuthUsecase) SignIn(ctx context.Context, sess *session.Session, email, password string) (*auth.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, u.reject(sess, common.NewValidationError("email", "Please enter both email and password"))
	}
	if !common.IsEmail(email) {
		return nil, u.reject(sess, common.NewValidationError("email", "Please enter a valid email address."))
	}

	id, err := sess.Provider().SignInWithCredentials(ctx, email, password)
	if err != nil {
		u.log.Info("sign-in failed", zap.String("code", string(auth.CodeOf(err))), zap.Error(err))
		return nil, u.reject(sess, userError(signInMessage(err), err))
	}

	sess.DismissLoginPrompt()
	sess.Notify(session.NoticeSuccess, "Welcome back, "+id.Email+"!")
	return id, nil
}

// SignUp creates an account and signs it in.
func (u *AuthUsecase) SignUp(ctx context.Context, sess *session.Session, in SignUpInput) (*auth.Identity, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, u.reject(sess, common.NewValidationError("email", "Please fill all fields"))
	}
	if in.Password != in.ConfirmPassword {
		return nil, u.reject(sess, common.NewValidationError("confirmPassword", "Passwords do not match"))
	}
	if !common.IsEmail(email) {
		return nil, u.reject(sess, common.NewValidationError("email", "Please enter a valid email address."))
	}
	if len([]rune(in.Password)) < MinPasswordLength {
		return nil, u.reject(sess, common.NewValidationError("password", "Password must be at least 6 characters long"))
	}

	id, err := sess.Provider().SignUp(ctx, email, in.Password)
	if err != nil {
		u.log.Info("sign-up failed", zap.String("code", string(auth.CodeOf(err))), zap.Error(err))
		return nil, u.reject(sess, userError(signUpMessage(err), err))
	}

	sess.DismissLoginPrompt()
	sess.Notify(session.NoticeSuccess, "Account created! Welcome, "+id.Email+"!")
	return id, nil
}

// SignInFederated finishes a popup attempt. A blocked popup falls back to the
// redirect flow exactly once; a cancelled popup is ignored. When the shopper
// ended up signed in anyway, no error is reported.
func (u *AuthUsecase) SignInFederated(ctx context.Context, sess *session.Session, res PopupResult) (FederatedOutcome, error) {
	if res.Error == auth.CodeCancelled {
		return FederatedOutcome{}, nil
	}

	var err error
	if res.Error != "" {
		err = auth.NewError(res.Error, "", nil)
	} else if strings.TrimSpace(res.IDToken) == "" {
		err = auth.NewError(auth.CodeNoAuthEvent, "missing id token", nil)
	} else {
		var id *auth.Identity
		id, err = sess.Provider().SignInWithFederated(ctx, auth.FederatedCredential{
			ProviderID: "google.com",
			IDToken:    strings.TrimSpace(res.IDToken),
		})
		if err == nil {
			sess.DismissLoginPrompt()
			sess.Notify(session.NoticeSuccess, "Welcome, "+displayName(id)+"!")
			return FederatedOutcome{Identity: id}, nil
		}
	}

	if id := sess.Provider().CurrentIdentity(); id != nil {
		return FederatedOutcome{Identity: id}, nil
	}

	if auth.HasCode(err, auth.CodePopupBlocked) {
		url, rerr := u.StartRedirect(sess)
		if rerr == nil {
			sess.Notify(session.NoticeInfo, federatedMessage(err))
			return FederatedOutcome{RedirectURL: url}, nil
		}
		u.log.Warn("redirect sign-in failed", zap.Error(rerr))
	}

	u.log.Info("federated sign-in failed", zap.String("code", string(auth.CodeOf(err))), zap.Error(err))
	return FederatedOutcome{}, u.reject(sess, userError(federatedMessage(err), err))
}

// StartRedirect returns the provider URL of the redirect flow. The state
// value expected on the callback lives on the session, so it goes away with
// it.
func (u *AuthUsecase) StartRedirect(sess *session.Session) (string, error) {
	state := uuid.NewString()
	url, err := sess.Provider().FederatedRedirectURL(state)
	if err != nil {
		return "", err
	}
	sess.ExpectRedirect(state)
	return url, nil
}

// CompleteRedirect finishes the redirect flow. A callback without a code
// (no pending redirect) is not an error.
func (u *AuthUsecase) CompleteRedirect(ctx context.Context, sess *session.Session, state, code string) (*auth.Identity, error) {
	want, ok := sess.TakeRedirectState()

	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	if !ok || want != state {
		u.log.Warn("redirect callback rejected", zap.String("session", sess.ID()))
		return nil, u.reject(sess, userError("Google sign-in failed. Please try again.", ErrRedirectStateMismatch))
	}

	id, err := sess.Provider().CompleteFederatedRedirect(ctx, code)
	if err != nil {
		if auth.HasCode(err, auth.CodeNoAuthEvent) {
			return nil, nil
		}
		u.log.Warn("google redirect error", zap.Error(err))
		return nil, u.reject(sess, userError("Google sign-in failed. Please try again.", err))
	}

	sess.DismissLoginPrompt()
	sess.Notify(session.NoticeSuccess, "Welcome, "+displayName(id)+"!")
	return id, nil
}

// SignOut delegates to the session, which also clears flags and cart.
func (u *AuthUsecase) SignOut(ctx context.Context, sess *session.Session) error {
	if err := sess.Logout(ctx); err != nil {
		return userError("Logout failed", err)
	}
	return nil
}

// SendPasswordReset asks the provider to mail a reset link.
func (u *AuthUsecase) SendPasswordReset(ctx context.Context, sess *session.Session, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return u.reject(sess, common.NewValidationError("email", "Please enter your email address"))
	}
	if err := sess.Provider().SendPasswordReset(ctx, email); err != nil {
		msg := "Password reset failed: " + rawMessage(err)
		if auth.HasCode(err, auth.CodeNetworkUnavailable) {
			msg = msgNetwork
		}
		return u.reject(sess, userError(msg, err))
	}
	sess.Notify(session.NoticeSuccess, "Password reset email sent! Check your inbox.")
	return nil
}

// reject posts err's message as an error toast and returns err.
func (u *AuthUsecase) reject(sess *session.Session, err error) error {
	sess.Notify(session.NoticeError, MessageOf(err))
	return err
}

func displayName(id *auth.Identity) string {
	if id == nil || strings.TrimSpace(id.DisplayName) == "" {
		return "user"
	}
	return id.DisplayName
}
