package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rachel/config"
	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/usecase"
	"rachel/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const resetTokenBytes = 32

// passwordResetService implements the PasswordResetUsecase interface.
type passwordResetService struct {
	txManager       repository.TransactionManager
	identityRepo    repository.IdentityRepository
	resetRepo       repository.ResetRequestRepository
	hasher          service.PasswordHasher
	notifier        *accountNotifier
	maxRequests     int
	tokenTTL        time.Duration
	linkBaseURL     string
	resetOnComplete bool
	now             func() time.Time
	logger          *slog.Logger
}

// PasswordResetServiceParams holds dependencies for PasswordResetService, injected by Fx.
type PasswordResetServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	ResetRepo    repository.ResetRequestRepository
	Hasher       service.PasswordHasher
	Notifier     *accountNotifier
	Config       *config.Config
	Clock        func() time.Time `optional:"true"`
	Logger       *slog.Logger
}

// NewPasswordResetService is the constructor for passwordResetService.
func NewPasswordResetService(params PasswordResetServiceParams) usecase.PasswordResetUsecase {
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	return &passwordResetService{
		txManager:       params.TxManager,
		identityRepo:    params.IdentityRepo,
		resetRepo:       params.ResetRepo,
		hasher:          params.Hasher,
		notifier:        params.Notifier,
		maxRequests:     params.Config.Reset.MaxRequests,
		tokenTTL:        params.Config.Reset.TokenTTL,
		linkBaseURL:     params.Config.Reset.LinkBaseURL,
		resetOnComplete: params.Config.Reset.ResetCounterOnCompletion,
		now:             now,
		logger:          params.Logger,
	}
}

func (srv *passwordResetService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CanRequest reports whether the identity still has reset requests left.
func (srv *passwordResetService) CanRequest(ctx context.Context, identityID uuid.UUID) (bool, error) {
	record, err := srv.resetRepo.FindByIdentityID(ctx, identityID)
	if errors.Is(err, repository.ErrResetRequestNotFound) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to load reset request")
	}

	return record.CanRequest(srv.maxRequests), nil
}

// RequestReset issues a fresh token, replacing any earlier one, and emails the reset link.
// The counter check and increment happen in one conditional write, so concurrent requests
// can never push the counter past the quota.
func (srv *passwordResetService) RequestReset(ctx context.Context, identityID uuid.UUID, address string) (string, error) {
	identity, err := srv.identityRepo.FindByID(ctx, identityID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return "", errors.WithStack(domainerrors.ErrIdentityNotFound)
	}
	if err != nil {
		return "", internalError(ctx, srv.log(ctx), "Failed to load identity for reset", err)
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		return "", internalError(ctx, srv.log(ctx), "Failed to generate reset token", err)
	}

	now := srv.now()
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.ResetRequestRepo().Issue(ctx, repository.IssueResetParams{
			IdentityID:  identityID,
			TokenHash:   tokenHash,
			IssuedAt:    now,
			ExpiresAt:   now.Add(srv.tokenTTL),
			MaxRequests: srv.maxRequests,
		}); err != nil {
			return err
		}

		activity := entity.NewActivity(identityID, entity.ActivityPasswordResetRequest, address, "Password reset requested")
		if err := repoFactory.ActivityRepo().Create(ctx, activity); err != nil {
			return errors.Wrap(err, "failed to record reset request")
		}

		return nil
	})
	if errors.Is(err, repository.ErrResetQuotaReached) {
		srv.log(ctx).Info("Password reset refused: quota reached", slog.String("identityID", identityID.String()))
		srv.notifier.metrics.ResetRequested("quota_exhausted")

		return "", errors.WithStack(domainerrors.ErrResetQuotaExhausted)
	}
	if err != nil {
		return "", translateWriteError(srv.log(ctx), "request_reset", err)
	}

	srv.notifier.metrics.ResetRequested("issued")
	srv.log(ctx).Info("Password reset issued", slog.String("identityID", identityID.String()))

	srv.notifier.emailIdentity(ctx, identity,
		"Password Reset Request",
		fmt.Sprintf(
			"Hello %s,\n\nUse the link below to reset your password. It expires in %s.\n\n%s\n\n"+
				"If you didn't request this, you can ignore this email.",
			identity.Username, util.HumanizeDuration(srv.tokenTTL), srv.resetLink(identity, token),
		),
	)

	return token, nil
}

// RequestResetByEmail does not reveal whether the email belongs to an account.
func (srv *passwordResetService) RequestResetByEmail(ctx context.Context, email, address string) error {
	identity, err := srv.identityRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrIdentityNotFound) {
		srv.log(ctx).Info("Password reset requested for unknown email")

		return nil
	}
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to look up identity by email", err)
	}

	_, err = srv.RequestReset(ctx, identity.ID, address)

	return err
}

// CompleteReset consumes the token and stores the new password in one transaction.
func (srv *passwordResetService) CompleteReset(ctx context.Context, identityID uuid.UUID, token, newPassword, address string) error {
	record, err := srv.resetRepo.FindByIdentityID(ctx, identityID)
	if errors.Is(err, repository.ErrResetRequestNotFound) {
		return srv.rejectToken(ctx, identityID, "no reset requested")
	}
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to load reset request", err)
	}

	tokenHash := hashResetToken(token)
	if !record.IsTokenUsable(srv.now()) {
		return srv.rejectToken(ctx, identityID, "token used or expired")
	}
	if subtle.ConstantTimeCompare([]byte(tokenHash), []byte(record.TokenHash)) != 1 {
		return srv.rejectToken(ctx, identityID, "token mismatch")
	}

	if err := srv.hasher.ValidatePasswordStrength(newPassword); err != nil {
		return domainerrors.NewValidationError(entity.FieldErrors{"password": passwordReason(err)})
	}
	hash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to hash password", err)
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		resetRepo := repoFactory.ResetRequestRepo()
		if err := resetRepo.ConsumeToken(ctx, identityID, tokenHash); err != nil {
			return err
		}
		if err := repoFactory.IdentityRepo().UpdatePassword(ctx, identityID, hash); err != nil {
			return errors.Wrap(err, "failed to update password")
		}
		if srv.resetOnComplete {
			if err := resetRepo.ResetCounter(ctx, identityID); err != nil {
				return errors.Wrap(err, "failed to reset request counter")
			}
		}

		activity := entity.NewActivity(identityID, entity.ActivityPasswordResetCompleted, address, "Password reset completed")
		if err := repoFactory.ActivityRepo().Create(ctx, activity); err != nil {
			return errors.Wrap(err, "failed to record reset completion")
		}

		return nil
	})
	if errors.Is(err, repository.ErrResetTokenConsumed) {
		return srv.rejectToken(ctx, identityID, "token consumed concurrently")
	}
	if err != nil {
		srv.notifier.metrics.ResetCompleted("error")

		return translateWriteError(srv.log(ctx), "complete_reset", err)
	}

	srv.notifier.metrics.ResetCompleted("success")
	srv.log(ctx).Info("Password reset completed", slog.String("identityID", identityID.String()))

	identity, err := srv.identityRepo.FindByID(ctx, identityID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load identity for reset confirmation", slog.Any("error", err))

		return nil
	}
	srv.notifier.emailIdentity(ctx, identity,
		"Your password was changed",
		fmt.Sprintf("Hello %s,\n\nYour password was changed. If this wasn't you, contact support immediately.", identity.Username),
	)
	srv.notifier.publish(ctx, service.AccountEventResetComplete, identity, address)

	return nil
}

// OverrideQuota clears the counter. An identity that never requested a reset has nothing to clear.
func (srv *passwordResetService) OverrideQuota(ctx context.Context, identityID uuid.UUID) error {
	err := srv.resetRepo.ResetCounter(ctx, identityID)
	if errors.Is(err, repository.ErrResetRequestNotFound) {
		return nil
	}
	if err != nil {
		return internalError(ctx, srv.log(ctx), "Failed to reset request counter", err)
	}

	srv.log(ctx).Info("Password reset quota cleared", slog.String("identityID", identityID.String()))

	return nil
}

func (srv *passwordResetService) rejectToken(ctx context.Context, identityID uuid.UUID, reason string) error {
	srv.log(ctx).Info("Password reset token rejected", slog.String("identityID", identityID.String()), slog.String("reason", reason))
	srv.notifier.metrics.ResetCompleted("invalid_token")

	return errors.WithStack(domainerrors.ErrResetTokenInvalid)
}

func (srv *passwordResetService) resetLink(identity *entity.Identity, token string) string {
	return fmt.Sprintf("%s/%s/%s", srv.linkBaseURL, identity.ExternalRef(), token)
}

// newResetToken returns a URL-safe random token and the hash that is stored in its place.
func newResetToken() (token, tokenHash string, err error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "read random bytes")
	}
	token = base64.RawURLEncoding.EncodeToString(raw)

	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
