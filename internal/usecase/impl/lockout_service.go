package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rachel/config"
	deliverycontext "rachel/internal/delivery/context"
	"rachel/internal/domain/entity"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// lockoutService implements the LockoutUsecase interface.
//
// Failures are counted per source address across every username, inside a window bounded by
// FailureWindow and by the end of the address's previous lockout. Reaching the threshold locks
// both the address and the username that tripped it. Logins are refused per username only.
type lockoutService struct {
	ledger    repository.AttemptLedger
	store     repository.LockoutStore
	notifier  *accountNotifier
	threshold int64
	duration  time.Duration
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// LockoutServiceParams holds dependencies for LockoutService, injected by Fx.
type LockoutServiceParams struct {
	fx.In

	Ledger   repository.AttemptLedger
	Store    repository.LockoutStore
	Notifier *accountNotifier
	Config   *config.Config
	Clock    func() time.Time         `optional:"true"`
	Logger   *slog.Logger
}

// NewLockoutService is the constructor for lockoutService.
func NewLockoutService(params LockoutServiceParams) usecase.LockoutUsecase {
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	return &lockoutService{
		ledger:    params.Ledger,
		store:     params.Store,
		notifier:  params.Notifier,
		threshold: int64(params.Config.Lockout.Threshold),
		duration:  params.Config.Lockout.Duration,
		window:    params.Config.Lockout.FailureWindow,
		now:       now,
		logger:    params.Logger,
	}
}

func (srv *lockoutService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *lockoutService) RecordAttempt(ctx context.Context, username, address string, succeeded bool) error {
	if succeeded {
		return srv.OnSuccess(ctx, username, address)
	}

	_, err := srv.OnFailure(ctx, username, address)

	return err
}

// IsLockedOut checks the value both as a username and as a source address.
func (srv *lockoutService) IsLockedOut(ctx context.Context, usernameOrAddress string) (bool, error) {
	value := strings.TrimSpace(usernameOrAddress)
	now := srv.now()

	for _, subject := range []entity.LockoutSubject{entity.UsernameSubject(value), entity.AddressSubject(value)} {
		locked, err := srv.isSubjectLocked(ctx, subject, now)
		if err != nil || locked {
			return locked, err
		}
	}

	return false, nil
}

// IsAttemptBlocked only looks at the username. An address lockout bounds counting and raises the
// alert, but it never refuses another username's login from the same address.
func (srv *lockoutService) IsAttemptBlocked(ctx context.Context, username, _ string) (bool, error) {
	return srv.isSubjectLocked(ctx, entity.UsernameSubject(username), srv.now())
}

func (srv *lockoutService) RecordBlocked(ctx context.Context, username, address string) error {
	return srv.appendAttempt(ctx, username, address, entity.AttemptLocked, srv.now())
}

// OnFailure appends the failure and locks the address and username once the address threshold is reached.
// The username alone is locked when its own failures across addresses reach the threshold, or when it
// fails from an address that is already locked. Failures for a locked username are never counted.
func (srv *lockoutService) OnFailure(ctx context.Context, username, address string) (*entity.LockoutDecision, error) {
	address = entity.NormalizeAddress(address)
	now := srv.now()

	addrState, err := srv.store.Get(ctx, entity.AddressSubject(address))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load address lockout")
	}
	userState, err := srv.store.Get(ctx, entity.UsernameSubject(username))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load username lockout")
	}

	if userState.IsLockedAt(now) {
		if err := srv.appendAttempt(ctx, username, address, entity.AttemptLocked, now); err != nil {
			return nil, err
		}

		return &entity.LockoutDecision{Locked: true, LockedUntil: latestLockout(addrState, userState)}, nil
	}

	if err := srv.appendAttempt(ctx, username, address, entity.AttemptFailure, now); err != nil {
		return nil, err
	}
	srv.notifier.metrics.LoginFailed()

	if addrState.IsLockedAt(now) {
		state, err := srv.lockUsername(ctx, username, addrState.LockedUntil, now)
		if err != nil {
			return nil, err
		}

		return &entity.LockoutDecision{Locked: true, LockedUntil: state.LockedUntil}, nil
	}

	count, err := srv.ledger.CountFailuresByAddress(ctx, address, windowStart(now, srv.window, addrState))
	if err != nil {
		return nil, errors.Wrap(err, "failed to count failures")
	}

	decision := &entity.LockoutDecision{FailureCount: count}
	if count < srv.threshold {
		return srv.onUsernameFailure(ctx, decision, username, now, userState)
	}

	lockedUntil := now.Add(srv.duration)
	state, fresh, err := srv.store.Extend(ctx, entity.AddressSubject(address), lockedUntil, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock address")
	}
	if _, err := srv.lockUsername(ctx, username, lockedUntil, now); err != nil {
		return nil, err
	}

	decision.Locked = true
	decision.LockedUntil = state.LockedUntil

	// Concurrent failures may all reach the threshold; only the one that started the lockout alerts.
	if fresh {
		decision.Alerted = true
		srv.alert(ctx, username, address, count, state.LockedUntil)
	}

	return decision, nil
}

// onUsernameFailure locks a username probed from many addresses. No alert is raised for it.
func (srv *lockoutService) onUsernameFailure(
	ctx context.Context,
	decision *entity.LockoutDecision,
	username string,
	now time.Time,
	userState *entity.LockoutState,
) (*entity.LockoutDecision, error) {
	count, err := srv.ledger.CountFailuresByUsername(ctx, username, windowStart(now, srv.window, userState))
	if err != nil {
		return nil, errors.Wrap(err, "failed to count username failures")
	}
	if count < srv.threshold {
		srv.log(ctx).Debug("Failed login recorded",
			slog.Int64("addressFailures", decision.FailureCount),
			slog.Int64("usernameFailures", count),
			slog.Int64("threshold", srv.threshold),
		)

		return decision, nil
	}

	state, err := srv.lockUsername(ctx, username, now.Add(srv.duration), now)
	if err != nil {
		return nil, err
	}
	srv.log(ctx).Warn("Username locked", slog.String("username", username), slog.Int64("failures", count))

	decision.Locked = true
	decision.LockedUntil = state.LockedUntil

	return decision, nil
}

func (srv *lockoutService) lockUsername(ctx context.Context, username string, lockedUntil, now time.Time) (*entity.LockoutState, error) {
	state, _, err := srv.store.Extend(ctx, entity.UsernameSubject(username), lockedUntil, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock username")
	}

	return state, nil
}

// windowStart is the later of the sliding window start and the end of the previous lockout.
func windowStart(now time.Time, window time.Duration, previous *entity.LockoutState) time.Time {
	since := now.Add(-window)
	if previous != nil && previous.LockedUntil.After(since) {
		since = previous.LockedUntil
	}

	return since
}

// OnSuccess records the success. Earlier failures stay in the ledger and keep counting.
func (srv *lockoutService) OnSuccess(ctx context.Context, username, address string) error {
	return srv.appendAttempt(ctx, username, address, entity.AttemptSuccess, srv.now())
}

// Clear lifts the lockout of the value, both as a username and as an address.
func (srv *lockoutService) Clear(ctx context.Context, usernameOrAddress string) error {
	value := strings.TrimSpace(usernameOrAddress)

	for _, subject := range []entity.LockoutSubject{entity.UsernameSubject(value), entity.AddressSubject(value)} {
		if err := srv.store.Clear(ctx, subject); err != nil {
			return errors.Wrapf(err, "failed to clear lockout for %s", subject)
		}
	}

	srv.log(ctx).Info("Lockout cleared", slog.String("subject", value))

	return nil
}

func (srv *lockoutService) isSubjectLocked(ctx context.Context, subject entity.LockoutSubject, now time.Time) (bool, error) {
	state, err := srv.store.Get(ctx, subject)
	if err != nil {
		return false, errors.Wrapf(err, "failed to load lockout for %s", subject)
	}

	return state.IsLockedAt(now), nil
}

func (srv *lockoutService) appendAttempt(
	ctx context.Context,
	username, address string,
	outcome entity.AttemptOutcome,
	at time.Time,
) error {
	entry := &entity.AttemptEntry{
		SourceAddress: entity.NormalizeAddress(address),
		Username:      strings.TrimSpace(username),
		Outcome:       outcome,
		OccurredAt:    at,
	}
	if err := srv.ledger.Append(ctx, entry); err != nil {
		return errors.Wrapf(err, "failed to append %s attempt", outcome)
	}

	return nil
}

func (srv *lockoutService) alert(ctx context.Context, username, address string, failures int64, lockedUntil time.Time) {
	srv.log(ctx).Warn("Lockout triggered",
		slog.String("address", address),
		slog.String("username", username),
		slog.Int64("failures", failures),
		slog.Time("lockedUntil", lockedUntil),
	)
	srv.notifier.metrics.LockoutTriggered()

	srv.notifier.notifyAdministrators(ctx,
		entity.NotificationAlert,
		"Suspicious login activity",
		fmt.Sprintf(
			"%d failed login attempts from %s, most recently for username '%s'. Logins are blocked until %s.",
			failures, address, username, lockedUntil.UTC().Format(time.RFC3339),
		),
		uuid.Nil,
	)
	srv.notifier.publish(ctx, service.AccountEventLockout, &entity.Identity{Username: username}, address)
}

func latestLockout(states ...*entity.LockoutState) time.Time {
	var latest time.Time
	for _, state := range states {
		if state != nil && state.LockedUntil.After(latest) {
			latest = state.LockedUntil
		}
	}

	return latest
}
