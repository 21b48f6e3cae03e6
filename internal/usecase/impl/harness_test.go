package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rachel/config"
	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"
	"rachel/internal/domain/service"
	"rachel/internal/infra/persistence/memory"
	"rachel/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{AccessTokenTTL: 15 * time.Minute},
		Lockout: &config.LockoutConfig{
			Threshold:     5,
			Duration:      5 * time.Minute,
			FailureWindow: time.Hour,
		},
		Reset: &config.ResetConfig{
			MaxRequests: 3,
			TokenTTL:    30 * time.Minute,
			LinkBaseURL: "https://rachel.test/reset",
		},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// plainHasher keeps tests fast; bcrypt is covered in the infra package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Check(password, hash string) bool { return hash == "hashed:"+password }

func (plainHasher) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too short")
	}

	return nil
}

// countingHasher counts password comparisons.
type countingHasher struct {
	plainHasher
	checks atomic.Int32
}

func (h *countingHasher) Check(password, hash string) bool {
	h.checks.Add(1)

	return h.plainHasher.Check(password, hash)
}

type stubTokenService struct {
	clock *testClock
}

func (s stubTokenService) GenerateAccessToken(identityID uuid.UUID, _ []string) (string, time.Time, error) {
	return "token-" + identityID.String(), s.clock.Now().Add(15 * time.Minute), nil
}

func (s stubTokenService) ValidateToken(string) (*service.Claims, error) {
	return nil, domainerrors.ErrUnauthorized
}

type sentMessage struct {
	Subject    string
	Body       string
	Recipients []string
}

// recordingDispatcher records every message and then fails with err when it is set.
type recordingDispatcher struct {
	mu       sync.Mutex
	messages []sentMessage
	err      error
}

func (d *recordingDispatcher) Send(_ context.Context, subject, body string, recipients []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.messages = append(d.messages, sentMessage{Subject: subject, Body: body, Recipients: recipients})

	return d.err
}

func (d *recordingDispatcher) failWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.err = err
}

func (d *recordingDispatcher) withSubject(subject string) []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []sentMessage
	for _, m := range d.messages {
		if m.Subject == subject {
			out = append(out, m)
		}
	}

	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.AccountEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *service.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType service.AccountEventType) []*service.AccountEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*service.AccountEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}

	return out
}

// testEnv wires every account service to one in-memory store.
type testEnv struct {
	cfg        *config.Config
	clock      *testClock
	store      *memory.Store
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	activities repository.ActivityRepository
	inbox      repository.NotificationRepository
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
	notifier   *accountNotifier

	registration usecase.RegistrationUsecase
	lockout      usecase.LockoutUsecase
	reset        usecase.PasswordResetUsecase
	auth         usecase.AuthUsecase
	admin        usecase.AdminUsecase
	profile      usecase.ProfileUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := newTestConfig()
	clock := newTestClock()
	store := memory.NewStore()
	logger := newDiscardLogger()

	env := &testEnv{
		cfg:        cfg,
		clock:      clock,
		store:      store,
		identities: memory.NewIdentityRepository(store),
		profiles:   memory.NewProfileRepository(store),
		activities: memory.NewActivityRepository(store),
		inbox:      memory.NewNotificationRepository(store),
		dispatcher: &recordingDispatcher{},
		publisher:  &recordingPublisher{},
	}
	txManager := memory.NewTransactionManager(store)

	env.notifier = NewAccountNotifier(AccountNotifierParams{
		IdentityRepo:     env.identities,
		NotificationRepo: env.inbox,
		Dispatcher:       env.dispatcher,
		Publisher:        env.publisher,
		Clock:            clock.Now,
		Logger:           logger,
	})
	notifier := env.notifier
	validator := NewUniquenessValidator(UniquenessValidatorParams{
		IdentityRepo: env.identities,
		ProfileRepo:  env.profiles,
		Logger:       logger,
	})

	env.registration = NewRegistrationService(RegistrationServiceParams{
		TxManager: txManager,
		Validator: validator,
		Hasher:    plainHasher{},
		Notifier:  notifier,
		Clock:     clock.Now,
		Logger:    logger,
	})
	env.lockout = NewLockoutService(LockoutServiceParams{
		Ledger:   memory.NewAttemptLedger(),
		Store:    memory.NewLockoutStore(),
		Notifier: notifier,
		Config:   cfg,
		Clock:    clock.Now,
		Logger:   logger,
	})
	env.reset = NewPasswordResetService(PasswordResetServiceParams{
		TxManager:    txManager,
		IdentityRepo: env.identities,
		ResetRepo:    memory.NewResetRequestRepository(store),
		Hasher:       plainHasher{},
		Notifier:     notifier,
		Config:       cfg,
		Clock:        clock.Now,
		Logger:       logger,
	})
	env.auth = NewAuthService(AuthServiceParams{
		IdentityRepo: env.identities,
		ActivityRepo: env.activities,
		Hasher:       plainHasher{},
		TokenService: stubTokenService{clock: clock},
		Lockout:      env.lockout,
		Notifier:     notifier,
		Logger:       logger,
	})
	env.admin = NewAdminService(AdminServiceParams{
		TxManager:    txManager,
		IdentityRepo: env.identities,
		Lockout:      env.lockout,
		Reset:        env.reset,
		Notifier:     notifier,
		Logger:       logger,
	})
	env.profile = NewProfileService(ProfileServiceParams{
		TxManager:    txManager,
		IdentityRepo: env.identities,
		ProfileRepo:  env.profiles,
		Validator:    validator,
		Notifier:     notifier,
		Clock:        clock.Now,
		Logger:       logger,
	})

	return env
}

func civilianInput(username, phone, idNumber string) *usecase.RegistrationInput {
	return &usecase.RegistrationInput{
		Role:     entity.RoleCivilian,
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: "Secret123",
		Profile: entity.ProfileCommon{
			IdentificationNumber: idNumber,
			IDType:               entity.IDTypeIsraeliID,
			CountryOfIssue:       "IL",
			Languages:            []string{"he", "en"},
			Address:              "1 Herzl St",
			PhoneNumber:          phone,
			City:                 "Haifa",
			Country:              "IL",
			TermsAccepted:        true,
		},
		Civilian:      &entity.CivilianDetails{Gender: entity.GenderFemale, Intentions: []string{"shelter"}},
		SourceAddress: "10.0.0.1",
	}
}

func providerInput(username, phone, idNumber string) *usecase.RegistrationInput {
	input := civilianInput(username, phone, idNumber)
	input.Role = entity.RoleSupportProvider
	input.Civilian = nil
	input.Provider = &entity.SupportProviderDetails{Categories: []string{"housing", "food"}, Kosher: true}

	return input
}

func adminInput(username, phone, idNumber string) *usecase.RegistrationInput {
	input := civilianInput(username, phone, idNumber)
	input.Role = entity.RoleAdministrator
	input.Civilian = nil
	input.Administrator = &entity.AdministratorDetails{Department: entity.DepartmentIT}

	return input
}

// registerActive registers the input and activates the identity directly in storage.
func (env *testEnv) registerActive(t *testing.T, input *usecase.RegistrationInput) *entity.Identity {
	t.Helper()

	identity, err := env.registration.Register(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, env.identities.SetActive(context.Background(), identity.ID, true))
	identity.IsActive = true

	return identity
}
