package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driving"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

// Ensure AuthFlowService implements the interface.
var _ driving.AuthFlowService = (*AuthFlowService)(nil)

const (
	// defaultCodeWait bounds how long StartDeviceFlow blocks for the
	// initial device code. Independent of the provider's own code
	// expiry window (commonly ~15 minutes).
	defaultCodeWait = 30 * time.Second

	// defaultCodeExpiry is reported to callers as the code validity
	// window. Providers do not expose it through the prompt sentence.
	defaultCodeExpiry = 15 * time.Minute
)

// Microsoft Graph and Google scopes requested during sign-in.
const (
	graphScopeCalendars = "https://graph.microsoft.com/Calendars.ReadWrite"
	graphScopeMail      = "https://graph.microsoft.com/Mail.ReadWrite"
	graphScopeMailSend  = "https://graph.microsoft.com/Mail.Send"
	graphScopeFilesRead = "https://graph.microsoft.com/Files.Read"

	googleScopeCalendar = "https://www.googleapis.com/auth/calendar"
	googleScopeGmail    = "https://www.googleapis.com/auth/gmail.modify"
)

// AuthFlowService drives authentication flows against external identity
// clients. Flow state lives in process memory only; flows are not meant
// to survive a restart.
type AuthFlowService struct {
	store    driven.AccountStore
	clients  map[domain.Provider]driven.IdentityClient
	codeWait time.Duration

	mu    sync.Mutex
	flows map[string]*flowEntry
}

// flowEntry pairs a flow with its cancellation handle and the
// rendezvous channels the starting caller waits on.
type flowEntry struct {
	flow     *domain.AuthFlow
	ctx      context.Context
	cancel   context.CancelFunc
	promptCh chan *domain.DeviceCodePrompt
	errCh    chan error
}

// NewAuthFlowService creates the orchestrator. clients maps each
// authenticating provider to its identity client; providers absent from
// the map cannot start flows.
func NewAuthFlowService(store driven.AccountStore, clients map[domain.Provider]driven.IdentityClient) *AuthFlowService {
	return &AuthFlowService{
		store:    store,
		clients:  clients,
		codeWait: defaultCodeWait,
		flows:    make(map[string]*flowEntry),
	}
}

// SetCodeWait overrides the bounded wait for the initial device code.
func (s *AuthFlowService) SetCodeWait(d time.Duration) {
	s.codeWait = d
}

// StartDeviceFlow begins a device-code flow for the account. Any active
// flow for the same account is cancelled and replaced first. The call
// blocks until the provider issues a code, bounded by the code wait.
func (s *AuthFlowService) StartDeviceFlow(ctx context.Context, accountID string) (*domain.DeviceCodePrompt, error) {
	account, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	client, ok := s.clients[account.Provider]
	if !ok {
		return nil, domain.ErrAuthNotSupported
	}

	scopes, err := s.scopesFor(ctx, account)
	if err != nil {
		return nil, err
	}

	entry := s.register(account.ID)
	go s.run(entry, client, account, scopes)

	select {
	case prompt := <-entry.promptCh:
		return prompt, nil
	case err := <-entry.errCh:
		return nil, err
	case <-time.After(s.codeWait):
		// The background flow keeps running; a late code remains
		// visible through Status.
		return nil, domain.ErrCodeTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status returns a snapshot of the account's current flow.
func (s *AuthFlowService) Status(accountID string) (*domain.AuthFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.flows[accountID]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	snapshot := *entry.flow
	return &snapshot, nil
}

// Cancel cancels the account's active flow. A flow already terminal
// has nothing left to cancel and reports false like a missing one.
// The cancellation is cooperative: an exchange already in flight may
// still complete and persist a credential.
func (s *AuthFlowService) Cancel(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.flows[accountID]
	if !ok || entry.flow.Status.Terminal() {
		return false
	}
	entry.cancel()
	s.finishLocked(entry, domain.FlowCancelled, "sign-in cancelled")
	return true
}

// LoginInteractive runs a blocking browser sign-in for the account.
func (s *AuthFlowService) LoginInteractive(ctx context.Context, accountID string) error {
	account, err := s.store.Get(ctx, accountID)
	if err != nil {
		return err
	}
	client, ok := s.clients[account.Provider]
	if !ok {
		return domain.ErrAuthNotSupported
	}
	scopes, err := s.scopesFor(ctx, account)
	if err != nil {
		return err
	}
	if err := client.AcquireInteractive(ctx, account, scopes); err != nil {
		return errors.New(scrubSecrets(account, err.Error()))
	}
	return nil
}

// register cancels and evicts any active flow for the account and
// installs a fresh pending one. One active flow per account.
func (s *AuthFlowService) register(accountID string) *flowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.flows[accountID]; ok {
		old.cancel()
		s.finishLocked(old, domain.FlowCancelled, "superseded by a newer sign-in attempt")
		// A caller still blocked waiting for the old flow's code hears
		// about the eviction immediately instead of running out the
		// code wait.
		select {
		case old.errCh <- domain.ErrFlowSuperseded:
		default:
		}
	}

	// Detached from the caller's request context: the flow outlives
	// the request that started it.
	ctx, cancel := context.WithCancel(context.Background())
	entry := &flowEntry{
		flow: &domain.AuthFlow{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Status:    domain.FlowPending,
			Message:   "waiting for the identity provider to issue a device code",
			StartedAt: time.Now(),
		},
		ctx:      ctx,
		cancel:   cancel,
		promptCh: make(chan *domain.DeviceCodePrompt, 1),
		errCh:    make(chan error, 1),
	}
	s.flows[accountID] = entry
	return entry
}

// run drives one device-code acquisition in the background. All flow
// mutations happen under the service lock; a flow already terminal
// (cancelled, superseded, parse-failed) is never overwritten.
func (s *AuthFlowService) run(entry *flowEntry, client driven.IdentityClient, account *domain.Account, scopes []string) {
	prompt := func(_ context.Context, message string) error {
		return s.deliverPrompt(entry, account, message)
	}

	err := client.AcquireByDeviceCode(entry.ctx, account, scopes, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.flow.Status.Terminal() {
		return
	}
	switch {
	case err == nil:
		s.finishLocked(entry, domain.FlowCompleted, "signed in")
		logger.Info("account %s authenticated", account.ID)
	case errors.Is(err, context.Canceled) || entry.ctx.Err() != nil:
		s.finishLocked(entry, domain.FlowCancelled, "sign-in cancelled")
	default:
		s.finishLocked(entry, domain.FlowFailed, scrubSecrets(account, err.Error()))
		logger.Warn("sign-in for %s failed: %s", account.ID, entry.flow.Message)
		select {
		case entry.errCh <- errors.New(entry.flow.Message):
		default:
		}
	}
}

// deliverPrompt parses the provider's free-text prompt and publishes
// the code to the waiting caller. A prompt that cannot be parsed fails
// the flow rather than proceeding with empty fields.
func (s *AuthFlowService) deliverPrompt(entry *flowEntry, account *domain.Account, message string) error {
	code, verificationURL, err := parseDevicePrompt(message)

	s.mu.Lock()
	if entry.flow.Status.Terminal() {
		s.mu.Unlock()
		return context.Canceled
	}
	if err != nil {
		s.finishLocked(entry, domain.FlowFailed, scrubSecrets(account, err.Error()))
		s.mu.Unlock()
		select {
		case entry.errCh <- err:
		default:
		}
		return err
	}
	entry.flow.Status = domain.FlowAwaitingUser
	entry.flow.UserCode = code
	entry.flow.VerificationURL = verificationURL
	entry.flow.Message = message
	s.mu.Unlock()

	select {
	case entry.promptCh <- &domain.DeviceCodePrompt{
		AccountID:       account.ID,
		UserCode:        code,
		VerificationURL: verificationURL,
		Message:         message,
		ExpiresIn:       defaultCodeExpiry,
	}:
	default:
	}
	return nil
}

// finishLocked moves a flow into a terminal state. Caller holds s.mu.
func (s *AuthFlowService) finishLocked(entry *flowEntry, status domain.FlowStatus, message string) {
	if entry.flow.Status.Terminal() {
		return
	}
	entry.flow.Status = status
	entry.flow.Message = message
	entry.flow.CompletedAt = time.Now()
}

// scopesFor assembles the scopes for an account's sign-in. Directory
// accounts that serve as auth delegates for OneDrive-hosted file
// accounts get a storage-read scope added, so the single credential
// also satisfies the delegates' needs.
func (s *AuthFlowService) scopesFor(ctx context.Context, account *domain.Account) ([]string, error) {
	var scopes []string
	switch account.Provider {
	case domain.ProviderMicrosoft365, domain.ProviderOutlook:
		scopes = []string{graphScopeCalendars, graphScopeMail, graphScopeMailSend}
	case domain.ProviderGoogle:
		scopes = []string{googleScopeCalendar, googleScopeGmail}
	default:
		return nil, domain.ErrAuthNotSupported
	}

	if account.Provider.IsDirectory() {
		all, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		for i := range all {
			if domain.AuthDelegate(&all[i]) == account.ID {
				scopes = append(scopes, graphScopeFilesRead)
				break
			}
		}
	}
	return scopes, nil
}

// scrubSecrets removes the account's secret config values from a
// message before it is stored or surfaced.
func scrubSecrets(account *domain.Account, message string) string {
	if secret := account.ConfigValue(domain.ConfigKeyClientSecret); secret != "" {
		message = strings.ReplaceAll(message, secret, "[redacted]")
	}
	return message
}
