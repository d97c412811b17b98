package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/linkflow"
	"finance-tracker/internal/models"
	"finance-tracker/internal/provider"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("no link session for user")
	ErrSessionClosed   = errors.New("link session was closed")
	ErrLinkNotSaved    = errors.New("linked account could not be saved")
)

// userSession binds a controller to the user it links accounts for. Fields below mu are
// written from controller callbacks, which may run on the simulated-flow timer goroutine.
type userSession struct {
	id     string
	userID uuid.UUID
	ctrl   *linkflow.Controller
	// ctx outlives the request that started the session so timer callbacks keep its values
	ctx       context.Context
	startedAt time.Time

	// starting is closed once Start has returned; nil for sessions created on completion
	starting chan struct{}

	mu          sync.Mutex
	branch      linkflow.StartResult
	lastSeen    time.Time
	lastAccount *models.LinkedAccount
	lastErr     error
	lastExit    *linkflow.ExitError
}

func (us *userSession) touch(at time.Time) {
	us.mu.Lock()
	us.lastSeen = at
	us.mu.Unlock()
}

func (us *userSession) isStarting() bool {
	if us.starting == nil {
		return false
	}
	select {
	case <-us.starting:
		return false
	default:
		return true
	}
}

func (us *userSession) waitStarted(ctx context.Context) {
	if us.starting == nil {
		return
	}
	select {
	case <-us.starting:
	case <-ctx.Done():
	}
}

func (us *userSession) status(result linkflow.StartResult) *dto.LinkSessionResponse {
	st := &dto.LinkSessionResponse{
		SessionID: us.id,
		Result:    result,
		State:     us.ctrl.State(),
		Simulated: us.ctrl.Simulated(),
		View:      us.ctrl.View(),
		StartedAt: us.startedAt,
	}
	if session, ok := us.ctrl.Session(); ok {
		st.LinkToken = session.Token
	}

	us.mu.Lock()
	st.LastAccount = us.lastAccount
	st.LastExit = us.lastExit
	us.mu.Unlock()

	return st
}

// LinkService keeps one link controller per user and persists what the controllers produce
type LinkService struct {
	gateway      ProviderGatewayInterface
	accountRepo  repositories.LinkedAccountRepositoryInterface
	itemRepo     repositories.ItemRepositoryInterface
	eventRepo    repositories.LinkEventRepositoryInterface
	auditService AuditServiceInterface
	notifier     linkflow.Notifier
	metrics      MetricsRecorderInterface
	linkLogger   LinkLoggerInterface
	cfg          config.LinkConfig
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*userSession

	janitorOnce sync.Once
	stopJanitor context.CancelFunc
	janitorDone chan struct{}
}

func NewLinkService(
	gateway ProviderGatewayInterface,
	accountRepo repositories.LinkedAccountRepositoryInterface,
	itemRepo repositories.ItemRepositoryInterface,
	eventRepo repositories.LinkEventRepositoryInterface,
	auditService AuditServiceInterface,
	notifier linkflow.Notifier,
	metrics MetricsRecorderInterface,
	linkLogger LinkLoggerInterface,
	cfg config.LinkConfig,
	logger *slog.Logger,
) LinkServiceInterface {
	return newLinkService(gateway, accountRepo, itemRepo, eventRepo, auditService, notifier, metrics, linkLogger, cfg, logger)
}

func newLinkService(
	gateway ProviderGatewayInterface,
	accountRepo repositories.LinkedAccountRepositoryInterface,
	itemRepo repositories.ItemRepositoryInterface,
	eventRepo repositories.LinkEventRepositoryInterface,
	auditService AuditServiceInterface,
	notifier linkflow.Notifier,
	metrics MetricsRecorderInterface,
	linkLogger LinkLoggerInterface,
	cfg config.LinkConfig,
	logger *slog.Logger,
) *LinkService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if linkLogger == nil {
		linkLogger = NewLinkLogger(logger)
	}
	if cfg.DemoDelay <= 0 {
		cfg.DemoDelay = linkflow.DefaultDemoDelay
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = 30 * time.Minute
	}
	return &LinkService{
		gateway:      gateway,
		accountRepo:  accountRepo,
		itemRepo:     itemRepo,
		eventRepo:    eventRepo,
		auditService: auditService,
		notifier:     notifier,
		metrics:      metrics,
		linkLogger:   linkLogger,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		sessions:     make(map[uuid.UUID]*userSession),
	}
}

// CreateLinkToken asks the provider for a widget token. Without credentials the sandbox
// placeholder is returned and the response is marked simulated.
func (s *LinkService) CreateLinkToken(ctx context.Context, userID uuid.UUID) (*dto.LinkTokenResponse, error) {
	token, err := s.gateway.CreateLinkToken(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create link token: %w", err)
	}
	return &dto.LinkTokenResponse{
		LinkToken:  token.Token,
		Expiration: token.Expiration,
		RequestID:  token.RequestID,
		Simulated:  !s.gateway.Configured(),
	}, nil
}

// StartSession starts a link attempt for the user. While an attempt is pending the call is
// ignored and the current status is returned. An idle controller is replaced so the new
// token and variant take effect.
func (s *LinkService) StartSession(ctx context.Context, userID uuid.UUID, req *dto.StartSessionRequest) (*dto.LinkSessionResponse, error) {
	if req == nil {
		req = &dto.StartSessionRequest{}
	}

	variant := linkflow.Variant(s.cfg.DefaultVariant)
	if req.Variant != "" {
		v, err := linkflow.ParseVariant(req.Variant)
		if err != nil {
			return nil, err
		}
		variant = v
	}

	s.mu.Lock()
	var replaced *userSession
	if existing, ok := s.sessions[userID]; ok {
		if existing.isStarting() {
			s.mu.Unlock()
			existing.waitStarted(ctx)
			existing.touch(s.now())
			return existing.status(linkflow.StartIgnored), nil
		}
		if existing.ctrl.State() == linkflow.StatePending {
			s.mu.Unlock()
			existing.touch(s.now())
			return existing.status(linkflow.StartIgnored), nil
		}
		replaced = existing
	}

	sess := s.newSession(ctx, userID,
		linkflow.WithLinkToken(req.LinkToken),
		linkflow.WithVariant(variant),
		linkflow.WithLoading(req.Loading),
	)
	sess.starting = make(chan struct{})
	s.sessions[userID] = sess
	s.recordActiveSessions()
	s.mu.Unlock()

	if replaced != nil {
		replaced.ctrl.Close()
		s.linkLogger.LogSessionClosed(ctx, userID, replaced.id, "replaced")
	}

	result := sess.ctrl.Start(sess.ctx)
	sess.mu.Lock()
	sess.branch = result
	sess.mu.Unlock()
	close(sess.starting)

	s.linkLogger.LogSessionStarted(ctx, userID, sess.id, result)
	s.metrics.IncrementCounter(MetricLinkSessionStarted, map[string]string{"branch": string(result)})
	s.audit(userID, models.AuditActionLinkStarted, sess.id, map[string]interface{}{"branch": string(result)})
	if result == linkflow.StartSimulated {
		s.recordEvent(sess, models.LinkEventSimulated, models.LinkEventStatusStarted, linkflow.Metadata{}, nil)
	}

	return sess.status(result), nil
}

// GetSession returns the user's session status or nil when none exists
func (s *LinkService) GetSession(userID uuid.UUID) *dto.LinkSessionResponse {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.status("")
}

// CompleteSession reports a provider success. A controller is created on demand so a success
// that arrives after a restart is still recorded.
func (s *LinkService) CompleteSession(ctx context.Context, userID uuid.UUID, publicToken string, md linkflow.Metadata) (*models.LinkedAccount, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = s.newSession(ctx, userID)
		s.sessions[userID] = sess
		s.recordActiveSessions()
	}
	s.mu.Unlock()

	sess.touch(s.now())
	record, ok := sess.ctrl.OnSuccess(publicToken, md)
	if !ok {
		return nil, ErrSessionClosed
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.lastAccount != nil && sess.lastAccount.RecordID == record.ID {
		return sess.lastAccount, nil
	}
	if sess.lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLinkNotSaved, sess.lastErr)
	}
	return nil, ErrLinkNotSaved
}

// CancelSession reports a provider exit. exitErr may be nil. An exit with no pending attempt
// leaves no event, audit row or metric and returns the current status.
func (s *LinkService) CancelSession(ctx context.Context, userID uuid.UUID, exitErr *linkflow.ExitError, md linkflow.Metadata) (*dto.LinkSessionResponse, error) {
	sess, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}
	sess.ctrl.OnExit(exitErr, md)
	return sess.status(""), nil
}

// RecordEvent forwards an intermediate widget event to the user's controller
func (s *LinkService) RecordEvent(ctx context.Context, userID uuid.UUID, eventName string, md linkflow.Metadata) error {
	sess, err := s.lookup(userID)
	if err != nil {
		return err
	}
	sess.ctrl.OnEvent(eventName, md)
	return nil
}

// CloseSession tears the user's controller down. A pending simulated completion never fires.
func (s *LinkService) CloseSession(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
		s.recordActiveSessions()
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.ctrl.Close()
	s.linkLogger.LogSessionClosed(ctx, userID, sess.id, "user")
	return nil
}

func (s *LinkService) ListEvents(userID uuid.UUID, offset, limit int) ([]models.LinkEvent, int64, error) {
	events, total, err := s.eventRepo.ListByUserID(userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list link events: %w", err)
	}
	return events, total, nil
}

// ListSessionEvents returns one widget session's events in the order they happened
func (s *LinkService) ListSessionEvents(userID uuid.UUID, linkSessionID string) ([]models.LinkEvent, error) {
	events, err := s.eventRepo.ListBySessionID(userID, linkSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list link session events: %w", err)
	}
	return events, nil
}

// StartJanitor closes sessions that have not been touched for SessionIdleTTL. It runs until
// ctx is cancelled or Shutdown is called.
func (s *LinkService) StartJanitor(ctx context.Context, interval time.Duration) {
	s.janitorOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.stopJanitor = cancel
		s.janitorDone = make(chan struct{})
		done := s.janitorDone
		s.mu.Unlock()

		go func() {
			defer close(done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := s.sweepIdle(ctx); n > 0 {
						s.logger.Info("closed idle link sessions", "count", n)
					}
				}
			}
		}()
	})
}

func (s *LinkService) sweepIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.SessionIdleTTL)

	s.mu.Lock()
	var expired []*userSession
	for userID, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(s.sessions, userID)
		}
	}
	if len(expired) > 0 {
		s.recordActiveSessions()
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.ctrl.Close()
		s.linkLogger.LogSessionClosed(ctx, sess.userID, sess.id, "idle")
	}
	return len(expired)
}

// Shutdown stops the janitor and closes every controller
func (s *LinkService) Shutdown() {
	s.mu.Lock()
	stop, done := s.stopJanitor, s.janitorDone
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*userSession)
	s.recordActiveSessions()
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	for _, sess := range sessions {
		sess.ctrl.Close()
	}
}

func (s *LinkService) lookup(userID uuid.UUID) (*userSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// recordActiveSessions must be called with s.mu held
func (s *LinkService) recordActiveSessions() {
	s.metrics.RecordGauge(MetricActiveLinkSessions, float64(len(s.sessions)), nil)
}

func (s *LinkService) newSession(ctx context.Context, userID uuid.UUID, opts ...linkflow.Option) *userSession {
	now := s.now()
	sess := &userSession{
		id:        uuid.NewString(),
		userID:    userID,
		ctx:       context.WithoutCancel(ctx),
		startedAt: now,
		lastSeen:  now,
	}

	widget := &widgetProvider{svc: s, sess: sess}
	cb := linkflow.Callbacks{
		OnSuccess: func(publicToken string, md linkflow.Metadata, record linkflow.LinkedAccountRecord) {
			s.handleSuccess(sess, publicToken, md, record)
		},
		OnExit: func(exitErr *linkflow.ExitError, md linkflow.Metadata) {
			s.handleExit(sess, exitErr, md)
		},
		OnEvent: func(name string, md linkflow.Metadata) {
			s.recordEvent(sess, name, models.LinkEventStatusInfo, md, nil)
			s.linkLogger.LogProviderEvent(sess.ctx, userID, sess.id, name)
		},
	}

	base := []linkflow.Option{
		linkflow.WithDemoDelay(s.cfg.DemoDelay),
		linkflow.WithClock(s.now),
		linkflow.WithLogger(s.logger.With("user_id", userID.String(), "session_id", sess.id)),
	}
	sess.ctrl = linkflow.New(widget, cb, append(base, opts...)...)
	return sess
}

// handleSuccess persists the record a controller produced. A real public token is exchanged
// first; an exchange failure is logged and the record is still saved.
func (s *LinkService) handleSuccess(sess *userSession, publicToken string, md linkflow.Metadata, record linkflow.LinkedAccountRecord) {
	ctx := sess.ctx
	branch := linkflow.StartProvider
	if publicToken == linkflow.DemoPublicToken {
		branch = linkflow.StartSimulated
	}

	account := &models.LinkedAccount{
		RecordID:      record.ID,
		UserID:        sess.userID,
		Name:          record.Name,
		Type:          record.Type,
		Institution:   record.Institution,
		Balance:       record.Balance,
		AccountNumber: record.AccountNumber,
		Connected:     record.Connected,
		LastUpdated:   s.now(),
	}
	if primary, ok := md.PrimaryAccount(); ok {
		account.ProviderAccountID = primary.ID
	}

	if branch == linkflow.StartProvider && s.gateway.Configured() {
		item, err := s.exchange(ctx, sess, publicToken, md)
		if err != nil {
			s.metrics.IncrementCounter(MetricLinkExchange, map[string]string{"status": "failed"})
			s.linkLogger.LogExchangeFailed(ctx, sess.userID, sess.id, err.Error())
			s.recordEvent(sess, models.LinkEventExchange, models.LinkEventStatusFailed, md, &linkflow.ExitError{
				Code:    "EXCHANGE_FAILED",
				Message: err.Error(),
			})
		} else {
			s.metrics.IncrementCounter(MetricLinkExchange, map[string]string{"status": "success"})
			account.ItemID = &item.ID
			s.enrichFromProvider(ctx, item, account)
		}
	}

	if err := s.accountRepo.Create(account); err != nil {
		s.logger.ErrorContext(ctx, "failed to save linked account",
			"error", err,
			"user_id", sess.userID,
			"record_id", record.ID)
		sess.mu.Lock()
		sess.lastErr = err
		sess.mu.Unlock()
		s.recordEvent(sess, models.LinkEventSuccess, models.LinkEventStatusFailed, md, &linkflow.ExitError{
			Code:    "SAVE_FAILED",
			Message: err.Error(),
		})
		return
	}

	now := s.now()
	sess.mu.Lock()
	sess.lastAccount = account
	sess.lastErr = nil
	sess.lastExit = nil
	sess.lastSeen = now
	sess.mu.Unlock()

	duration := now.Sub(sess.startedAt)
	s.recordEvent(sess, models.LinkEventSuccess, models.LinkEventStatusSucceeded, md, nil)
	s.audit(sess.userID, models.AuditActionLinkCompleted, account.RecordID, map[string]interface{}{
		"institution": account.Institution,
		"branch":      string(branch),
	})
	s.metrics.IncrementCounter(MetricLinkOutcome, map[string]string{
		"outcome": string(linkflow.OutcomeSuccess),
		"branch":  string(branch),
	})
	s.metrics.RecordProcessingTime(MetricLinkDuration, duration)
	s.linkLogger.LogSessionCompleted(ctx, sess.userID, sess.id, account.RecordID, account.Institution, duration.Milliseconds())

	linkflow.SafeNotify(ctx, s.logger, s.notifier,
		"Account connected",
		fmt.Sprintf("Successfully connected your %s account.", account.Institution))
}

func (s *LinkService) exchange(ctx context.Context, sess *userSession, publicToken string, md linkflow.Metadata) (*models.Item, error) {
	exchange, err := s.gateway.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	item, err := s.itemRepo.GetByProviderItemID(exchange.ItemID)
	switch {
	case err == nil:
		// relinking an existing item rotates its access token
		item.AccessToken = exchange.AccessToken
		if applyErr := item.ApplyStatus(models.ItemStatusActive, "", "", s.now()); applyErr != nil {
			return nil, applyErr
		}
		if err := s.itemRepo.Update(item); err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
	case errors.Is(err, repositories.ErrItemNotFound):
		item = &models.Item{
			UserID:          sess.userID,
			ProviderItemID:  exchange.ItemID,
			AccessToken:     exchange.AccessToken,
			InstitutionID:   md.InstitutionID(),
			InstitutionName: md.InstitutionName(),
			Status:          models.ItemStatusActive,
		}
		if err := s.itemRepo.Create(item); err != nil {
			return nil, fmt.Errorf("failed to store item: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}

	s.recordEvent(sess, models.LinkEventExchange, models.LinkEventStatusSucceeded, md, nil)
	return item, nil
}

// enrichFromProvider copies type, balance and mask of the matching provider account.
// A read failure leaves the record values in place.
func (s *LinkService) enrichFromProvider(ctx context.Context, item *models.Item, account *models.LinkedAccount) {
	result, err := s.gateway.GetAccounts(ctx, item.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read accounts after exchange",
			"error", err,
			"item_id", item.ID)
		return
	}

	match, ok := matchProviderAccount(result.Accounts, account.ProviderAccountID)
	if !ok {
		return
	}
	account.ProviderAccountID = match.ID
	account.Type = provider.LedgerType(match.Type, match.Subtype)
	account.Balance = match.CurrentBalance
	if match.Currency != "" {
		account.Currency = match.Currency
	}
	if match.Mask != "" {
		account.AccountNumber = "****" + match.Mask
	}
	if match.Name != "" {
		account.Name = fmt.Sprintf("%s %s", account.Institution, match.Name)
	}
}

func matchProviderAccount(accounts []provider.Account, id string) (provider.Account, bool) {
	for _, a := range accounts {
		if id != "" && a.ID == id {
			return a, true
		}
	}
	if len(accounts) > 0 {
		return accounts[0], true
	}
	return provider.Account{}, false
}

func (s *LinkService) handleExit(sess *userSession, exitErr *linkflow.ExitError, md linkflow.Metadata) {
	ctx := sess.ctx

	sess.mu.Lock()
	sess.lastExit = exitErr
	sess.lastSeen = s.now()
	branch := sess.branch
	sess.mu.Unlock()

	if branch == "" {
		branch = linkflow.StartProvider
	}
	errorCode := ""
	if exitErr != nil {
		errorCode = exitErr.Code
	}

	s.recordEvent(sess, models.LinkEventExit, models.LinkEventStatusCancelled, md, exitErr)
	s.audit(sess.userID, models.AuditActionLinkCancelled, sess.id, map[string]interface{}{
		"error_code":  errorCode,
		"institution": md.InstitutionName(),
	})
	s.metrics.IncrementCounter(MetricLinkOutcome, map[string]string{
		"outcome": string(linkflow.OutcomeCancelled),
		"branch":  string(branch),
	})
	s.linkLogger.LogSessionExited(ctx, sess.userID, sess.id, errorCode)
}

func (s *LinkService) recordEvent(sess *userSession, name, status string, md linkflow.Metadata, exitErr *linkflow.ExitError) {
	event := &models.LinkEvent{
		UserID:        sess.userID,
		EventName:     name,
		Status:        status,
		LinkSessionID: sess.id,
		RequestID:     md.RequestID,
		InstitutionID: md.InstitutionID(),
	}
	if md.LinkSessionID != "" {
		event.LinkSessionID = md.LinkSessionID
	}
	if md.Institution != nil {
		event.InstitutionName = md.Institution.Name
	}
	if exitErr != nil {
		event.ErrorCode = exitErr.Code
		event.ErrorMessage = exitErr.Message
	}

	if err := s.eventRepo.Create(event); err != nil {
		s.logger.ErrorContext(sess.ctx, "failed to record link event",
			"error", err,
			"event_name", name,
			"user_id", sess.userID)
	}
}

func (s *LinkService) audit(userID uuid.UUID, action, resourceID string, metadata map[string]interface{}) {
	if s.auditService == nil {
		return
	}
	if err := s.auditService.LogLinkActivity(userID, action, resourceID, metadata); err != nil {
		s.logger.Error("failed to create audit log",
			"error", err,
			"action", action,
			"user_id", userID)
	}
}

// widgetProvider is the client-side widget seen from the server. Open hands the session to
// the client, which reports back through the success, exit and event endpoints.
type widgetProvider struct {
	svc  *LinkService
	sess *userSession
}

// Ready is false without credentials or while the provider breaker is open, which sends the
// attempt down the simulated branch
func (w *widgetProvider) Ready() bool {
	return w.svc.gateway.Available()
}

func (w *widgetProvider) Open(ctx context.Context, session linkflow.LinkSession) error {
	w.svc.recordEvent(w.sess, models.LinkEventHandoff, models.LinkEventStatusStarted, linkflow.Metadata{}, nil)
	return nil
}
