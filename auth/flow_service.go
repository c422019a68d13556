package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ssoflow/sso-server/auth/sessions"
	"github.com/ssoflow/sso-server/authcode"
	"github.com/ssoflow/sso-server/token"
	"github.com/ssoflow/sso-server/users"
)

// LoginResult is returned from a successful login step
type LoginResult struct {
	SessionID string
	AuthCode  string
	ExpiresIn int // auth code lifetime in seconds
}

// Repos holds all repository dependencies for the FlowService
type Repos struct {
	Sessions sessions.Repo
}

// FlowService sequences the authorization-code flow: login, code
// issuance, code exchange and token verification. It is the only
// component that knows about step ordering; each step's output is the
// mandatory input of the next.
type FlowService struct {
	credentials *users.Store
	codes       *authcode.Issuer
	tokens      *token.Issuer
	verifier    *token.Verifier
	repos       Repos
	nowFunc     func() time.Time
}

type FlowServiceOption func(*FlowService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowServiceOption {
	return func(fs *FlowService) {
		fs.nowFunc = nowFunc
	}
}

// NewFlowService initialises a new FlowService with required dependencies.
func NewFlowService(
	credentials *users.Store,
	codes *authcode.Issuer,
	tokens *token.Issuer,
	verifier *token.Verifier,
	repos Repos,
	options ...FlowServiceOption,
) (*FlowService, error) {
	if credentials == nil {
		return nil, errors.New("[NewFlowService] credential store is required")
	}
	if codes == nil {
		return nil, errors.New("[NewFlowService] code issuer is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewFlowService] token issuer is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewFlowService] token verifier is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewFlowService] Sessions repo is required")
	}

	flowService := &FlowService{
		credentials: credentials,
		codes:       codes,
		tokens:      tokens,
		verifier:    verifier,
		repos:       repos,
		nowFunc:     time.Now,
	}

	for _, opt := range options {
		opt(flowService)
	}

	return flowService, nil
}

// Login verifies the credentials and, on success, opens a fresh flow
// session with an authorization code bound to the user. Bad credentials
// leave no session behind.
func (fs *FlowService) Login(username, password string) (*LoginResult, error) {
	if err := fs.credentials.VerifyLogin(username, password); err != nil {
		return nil, errors.Wrap(err, "[FlowService.Login] VerifyLogin")
	}

	code, err := fs.codes.Issue(username)
	if err != nil {
		return nil, errors.Wrap(err, "[FlowService.Login] Issue")
	}

	sessionID := uuid.New().String()
	if err := fs.repos.Sessions.Upsert(sessionID, sessions.FlowSession{
		ID:        sessionID,
		State:     sessions.StateCodeIssued,
		Username:  username,
		AuthCode:  code.Code,
		CreatedAt: fs.nowFunc(),
	}); err != nil {
		return nil, errors.Wrap(err, "[FlowService.Login] Sessions.Upsert")
	}

	log.Info().Str("username", username).Str("session_id", sessionID).Msg("login succeeded, authorization code issued")

	return &LoginResult{
		SessionID: sessionID,
		AuthCode:  code.Code,
		ExpiresIn: int(code.ExpiresAt.Sub(code.IssuedAt).Seconds()),
	}, nil
}

// Exchange redeems an authorization code for a token pair. The code
// issuer is the authority on single use and expiry; a failed redemption
// leaves the session state untouched. A replayed code surfaces
// authcode.ErrCodeAlreadyUsed even after the session has moved on.
func (fs *FlowService) Exchange(code string) (*token.TokenPair, error) {
	username, err := fs.codes.Redeem(code)
	if err != nil {
		if errors.Is(err, authcode.ErrCodeExpired) {
			fs.evictSessionByCode(code)
		}
		log.Info().Err(err).Msg("code exchange rejected")
		return nil, err
	}

	session, err := fs.repos.Sessions.GetByAuthCode(code)
	if err != nil {
		return nil, errors.Wrap(ErrSessionNotFound, "[FlowService.Exchange] GetByAuthCode")
	}
	if session.State != sessions.StateCodeIssued {
		return nil, ErrInvalidFlowState
	}

	pair, err := fs.tokens.IssueTokens(username, "")
	if err != nil {
		return nil, errors.Wrap(err, "[FlowService.Exchange] IssueTokens")
	}

	session.State = sessions.StateTokensIssued
	if err := fs.repos.Sessions.Upsert(session.ID, session); err != nil {
		return nil, errors.Wrap(err, "[FlowService.Exchange] Sessions.Upsert")
	}

	log.Info().Str("username", username).Str("session_id", session.ID).Msg("authorization code exchanged for tokens")
	return pair, nil
}

// evictSessionByCode drops the session an expired code was issued for.
// The code can never be redeemed again, so the session is dead weight.
func (fs *FlowService) evictSessionByCode(code string) {
	session, err := fs.repos.Sessions.GetByAuthCode(code)
	if err != nil {
		return
	}
	if err := fs.repos.Sessions.Delete(session.ID); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to evict stale session")
	}
}

// Verify runs the token verifier against the session's expected
// subject. It is only allowed once tokens have been issued, and is
// idempotent: repeating it does not change server state beyond the
// first transition to Verified.
func (fs *FlowService) Verify(sessionID, idToken, accessToken string) (*token.VerificationResult, error) {
	session, err := fs.repos.Sessions.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	switch session.State {
	case sessions.StateTokensIssued, sessions.StateVerified:
		// verification may be run and re-run in these states
	default:
		return nil, ErrNoTokensIssued
	}

	result := fs.verifier.Verify(idToken, accessToken, session.Username)

	if session.State != sessions.StateVerified {
		session.State = sessions.StateVerified
		if err := fs.repos.Sessions.Upsert(session.ID, session); err != nil {
			return nil, errors.Wrap(err, "[FlowService.Verify] Sessions.Upsert")
		}
	}

	log.Info().Str("session_id", sessionID).Bool("verified", result.Verified).Msg("token verification completed")
	return result, nil
}
