package caseflow

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caseflowhq/caseflow/domain"
	"github.com/caseflowhq/caseflow/errors"
	"github.com/caseflowhq/caseflow/internal/metrics"
)

// AuthorizeRequest carries the query parameters of an authorization request
// (RFC 6749 section 4.1.1). The same structure survives the upstream login
// hop inside a signed state blob, so an interrupted flow resumes without any
// server-side session affinity.
type AuthorizeRequest struct {
	ResponseType        string `json:"response_type"`
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
	State               string `json:"state,omitempty"`
	Scope               string `json:"scope,omitempty"`
	Resource            string `json:"resource,omitempty"`
}

// AuthorizeService orchestrates the interactive authorization flow:
// request validation, the upstream login hop, and code issuance.
type AuthorizeService struct {
	clients    ClientRepository
	codes      AuthCodeRepository
	signingKey []byte
	codeTTL    time.Duration
	pendingTTL time.Duration
}

// NewAuthorizeService creates a new AuthorizeService. signingKey protects the
// pending-request blob against client-side tampering during the upstream hop.
func NewAuthorizeService(clients ClientRepository, codes AuthCodeRepository, signingKey []byte, codeTTL time.Duration) *AuthorizeService {
	return &AuthorizeService{
		clients:    clients,
		codes:      codes,
		signingKey: signingKey,
		codeTTL:    codeTTL,
		pendingTTL: 10 * time.Minute,
	}
}

// ValidateRequest performs the entry validation of the authorization
// endpoint, in order, first failure wins. A non-nil error is always an
// *errors.OAuth2Error; the boolean reports whether the redirect_uri was
// verified against the client registration and is therefore safe to redirect
// errors to.
func (s *AuthorizeService) ValidateRequest(ctx context.Context, req *AuthorizeRequest) (bool, *errors.OAuth2Error) {
	if req.ResponseType != domain.ResponseTypeCode {
		return false, errors.NewUnsupportedResponseType()
	}
	if req.ClientID == "" {
		return false, errors.NewInvalidRequest("client_id is required")
	}
	if req.RedirectURI == "" {
		return false, errors.NewInvalidRequest("redirect_uri is required")
	}
	if req.CodeChallenge == "" {
		return false, errors.NewInvalidRequest("code_challenge is required")
	}
	if req.CodeChallengeMethod != "" && req.CodeChallengeMethod != CodeChallengeMethodS256 {
		return false, errors.NewInvalidRequest("code_challenge_method must be S256")
	}

	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return false, errors.NewInvalidRequest("unknown client_id")
	}
	if !client.HasRedirectURI(req.RedirectURI) {
		return false, errors.NewInvalidRequest("redirect_uri is not registered for this client")
	}

	return true, nil
}

// IssueCode synthesizes a single-use authorization code bound to the client,
// the authorizing user and the PKCE challenge. Both successful branches of
// the flow (active session, and post-login callback) end here.
func (s *AuthorizeService) IssueCode(ctx context.Context, req *AuthorizeRequest, user *domain.User) (string, error) {
	now := time.Now().UTC()
	method := req.CodeChallengeMethod
	if method == "" {
		method = CodeChallengeMethodS256
	}

	authCode := &domain.AuthCode{
		Code:                GenerateSecret("", 32),
		ClientID:            req.ClientID,
		UserID:              user.ID,
		OrganizationID:      user.OrganizationID,
		Permission:          user.Permission,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(s.codeTTL),
		CreatedAt:           now,
	}

	if err := s.codes.SaveAuthCode(ctx, authCode); err != nil {
		log.Error().Err(err).Str("client_id", req.ClientID).Msg("failed to save authorization code")
		return "", errors.NewServerError("failed to issue authorization code")
	}

	metrics.AuthCodesIssuedTotal.Inc()
	log.Debug().
		Str("client_id", req.ClientID).
		Str("user_id", user.ID).
		Str("organization_id", user.OrganizationID).
		Msg("authorization code issued")

	return authCode.Code, nil
}

// SuccessRedirectURL builds the client redirect carrying the code, echoing
// state when present.
func SuccessRedirectURL(req *AuthorizeRequest, code string) string {
	values := url.Values{}
	values.Set("code", code)
	if req.State != "" {
		values.Set("state", req.State)
	}
	return appendQuery(req.RedirectURI, values)
}

// ErrorRedirectURL builds the client redirect carrying an OAuth error,
// echoing state when present.
func ErrorRedirectURL(redirectURI, state string, oauthErr *errors.OAuth2Error) string {
	values := url.Values{}
	values.Set("error", oauthErr.Code)
	if oauthErr.Description != "" {
		values.Set("error_description", oauthErr.Description)
	}
	if state != "" {
		values.Set("state", state)
	}
	return appendQuery(redirectURI, values)
}

func appendQuery(base string, values url.Values) string {
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + values.Encode()
}

// pendingAuthorization is the payload signed into the upstream state blob.
type pendingAuthorization struct {
	Request  AuthorizeRequest `json:"request"`
	IssuedAt int64            `json:"iat"`
}

// EncodePendingRequest serializes the authorization request into an
// HMAC-SHA256 signed, base64url blob that rides the upstream login hop as the
// provider's state parameter. The signature closes the tampering window that
// exists when the echoed parameters are trusted as-is.
func (s *AuthorizeService) EncodePendingRequest(req *AuthorizeRequest) (string, error) {
	payload, err := json.Marshal(pendingAuthorization{
		Request:  *req,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode pending authorization: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(body))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return body + "." + sig, nil
}

// DecodePendingRequest verifies and decodes a blob produced by
// EncodePendingRequest. Tampered, malformed or stale blobs are rejected.
func (s *AuthorizeService) DecodePendingRequest(blob string) (*AuthorizeRequest, error) {
	body, sig, ok := strings.Cut(blob, ".")
	if !ok {
		return nil, fmt.Errorf("malformed pending authorization state")
	}

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(body))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return nil, fmt.Errorf("pending authorization state signature mismatch")
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("malformed pending authorization payload: %w", err)
	}

	var pending pendingAuthorization
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, fmt.Errorf("malformed pending authorization payload: %w", err)
	}

	if time.Since(time.Unix(pending.IssuedAt, 0)) > s.pendingTTL {
		return nil, fmt.Errorf("pending authorization state expired")
	}

	return &pending.Request, nil
}
