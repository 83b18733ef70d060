package errors

import "fmt"

// OAuth2Error represents a standardized OAuth 2.0 error
type OAuth2Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
	State       string `json:"state,omitempty"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Standard OAuth2 error codes, including the RFC 7591 registration codes.
const (
	InvalidRequest          = "invalid_request"
	UnauthorizedClient      = "unauthorized_client"
	AccessDenied            = "access_denied"
	UnsupportedResponseType = "unsupported_response_type"
	UnsupportedGrantType    = "unsupported_grant_type"
	InvalidScope            = "invalid_scope"
	InvalidClient           = "invalid_client"
	InvalidGrant            = "invalid_grant"
	InvalidClientMetadata   = "invalid_client_metadata"
	InvalidRedirectURI      = "invalid_redirect_uri"
	ServerError             = "server_error"
	TemporarilyUnavailable  = "temporarily_unavailable"
)

// Common error constructors
func NewInvalidRequest(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidRequest,
		Description: description,
	}
}

func NewInvalidClient(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidClient,
		Description: description,
	}
}

// NewInvalidGrant carries a deliberately generic description: callers must not
// be able to distinguish an unknown code from an expired, consumed or
// PKCE-mismatched one.
func NewInvalidGrant(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidGrant,
		Description: description,
	}
}

func NewServerError(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        ServerError,
		Description: description,
	}
}

func NewAccessDenied(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        AccessDenied,
		Description: description,
	}
}

// Registration errors (RFC 7591, section 3.2.2)

func NewInvalidClientMetadata(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidClientMetadata,
		Description: description,
	}
}

func NewInvalidRedirectURI(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        InvalidRedirectURI,
		Description: description,
	}
}

func NewUnsupportedResponseType() *OAuth2Error {
	return &OAuth2Error{
		Code:        UnsupportedResponseType,
		Description: "Only the 'code' response type is supported",
	}
}

func NewUnsupportedGrantType() *OAuth2Error {
	return &OAuth2Error{
		Code:        UnsupportedGrantType,
		Description: "The authorization grant type is not supported",
	}
}

// WithState returns a copy of the error carrying the client-supplied state so
// error redirects can echo it back per RFC 6749 section 4.1.2.1.
func (e *OAuth2Error) WithState(state string) *OAuth2Error {
	if state == "" {
		return e
	}
	clone := *e
	clone.State = state
	return &clone
}
