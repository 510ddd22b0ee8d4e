package integration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bva/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// Lifecycle errors
	ErrIntegrationNotFound   = errors.New("integration: integration not found")
	ErrIntegrationInactive   = errors.New("integration: integration is not active")
	ErrTermsNotAccepted      = errors.New("integration: terms of service not accepted")
	ErrInvalidShopID         = errors.New("integration: invalid shop ID")
	ErrInvalidPlatformCode   = errors.New("integration: invalid platform code")
	ErrMissingToken          = errors.New("integration: no platform token available")
	ErrDuplicateIntegration  = errors.New("integration: integration already exists for shop and platform")
	ErrConnectionTestFailed  = errors.New("integration: connection test failed")
	ErrPlatformNotRegistered = errors.New("integration: no client registered for platform")
	ErrRemoteRequestFailed   = errors.New("integration: remote storefront request failed")
	ErrRemoteInvalidResponse = errors.New("integration: invalid remote storefront response")
	ErrRemoteUnauthenticated = errors.New("integration: remote storefront rejected credentials")
)

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// Settings is the per-integration configuration blob. The fields below are the
// keys the platform writes itself; anything else found in the stored JSON is
// preserved in Extra so that updates merge rather than replace the blob.
type Settings struct {
	// ConnectedAt is when the integration was first connected
	ConnectedAt *time.Time
	// LastConnectedAt is when the integration was last (re)connected
	LastConnectedAt *time.Time
	// TermsAccepted indicates the user accepted the data-sharing terms
	TermsAccepted bool
	// TermsAcceptedAt is when the terms were accepted
	TermsAcceptedAt *time.Time
	// IsActive indicates the integration may sync
	IsActive bool
	// ShopeeToken is the bearer token for the Shopee-style clone
	ShopeeToken string
	// LazadaToken is the bearer token for the Lazada-style clone
	LazadaToken string
	// Extra holds forward-compatible keys written by other components
	Extra map[string]any
}

// settingsJSON mirrors the wire shape of the known settings keys.
type settingsJSON struct {
	ConnectedAt     *time.Time `json:"connectedAt,omitempty"`
	LastConnectedAt *time.Time `json:"lastConnectedAt,omitempty"`
	TermsAccepted   bool       `json:"termsAccepted"`
	TermsAcceptedAt *time.Time `json:"termsAcceptedAt,omitempty"`
	IsActive        bool       `json:"isActive"`
	ShopeeToken     string     `json:"shopeeToken,omitempty"`
	LazadaToken     string     `json:"lazadaToken,omitempty"`
}

// knownSettingsKeys are the keys owned by Settings itself; everything else
// round-trips through Extra.
var knownSettingsKeys = map[string]struct{}{
	"connectedAt":     {},
	"lastConnectedAt": {},
	"termsAccepted":   {},
	"termsAcceptedAt": {},
	"isActive":        {},
	"shopeeToken":     {},
	"lazadaToken":     {},
}

// MarshalJSON serializes known fields and re-emits preserved Extra keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+7)
	for k, v := range s.Extra {
		out[k] = v
	}

	known, err := json.Marshal(settingsJSON{
		ConnectedAt:     s.ConnectedAt,
		LastConnectedAt: s.LastConnectedAt,
		TermsAccepted:   s.TermsAccepted,
		TermsAcceptedAt: s.TermsAcceptedAt,
		IsActive:        s.IsActive,
		ShopeeToken:     s.ShopeeToken,
		LazadaToken:     s.LazadaToken,
	})
	if err != nil {
		return nil, err
	}
	var knownMap map[string]any
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses known fields and stashes unknown keys in Extra.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var known settingsJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if _, ok := knownSettingsKeys[k]; ok {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		extra[k] = val
	}
	if len(extra) == 0 {
		extra = nil
	}

	*s = Settings{
		ConnectedAt:     known.ConnectedAt,
		LastConnectedAt: known.LastConnectedAt,
		TermsAccepted:   known.TermsAccepted,
		TermsAcceptedAt: known.TermsAcceptedAt,
		IsActive:        known.IsActive,
		ShopeeToken:     known.ShopeeToken,
		LazadaToken:     known.LazadaToken,
		Extra:           extra,
	}
	return nil
}

// TokenFor returns the stored bearer token for a platform, if any.
func (s *Settings) TokenFor(platform PlatformCode) string {
	switch platform {
	case PlatformCodeShopee:
		return s.ShopeeToken
	case PlatformCodeLazada:
		return s.LazadaToken
	default:
		return ""
	}
}

// SetTokenFor stores the bearer token for a platform.
func (s *Settings) SetTokenFor(platform PlatformCode, token string) {
	switch platform {
	case PlatformCodeShopee:
		s.ShopeeToken = token
	case PlatformCodeLazada:
		s.LazadaToken = token
	}
}

// Merge folds incoming settings into the receiver. Only set fields of the
// incoming value win; Extra keys are merged key-by-key so that unknown keys
// written by other components survive a reconnect.
func (s *Settings) Merge(incoming Settings) {
	if incoming.ConnectedAt != nil {
		s.ConnectedAt = incoming.ConnectedAt
	}
	if incoming.LastConnectedAt != nil {
		s.LastConnectedAt = incoming.LastConnectedAt
	}
	if incoming.TermsAccepted {
		s.TermsAccepted = true
	}
	if incoming.TermsAcceptedAt != nil {
		s.TermsAcceptedAt = incoming.TermsAcceptedAt
	}
	if incoming.IsActive {
		s.IsActive = true
	}
	if incoming.ShopeeToken != "" {
		s.ShopeeToken = incoming.ShopeeToken
	}
	if incoming.LazadaToken != "" {
		s.LazadaToken = incoming.LazadaToken
	}
	for k, v := range incoming.Extra {
		if s.Extra == nil {
			s.Extra = make(map[string]any)
		}
		s.Extra[k] = v
	}
}

// ---------------------------------------------------------------------------
// Integration Entity
// ---------------------------------------------------------------------------

// Integration links a local shop record to an account on a remote storefront
// clone. At most one integration exists per (shop, platform) pair.
type Integration struct {
	shared.BaseEntity
	// ShopID is the local shop this integration belongs to. The shop may be
	// a linked shop the acting user does not own.
	ShopID uuid.UUID
	// Platform identifies the remote storefront clone
	Platform PlatformCode
	// Settings carries tokens, consent flags, and connection timestamps
	Settings Settings
}

// NewIntegration creates a connected integration. Connecting implies consent,
// so terms acceptance and the active flag are set here.
func NewIntegration(shopID uuid.UUID, platform PlatformCode, token string) (*Integration, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if !platform.IsValid() {
		return nil, ErrInvalidPlatformCode
	}

	now := time.Now()
	settings := Settings{
		ConnectedAt:     &now,
		LastConnectedAt: &now,
		TermsAccepted:   true,
		TermsAcceptedAt: &now,
		IsActive:        true,
	}
	settings.SetTokenFor(platform, token)

	return &Integration{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		Platform:   platform,
		Settings:   settings,
	}, nil
}

// Refresh merges new settings into the integration and stamps the reconnect
// time. Used when a connect request hits an existing (shop, platform) row.
func (i *Integration) Refresh(token string, incoming Settings) {
	now := time.Now()
	incoming.LastConnectedAt = &now
	incoming.IsActive = true
	if token != "" {
		incoming.SetTokenFor(i.Platform, token)
	}
	i.Settings.Merge(incoming)
	i.Touch()
}

// CanSync reports whether sync and test operations are permitted.
func (i *Integration) CanSync() error {
	if !i.Settings.IsActive {
		return ErrIntegrationInactive
	}
	if !i.Settings.TermsAccepted {
		return ErrTermsNotAccepted
	}
	return nil
}

// ResolveToken picks the token used for remote calls. A stored platform token
// always wins over a caller-supplied fallback.
func (i *Integration) ResolveToken(fallback string) (string, error) {
	if token := i.Settings.TokenFor(i.Platform); token != "" {
		return token, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrMissingToken
}

// ---------------------------------------------------------------------------
// Repository Port
// ---------------------------------------------------------------------------

// Repository defines persistence operations for integrations
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)
	FindByShopAndPlatform(ctx context.Context, shopID uuid.UUID, platform PlatformCode) (*Integration, error)
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]Integration, error)
	Save(ctx context.Context, integration *Integration) error
	Update(ctx context.Context, integration *Integration) error
	// Delete removes the integration. Deleting an absent row is not an error;
	// the bool result reports whether a row was actually removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
