package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Integration Entity Tests
// ---------------------------------------------------------------------------

func TestNewIntegration(t *testing.T) {
	shopID := uuid.New()

	t.Run("Connecting implies consent", func(t *testing.T) {
		integ, err := NewIntegration(shopID, PlatformCodeShopee, "tok-123")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, integ.ID)
		assert.True(t, integ.Settings.IsActive)
		assert.True(t, integ.Settings.TermsAccepted)
		assert.NotNil(t, integ.Settings.ConnectedAt)
		assert.NotNil(t, integ.Settings.TermsAcceptedAt)
		assert.Equal(t, "tok-123", integ.Settings.ShopeeToken)
		assert.NoError(t, integ.CanSync())
	})

	t.Run("Invalid shop ID", func(t *testing.T) {
		_, err := NewIntegration(uuid.Nil, PlatformCodeShopee, "tok")
		assert.ErrorIs(t, err, ErrInvalidShopID)
	})

	t.Run("Invalid platform", func(t *testing.T) {
		_, err := NewIntegration(shopID, PlatformCode("EBAY"), "tok")
		assert.ErrorIs(t, err, ErrInvalidPlatformCode)
	})
}

func TestIntegration_CanSync(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  error
	}{
		{
			name:     "Active and accepted",
			settings: Settings{IsActive: true, TermsAccepted: true},
			wantErr:  nil,
		},
		{
			name:     "Inactive",
			settings: Settings{IsActive: false, TermsAccepted: true},
			wantErr:  ErrIntegrationInactive,
		},
		{
			name:     "Terms not accepted",
			settings: Settings{IsActive: true, TermsAccepted: false},
			wantErr:  ErrTermsNotAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ := &Integration{ShopID: uuid.New(), Platform: PlatformCodeLazada, Settings: tt.settings}
			err := integ.CanSync()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIntegration_ResolveToken(t *testing.T) {
	integ := &Integration{Platform: PlatformCodeShopee}

	t.Run("No token anywhere", func(t *testing.T) {
		_, err := integ.ResolveToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Fallback used when nothing stored", func(t *testing.T) {
		token, err := integ.ResolveToken("fallback-tok")
		require.NoError(t, err)
		assert.Equal(t, "fallback-tok", token)
	})

	t.Run("Stored token wins over fallback", func(t *testing.T) {
		integ.Settings.ShopeeToken = "stored-tok"
		token, err := integ.ResolveToken("fallback-tok")
		require.NoError(t, err)
		assert.Equal(t, "stored-tok", token)
	})
}

func TestIntegration_Refresh(t *testing.T) {
	integ, err := NewIntegration(uuid.New(), PlatformCodeShopee, "old-tok")
	require.NoError(t, err)
	integ.Settings.IsActive = false
	firstConnected := integ.Settings.ConnectedAt

	integ.Refresh("new-tok", Settings{Extra: map[string]any{"webhookSecret": "abc"}})

	assert.Equal(t, "new-tok", integ.Settings.ShopeeToken)
	assert.True(t, integ.Settings.IsActive, "reconnect reactivates")
	assert.Equal(t, firstConnected, integ.Settings.ConnectedAt, "first-connect time is kept")
	assert.NotNil(t, integ.Settings.LastConnectedAt)
	assert.Equal(t, "abc", integ.Settings.Extra["webhookSecret"])
}

// ---------------------------------------------------------------------------
// Settings Tests
// ---------------------------------------------------------------------------

func TestSettings_Merge(t *testing.T) {
	now := time.Now()
	base := Settings{
		TermsAccepted: true,
		IsActive:      true,
		ShopeeToken:   "shopee-tok",
		Extra:         map[string]any{"theme": "dark", "webhookSecret": "old"},
	}

	base.Merge(Settings{
		LastConnectedAt: &now,
		LazadaToken:     "lazada-tok",
		Extra:           map[string]any{"webhookSecret": "new"},
	})

	assert.Equal(t, "shopee-tok", base.ShopeeToken, "absent incoming token keeps existing")
	assert.Equal(t, "lazada-tok", base.LazadaToken)
	assert.True(t, base.TermsAccepted)
	assert.Equal(t, "dark", base.Extra["theme"], "untouched extra keys survive")
	assert.Equal(t, "new", base.Extra["webhookSecret"], "incoming extra keys win")
}

func TestSettings_JSONRoundTripPreservesUnknownKeys(t *testing.T) {
	stored := `{
		"isActive": true,
		"termsAccepted": true,
		"shopeeToken": "tok",
		"legacyWebhookId": "wh_42",
		"rateLimit": {"rps": 5}
	}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(stored), &s))
	assert.True(t, s.IsActive)
	assert.Equal(t, "tok", s.ShopeeToken)
	assert.Equal(t, "wh_42", s.Extra["legacyWebhookId"])

	s.LazadaToken = "tok2"
	out, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, "wh_42", raw["legacyWebhookId"])
	assert.Equal(t, map[string]any{"rps": float64(5)}, raw["rateLimit"])
	assert.Equal(t, "tok2", raw["lazadaToken"])
}

func TestPlatformCode_DefaultSKU(t *testing.T) {
	assert.Equal(t, "SHOPEE-42", PlatformCodeShopee.DefaultSKU("42"))
	assert.Equal(t, "LAZADA-p-9", PlatformCodeLazada.DefaultSKU("p-9"))
}
