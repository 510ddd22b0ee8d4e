package integration

// ---------------------------------------------------------------------------
// PlatformCode represents the storefront platform an account lives on
// ---------------------------------------------------------------------------

// PlatformCode represents the storefront platform an account lives on
type PlatformCode string

const (
	// PlatformCodeShopee represents the Shopee-style storefront clone
	PlatformCodeShopee PlatformCode = "SHOPEE"
	// PlatformCodeLazada represents the Lazada-style storefront clone
	PlatformCodeLazada PlatformCode = "LAZADA"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeShopee, PlatformCodeLazada:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeShopee:
		return "Shopee"
	case PlatformCodeLazada:
		return "Lazada"
	default:
		return string(c)
	}
}

// DefaultSKU builds the fallback SKU used when a remote product carries none.
// The platform prefix keeps generated SKUs unique across platforms that reuse
// numeric product IDs.
func (c PlatformCode) DefaultSKU(externalID string) string {
	return string(c) + "-" + externalID
}

// AllPlatformCodes returns every supported platform code
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{PlatformCodeShopee, PlatformCodeLazada}
}
