package types

import (
	"encoding/json"
	"fmt"
)

// AssetKind discriminates the two asset families a stake can hold.
type AssetKind uint8

const (
	// KindNative is the ledger's native value asset.
	KindNative AssetKind = 1
	// KindToken is a fungible token identified by a TokenID.
	KindToken AssetKind = 2
)

// String returns the lowercase kind name used in JSON and on the CLI.
func (k AssetKind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseAssetKind parses "native" or "token".
func ParseAssetKind(s string) (AssetKind, error) {
	switch s {
	case "native":
		return KindNative, nil
	case "token":
		return KindToken, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", s)
	}
}

// MarshalJSON encodes the kind as its name.
func (k AssetKind) MarshalJSON() ([]byte, error) {
	if k != KindNative && k != KindToken {
		return nil, fmt.Errorf("invalid asset kind %d", uint8(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *AssetKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Asset is the tagged union Native | Token(id).
//
// Token is only meaningful when Kind == KindToken and must be zero otherwise;
// a zero TokenID never stands in for the native asset.
type Asset struct {
	Kind  AssetKind `json:"kind"`
	Token TokenID   `json:"token,omitempty"`
}

// NativeAsset returns the native asset.
func NativeAsset() Asset {
	return Asset{Kind: KindNative}
}

// TokenAsset returns the token asset for id.
func TokenAsset(id TokenID) Asset {
	return Asset{Kind: KindToken, Token: id}
}

// IsNative reports whether the asset is the native asset.
func (a Asset) IsNative() bool { return a.Kind == KindNative }

// IsToken reports whether the asset is a token.
func (a Asset) IsToken() bool { return a.Kind == KindToken }

// Validate checks that the tag and payload agree.
func (a Asset) Validate() error {
	switch a.Kind {
	case KindNative:
		if !a.Token.IsZero() {
			return fmt.Errorf("native asset carries token id %s", a.Token)
		}
		return nil
	case KindToken:
		if a.Token.IsZero() {
			return fmt.Errorf("token asset without token id")
		}
		return nil
	default:
		return fmt.Errorf("invalid asset kind %d", uint8(a.Kind))
	}
}

// String returns "native" or "token:<hex>".
func (a Asset) String() string {
	if a.Kind == KindToken {
		return "token:" + a.Token.String()
	}
	return a.Kind.String()
}

// Bytes returns the fixed 33-byte canonical encoding: kind byte then token id.
func (a Asset) Bytes() []byte {
	b := make([]byte, 1+HashSize)
	b[0] = byte(a.Kind)
	if a.Kind == KindToken {
		copy(b[1:], a.Token[:])
	}
	return b
}

type assetJSON struct {
	Kind  AssetKind `json:"kind"`
	Token *TokenID  `json:"token,omitempty"`
}

// MarshalJSON encodes {"kind":"native"} or {"kind":"token","token":"<hex>"}.
func (a Asset) MarshalJSON() ([]byte, error) {
	out := assetJSON{Kind: a.Kind}
	if a.Kind == KindToken {
		id := a.Token
		out.Token = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates an asset.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var in assetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Asset{Kind: in.Kind}
	if in.Token != nil {
		out.Token = *in.Token
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*a = out
	return nil
}
