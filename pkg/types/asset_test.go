package types

import (
	"encoding/json"
	"testing"
)

func TestAsset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Asset
		wantErr bool
	}{
		{name: "native", asset: NativeAsset()},
		{name: "token", asset: TokenAsset(TokenID{0x01})},
		{name: "native with token id", asset: Asset{Kind: KindNative, Token: TokenID{0x01}}, wantErr: true},
		{name: "token without id", asset: Asset{Kind: KindToken}, wantErr: true},
		{name: "zero value", asset: Asset{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAsset_NativeNeverEqualsZeroToken(t *testing.T) {
	if NativeAsset() == (Asset{Kind: KindToken}) {
		t.Error("native asset must not equal a zero token asset")
	}
	if NativeAsset().IsToken() || !NativeAsset().IsNative() {
		t.Error("native asset kind predicates wrong")
	}
}

func TestAsset_Bytes(t *testing.T) {
	native := NativeAsset().Bytes()
	if len(native) != 33 || native[0] != byte(KindNative) {
		t.Errorf("native Bytes() = %x", native)
	}
	tok := TokenAsset(TokenID{0xaa}).Bytes()
	if tok[0] != byte(KindToken) || tok[1] != 0xaa {
		t.Errorf("token Bytes() = %x", tok)
	}
}

func TestAsset_JSON(t *testing.T) {
	data, err := json.Marshal(NativeAsset())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"kind":"native"}` {
		t.Errorf("Marshal(native) = %s", data)
	}

	var bad Asset
	if err := json.Unmarshal([]byte(`{"kind":"token"}`), &bad); err == nil {
		t.Error("expected error for token asset without id")
	}
	if err := json.Unmarshal([]byte(`{"kind":"gold"}`), &bad); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseAssetKind(t *testing.T) {
	if k, err := ParseAssetKind("token"); err != nil || k != KindToken {
		t.Errorf("ParseAssetKind(token) = %v, %v", k, err)
	}
	if _, err := ParseAssetKind(""); err == nil {
		t.Error("expected error for empty kind")
	}
}

func TestHexBytes_JSON(t *testing.T) {
	b := HexBytes{0xde, 0xad}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `"dead"` {
		t.Errorf("Marshal() = %s, want \"dead\"", data)
	}

	var got HexBytes
	if err := json.Unmarshal([]byte(`"0xbeef"`), &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.String() != "beef" {
		t.Errorf("Unmarshal() = %s, want beef", got)
	}
	if err := json.Unmarshal([]byte(`"zz"`), &got); err == nil {
		t.Error("expected error for bad hex")
	}
}
