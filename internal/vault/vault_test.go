package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsas/internal/errors"
)

func generateTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(generateTestKey(t))
	require.NoError(t, err)
	return v
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		keyLen  int
		wantErr bool
	}{
		{"valid 32-byte key", 32, false},
		{"key too short", 16, true},
		{"key too long", 64, true},
		{"empty key", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(make([]byte, tt.keyLen))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, v)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, v)
		})
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := newTestVault(t)

	cases := map[string]Document{
		"lab results": {"temperature": 101.2, "notes": "fever"},
		"nested": {
			"panel":  map[string]any{"wbc": 11.2, "rbc": 4.7},
			"flags":  []any{"high", "recheck"},
			"fasted": true,
		},
		"empty object": {},
		"unicode":      {"note": "patient reports dolor de cabeza ☹"},
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			ct, err := v.Encrypt(doc)
			require.NoError(t, err)
			assert.NotContains(t, string(ct), "fever")

			got, err := v.Decrypt(ct)
			require.NoError(t, err)
			assertSameJSON(t, doc, got)
		})
	}
}

func TestDecrypt_KeepsLargeIntegers(t *testing.T) {
	v := newTestVault(t)

	ct, err := v.Encrypt(Document{
		"mrn":    int64(9007199254740993),
		"claim":  json.Number("123456789012345678901234567890"),
		"weight": 72.5,
	})
	require.NoError(t, err)

	got, err := v.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), got["mrn"])
	assert.Equal(t, json.Number("123456789012345678901234567890"), got["claim"])
	assert.Equal(t, json.Number("72.5"), got["weight"])
}

func TestEncrypt_FreshNonceEachTime(t *testing.T) {
	v := newTestVault(t)
	doc := Document{"a": "b"}

	first, err := v.Encrypt(doc)
	require.NoError(t, err)
	second, err := v.Encrypt(doc)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestEncrypt_Malformed(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Encrypt(nil)
	assert.True(t, errors.Is(err, errors.ErrMalformed))

	_, err = v.Encrypt(Document{"bad": make(chan int)})
	assert.True(t, errors.Is(err, errors.ErrMalformed))
}

// Covers every padding shape of the stored text: the sealed length runs over
// all residues mod 3, including the unused low bits of the final character.
func TestDecrypt_EveryBitFlipOfStoredTextIsDetected(t *testing.T) {
	v := newTestVault(t)

	for n := 0; n < 3; n++ {
		ct, err := v.Encrypt(Document{"symptoms": "fever", "pad": strings.Repeat("a", n)})
		require.NoError(t, err)

		for i := 0; i < len(ct); i++ {
			for bit := 0; bit < 8; bit++ {
				tampered := []byte(ct)
				tampered[i] ^= 1 << bit
				doc, err := v.Decrypt(Ciphertext(tampered))
				require.Error(t, err, "pad %d char %d bit %d decrypted to %v", n, i, bit, doc)
				assert.True(t, errors.Is(err, errors.ErrTampered))
			}
		}
	}
}

func TestDecrypt_RejectsNonCanonicalPadding(t *testing.T) {
	v := newTestVault(t)

	// 28 bytes of overhead plus a 13-byte document leaves two padding bits
	ct, err := v.Encrypt(Document{"a": "bcdef"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(ct), "="))
	require.False(t, strings.HasSuffix(string(ct), "=="))

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	last := len(ct) - 2
	tampered := []byte(ct)
	// the low bit of the final character's value carries no data
	tampered[last] = alphabet[strings.IndexByte(alphabet, tampered[last])^1]
	raw, err := base64.StdEncoding.DecodeString(string(tampered))
	require.NoError(t, err, "lenient decoding accepts the flip")
	orig, err := base64.StdEncoding.DecodeString(string(ct))
	require.NoError(t, err)
	require.Equal(t, orig, raw)

	_, err = v.Decrypt(Ciphertext(tampered))
	assert.True(t, errors.Is(err, errors.ErrTampered))
}

func TestDecrypt_EveryBitFlipIsDetected(t *testing.T) {
	v := newTestVault(t)

	ct, err := v.Encrypt(Document{"temperature": 101.2})
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(string(ct))
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), raw...)
			tampered[i] ^= 1 << bit
			_, err := v.Decrypt(Ciphertext(base64.StdEncoding.EncodeToString(tampered)))
			require.Error(t, err, "byte %d bit %d", i, bit)
			assert.True(t, errors.Is(err, errors.ErrTampered))
		}
	}
}

func TestDecrypt_Failures(t *testing.T) {
	v := newTestVault(t)
	other := newTestVault(t)

	ct, err := v.Encrypt(Document{"x": 1.0})
	require.NoError(t, err)

	tests := []struct {
		name string
		ct   Ciphertext
	}{
		{"wrong key", mustEncrypt(t, other, Document{"x": 1.0})},
		{"not base64", Ciphertext("%%%not-base64%%%")},
		{"empty", Ciphertext("")},
		{"truncated", ct[:10]},
		{"nonce only", Ciphertext(base64.StdEncoding.EncodeToString(make([]byte, 12)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := v.Decrypt(tt.ct)
			assert.Nil(t, doc)
			require.Error(t, err)
			kind, ok := errors.KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, errors.KindIntegrity, kind)
		})
	}
}

func TestDecrypt_NonObjectPlaintextIsMalformed(t *testing.T) {
	key := generateTestKey(t)
	v, err := New(key)
	require.NoError(t, err)

	// seal a JSON array directly so authentication passes but the shape is wrong
	nonce := make([]byte, v.aead.NonceSize())
	sealed := v.aead.Seal(nonce, nonce, []byte(`[1,2,3]`), nil)

	_, err = v.Decrypt(Ciphertext(base64.StdEncoding.EncodeToString(sealed)))
	assert.True(t, errors.Is(err, errors.ErrMalformed))
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, k1, 64)
	assert.NotEqual(t, k1, k2)

	raw, err := hex.DecodeString(k1)
	require.NoError(t, err)
	_, err = New(raw)
	assert.NoError(t, err)
}

func assertSameJSON(t *testing.T, want, got Document) {
	t.Helper()
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}

func mustEncrypt(t *testing.T, v *Vault, doc Document) Ciphertext {
	t.Helper()
	ct, err := v.Encrypt(doc)
	require.NoError(t, err)
	return ct
}
