package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/url"

	"golang.org/x/crypto/hkdf"

	"bingo-system/models"
)

// hkdfInfo pins the derived key to this payload format. Bumping it
// invalidates every previously issued code.
const hkdfInfo = "bingo-qr-payload-v1"

// Signer produces and verifies HMAC-SHA256 signatures over the canonical
// encoding of a QR payload. The canonical form is compact JSON with
// lexicographically sorted keys, so issue and verify always hash the same
// bytes.
type Signer struct {
	key []byte
}

func NewSigner(secret string) *Signer {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		// hkdf only errors past its output limit, far beyond 32 bytes.
		panic(err)
	}
	return &Signer{key: key}
}

// canonical serializes every signed field. encoding/json sorts map keys,
// which matches the compact sorted-key JSON the QR generator emits.
func (s *Signer) canonical(p models.SignedPayload) ([]byte, error) {
	return json.Marshal(map[string]any{
		"code":        p.Code,
		"tickets":     p.Tickets,
		"valid_until": p.ValidUntil,
		"amount":      p.Amount,
	})
}

// Sign returns the hex MAC over the payload's canonical encoding. The Sig
// field of the input is ignored.
func (s *Signer) Sign(p models.SignedPayload) (string, error) {
	data, err := s.canonical(p)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether claimedSig is the MAC of the payload. It never
// returns an error: any mismatch, including undecodable signatures, is
// simply false. The comparison is constant-time.
func (s *Signer) Verify(p models.SignedPayload, claimedSig string) bool {
	data, err := s.canonical(p)
	if err != nil {
		return false
	}

	claimed, err := hex.DecodeString(claimedSig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return hmac.Equal(mac.Sum(nil), claimed)
}

// EncodePayload renders the full payload (including signature) the way it
// is embedded in a QR image: urlsafe base64 of the payload JSON, wrapped
// in the scanner web app URL when one is configured.
func EncodePayload(p models.SignedPayload, baseURL string) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	token := base64.URLEncoding.EncodeToString(data)
	if baseURL == "" {
		return token, nil
	}
	return baseURL + "?data=" + url.QueryEscape(token), nil
}

// DecodePayload reverses EncodePayload's base64 token.
func DecodePayload(token string) (models.QRPayload, error) {
	var p models.QRPayload

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return p, err
	}

	err = json.Unmarshal(data, &p)
	return p, err
}
