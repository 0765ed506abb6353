package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Signer implements the processor's confirmation signature:
// base64(HMAC-SHA256(secret, intentID + "|" + paymentID)).
type Signer struct {
	secret []byte
}

func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret)}
}

func (s Signer) Sign(intentID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s Signer) Verify(intentID, paymentID, signature string) bool {
	return hmac.Equal([]byte(s.Sign(intentID, paymentID)), []byte(signature))
}
