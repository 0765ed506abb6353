// Package sandbox is a local stand-in for the payment processor.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	dompay "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/google/uuid"
)

const KeyID = "sandbox_key"

// Gateway opens intents in memory and declines a share of them at random.
// Signatures use the real scheme, so clients can confirm with
// ComputeSignature output.
type Gateway struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	latency     time.Duration
	signer      dompay.Signer
}

var _ dompay.Gateway = (*Gateway)(nil)

func New(secret string, successRate float64, latency time.Duration) *Gateway {
	g := &Gateway{
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
		latency: latency,
		signer:  dompay.NewSigner(secret),
	}
	g.SetSuccessRate(successRate)
	return g
}

func (g *Gateway) CreateIntent(ctx context.Context, referenceID string, amountMinor int64, currency string) (dompay.Intent, error) {
	if amountMinor <= 0 {
		return dompay.Intent{}, dompay.ErrInvalidAmount
	}

	if g.latency > 0 {
		t := time.NewTimer(g.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return dompay.Intent{}, ctx.Err()
		case <-t.C:
		}
	}

	// respect cancellation even though this is mocked
	if err := ctx.Err(); err != nil {
		return dompay.Intent{}, err
	}

	g.mu.Lock()
	ok := g.random.Float64() < g.successRate
	g.mu.Unlock()
	if !ok {
		return dompay.Intent{}, fmt.Errorf("%w: sandbox declined intent for %s", dompay.ErrGateway, referenceID)
	}

	return dompay.Intent{
		ID:          "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		ReferenceID: referenceID,
		AmountMinor: amountMinor,
		Currency:    currency,
	}, nil
}

func (g *Gateway) ComputeSignature(intentID, paymentID string) string {
	return g.signer.Sign(intentID, paymentID)
}

func (g *Gateway) VerifySignature(intentID, paymentID, signature string) bool {
	return g.signer.Verify(intentID, paymentID, signature)
}

func (g *Gateway) PublicKey() string { return KeyID }

// SetSuccessRate clamps rate to [0, 1].
func (g *Gateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.successRate = rate
	g.mu.Unlock()
}
