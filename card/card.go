// Package card implements the virtual-card payment-identity metadata
// attached to a wallet, per spec §3. A card is a view onto its wallet plus
// local limits and pending-authorization accounting — it never holds funds
// independently.
package card

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

// State is the card lifecycle state machine.
type State string

const (
	StateActive    State = "ACTIVE"
	StateSuspended State = "SUSPENDED"
	StateCancelled State = "CANCELLED"
	StateExpired   State = "EXPIRED"
)

// Card is virtual-card metadata attached to a wallet.
type Card struct {
	types.Entity

	ID       id.CardID   `json:"id"`
	WalletID id.WalletID `json:"wallet_id"`

	Number    string    `json:"number"` // 16 digits, valid Luhn check digit
	ExpiresAt time.Time `json:"expires_at"`

	PerTxLimit  types.Money `json:"per_tx_limit,omitempty"`
	DailyLimit  types.Money `json:"daily_limit,omitempty"`
	DailySpent  types.Money `json:"daily_spent"`
	DailyWindow time.Time   `json:"daily_window_start"`

	State State `json:"state"`
}

// New synthesizes a new virtual card for walletID with a random 16-digit
// Luhn-valid number and the given validity period.
func New(walletID id.WalletID, validFor time.Duration) *Card {
	now := time.Now().UTC()
	return &Card{
		Entity:      types.NewEntity(),
		ID:          id.NewCardID(),
		WalletID:    walletID,
		Number:      synthesizeNumber(),
		ExpiresAt:   now.Add(validFor),
		DailyWindow: now,
		State:       StateActive,
	}
}

// synthesizeNumber generates a 16-digit numeric string whose final digit
// is a valid Luhn check digit. The leading digits are drawn from a
// reserved test-only BIN range (999) so synthesized numbers can never
// collide with a real card network's issuance.
func synthesizeNumber() string {
	const prefix = "999"
	digits := make([]int, 15)
	copy(digits, []int{9, 9, 9})
	for i := len(prefix); i < 15; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(fmt.Sprintf("card: random digit generation failed: %v", err))
		}
		digits[i] = int(n.Int64())
	}
	check := luhnCheckDigit(digits)
	out := make([]byte, 16)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	out[15] = byte('0' + check)
	return string(out)
}

// luhnCheckDigit computes the Luhn check digit for the given 15 leading
// digits (without the check digit itself).
func luhnCheckDigit(digits []int) int {
	sum := 0
	// Doubling starts from the rightmost of the 15 digits, since once the
	// check digit is appended at position 1 from the right, that digit
	// sits at position 2 (an even position from the right).
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		position := len(digits) - i // 1-indexed from the right, excluding check digit
		if position%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - (sum % 10)) % 10
}

// ValidLuhn reports whether number passes the Luhn checksum.
func ValidLuhn(number string) bool {
	sum := 0
	alt := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// IsUsable reports whether the card can authorize a new transaction right
// now: it must be ACTIVE and not past its expiry.
func (c *Card) IsUsable(now time.Time) bool {
	if c.State != StateActive {
		return false
	}
	if now.After(c.ExpiresAt) {
		return false
	}
	return true
}

// ResetDailyWindowIfExpired clears DailySpent when the 24h window has
// elapsed, mirroring the spending-policy's lazy time-window reset.
func (c *Card) ResetDailyWindowIfExpired(now time.Time) {
	if now.Sub(c.DailyWindow) >= 24*time.Hour {
		c.DailySpent = types.Zero(c.DailySpent.Currency)
		c.DailyWindow = now
	}
}

// CanAuthorize reports whether amount respects both the per-tx and the
// (lazily-reset) daily limit.
func (c *Card) CanAuthorize(amount types.Money, now time.Time) bool {
	c.ResetDailyWindowIfExpired(now)
	if !c.PerTxLimit.IsZero() && amount.GreaterThan(c.PerTxLimit) {
		return false
	}
	spent := c.DailySpent
	if spent.Currency == "" {
		spent = types.Zero(amount.Currency)
	}
	if !c.DailyLimit.IsZero() && spent.Add(amount).GreaterThan(c.DailyLimit) {
		return false
	}
	return true
}

// RecordAuthorization books amount against the daily spent counter.
func (c *Card) RecordAuthorization(amount types.Money, now time.Time) {
	c.ResetDailyWindowIfExpired(now)
	if c.DailySpent.Currency == "" {
		c.DailySpent = types.Zero(amount.Currency)
	}
	c.DailySpent = c.DailySpent.Add(amount)
	c.Touch()
}

// Suspend transitions the card to SUSPENDED. No-op if already terminal.
func (c *Card) Suspend() {
	if c.State == StateCancelled || c.State == StateExpired {
		return
	}
	c.State = StateSuspended
	c.Touch()
}

// Reactivate transitions a SUSPENDED card back to ACTIVE.
func (c *Card) Reactivate() error {
	if c.State != StateSuspended {
		return fmt.Errorf("card: cannot reactivate from state %s", c.State)
	}
	c.State = StateActive
	c.Touch()
	return nil
}

// Cancel transitions the card to CANCELLED, a terminal state.
func (c *Card) Cancel() {
	c.State = StateCancelled
	c.Touch()
}

// ExpireIfDue transitions an ACTIVE/SUSPENDED card to EXPIRED once past
// ExpiresAt.
func (c *Card) ExpireIfDue(now time.Time) {
	if c.State == StateCancelled || c.State == StateExpired {
		return
	}
	if now.After(c.ExpiresAt) {
		c.State = StateExpired
		c.Touch()
	}
}

// MaskedNumber returns the card number with all but the last 4 digits
// redacted, suitable for logging or display.
func (c *Card) MaskedNumber() string {
	if len(c.Number) < 4 {
		return "****"
	}
	return "************" + c.Number[len(c.Number)-4:]
}
