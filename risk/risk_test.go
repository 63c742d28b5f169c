package risk

import (
	"context"
	"testing"

	"github.com/sardis-labs/core/types"
	"github.com/stretchr/testify/require"
)

func defaultEngine() *Engine {
	return NewEngine([]Rule{
		NewVelocityRule(),
		NewAmountAnomalyRule(),
		NewMerchantReputationRule(),
		NewBehaviorFingerprintRule(),
		NewFailurePatternRule(),
	})
}

// S10: transactions_last_hour = 45 against a 20/hour limit (2.25x) must
// trigger the velocity rule's DENY and the pipeline's final DENY.
func TestRiskS10VelocityDeny(t *testing.T) {
	e := defaultEngine()
	pc := Context{
		Agent: AgentProfile{
			TransactionsLastHour: 45,
			AverageAmount:        types.USDC("10.00"),
		},
		Amount: types.USDC("10.00"),
	}

	d := e.Evaluate(context.Background(), pc)
	require.Equal(t, ActionDeny, d.Action)

	var velocity *Result
	for _, r := range d.Results {
		if r.RuleName == "velocity" {
			velocity = r
		}
	}
	require.NotNil(t, velocity)
	require.Equal(t, ActionDeny, velocity.Action)
}

func TestRiskApproveCleanAgent(t *testing.T) {
	e := defaultEngine()
	pc := Context{
		Agent: AgentProfile{
			TransactionsLastHour: 1,
			TransactionsLastDay:  3,
			AverageAmount:        types.USDC("20.00"),
		},
		Merchant: &MerchantProfile{Found: true, TrustScore: 80, AgeDays: 400, Verified: true},
		Amount:   types.USDC("15.00"),
	}

	d := e.Evaluate(context.Background(), pc)
	require.Equal(t, ActionApprove, d.Action)
}

func TestRiskUnknownMerchantReview(t *testing.T) {
	e := defaultEngine()
	pc := Context{
		Amount: types.USDC("10.00"),
	}

	d := e.Evaluate(context.Background(), pc)
	require.NotEqual(t, ActionApprove, d.Action)
}

func TestRiskAmountAnomalyExtremeDeviation(t *testing.T) {
	e := defaultEngine()
	pc := Context{
		Agent: AgentProfile{
			HistoryCount:  10,
			AverageAmount: types.USDC("10.00"),
		},
		Amount: types.USDC("500.00"), // 50x average, well past extreme_deviation threshold
	}

	d := e.Evaluate(context.Background(), pc)
	require.Equal(t, ActionDeny, d.Action)
}

func TestRiskFailurePatternHighRate(t *testing.T) {
	e := defaultEngine()
	pc := Context{
		Agent: AgentProfile{
			HistoryCount: 10,
			FailureCount: 5, // 50% failure rate
			AverageAmount: types.USDC("10.00"),
		},
		Amount: types.USDC("10.00"),
	}

	d := e.Evaluate(context.Background(), pc)
	require.Equal(t, ActionDeny, d.Action)
}

func TestAggregationFormula(t *testing.T) {
	// One rule with weight 1, verifies
	// final_score = weighted_total / weight_total (not ×100 again).
	e := NewEngine([]Rule{NewMerchantReputationRule()})
	pc := Context{Merchant: &MerchantProfile{Found: true, TrustScore: 10}} // very_low_trust: +30, DENY; new_merchant (AgeDays 0): +15

	d := e.Evaluate(context.Background(), pc)
	require.InDelta(t, 45.0, d.FinalScore, 0.01)
	require.Equal(t, ActionDeny, d.Action)
}
