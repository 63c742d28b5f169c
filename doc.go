// Package sardis provides the transactional core of a programmable
// stablecoin payment platform for autonomous software agents.
//
// Sardis is designed as a library, not a service. Import it directly into
// your Go application and wire an HTTP surface, an LLM-driven agent
// orchestrator, or a CLI on top of it. It provides:
//
//   - An append-only, hash-chained double-entry ledger with multi-currency
//     balances, reserved (held) funds, refunds, and periodic checkpoints.
//   - A payment pipeline layered over the ledger: idempotency, fee
//     computation, pre-authorization holds, and partial/full refunds.
//   - A policy and risk engine that runs before every payment: a weighted
//     composable rule set plus a declarative spending-policy evaluator.
//   - A webhook fan-out subsystem delivering signed, at-least-once event
//     notifications with bounded retries.
//
// # Quick start
//
// Construct a Platform with a store and start it:
//
//	import (
//	    "github.com/sardis-labs/core"
//	    "github.com/sardis-labs/core/store/memory"
//	)
//
//	st := memory.New()
//	p := sardis.New(st)
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop(ctx)
//
//	result := p.Orchestrator().Pay(ctx, orchestrator.PayRequest{
//	    AgentID:         agentID,
//	    Amount:          types.USDC("25.00"),
//	    RecipientWallet: recipientWalletID,
//	})
//
// # Core concepts
//
// Agents and merchants each own exactly one wallet. Wallets hold decimal
// balances per currency, kept by the ledger engine — the only component
// permitted to mutate a monetary balance.
//
// Payments flow through the orchestrator, which consults the spending
// policy and risk engine before ever touching the ledger, then commits
// an atomic, hash-chained transfer and emits lifecycle events both as
// in-process plugin hooks and as signed webhook deliveries.
//
// # Identifiers
//
// All entities use TypeID for globally unique, type-safe, K-sortable
// identifiers:
//
//	wal_01h2xcejqtf2nbrexx3vqjhp41  // Wallet ID
//	agt_01h2xcejqtf2nbrexx3vqjhp41  // Agent ID
//	txn_01h455vb4pex5vsknk084sn02q  // Transaction ID
//
// # Monetary values
//
// All monetary calculations use arbitrary-precision decimal arithmetic
// (github.com/shopspring/decimal) — never floating point — so a single
// Money value can represent both a sub-cent agent micropayment and a
// nine-figure settlement balance without loss of precision.
package sardis
