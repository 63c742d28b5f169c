package sardis

import (
	"context"
	"log/slog"

	"github.com/sardis-labs/core/config"
	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/ledger"
	"github.com/sardis-labs/core/orchestrator"
	"github.com/sardis-labs/core/plugin"
	"github.com/sardis-labs/core/risk"
	"github.com/sardis-labs/core/settlement"
	"github.com/sardis-labs/core/store"
	"github.com/sardis-labs/core/types"
	"github.com/sardis-labs/core/wallet"
	"github.com/sardis-labs/core/webhook"
)

// Option configures a Platform at construction time.
type Option func(*Platform)

// WithConfig replaces the platform's default configuration.
func WithConfig(cfg config.Config) Option {
	return func(p *Platform) { p.cfg = cfg }
}

// WithLogger overrides the logger handed to every wired component.
func WithLogger(l *slog.Logger) Option {
	return func(p *Platform) { p.logger = l }
}

// WithPlugin registers a lifecycle plugin. Registration happens during
// New, before Start; a registration error is discarded, and an error
// returned from a plugin's OnInit hook is logged without failing Start.
func WithPlugin(pl plugin.Plugin) Option {
	return func(p *Platform) { p.pendingPlugins = append(p.pendingPlugins, pl) }
}

// WithSettlementDriver attaches an on-chain settlement driver. Without
// one, New uses a SimulatedDriver when config.SettlementChain is set;
// with neither, Settlement().Settle is a no-op.
func WithSettlementDriver(d settlement.Driver) Option {
	return func(p *Platform) { p.settlementDriver = d }
}

// WithRiskRules replaces the default risk rule set.
func WithRiskRules(rules []risk.Rule) Option {
	return func(p *Platform) { p.riskRules = rules }
}

// Platform wires together every Sardis subsystem over a caller-supplied
// store: the ledger engine, the L3 orchestrator, the webhook fan-out
// manager, the plugin registry, the risk engine, and the optional
// settlement recorder.
type Platform struct {
	cfg    config.Config
	logger *slog.Logger

	store        store.Store
	ledger       *ledger.Engine
	riskEngine   *risk.Engine
	riskProfiles *risk.MemoryProfileStore
	webhooks     *webhook.Manager
	plugins      *plugin.Registry
	settlement   *settlement.Recorder
	orchestrator *orchestrator.Orchestrator

	treasuryWallet id.WalletID

	pendingPlugins   []plugin.Plugin
	riskRules        []risk.Rule
	settlementDriver settlement.Driver

	started bool
}

// New wires a Platform over st. Nothing is migrated or started yet —
// call Start before routing any traffic through Orchestrator().
func New(st store.Store, opts ...Option) *Platform {
	p := &Platform{
		cfg:    config.DefaultConfig(),
		logger: slog.Default(),
		store:  st,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ledger = ledger.NewEngine(
		ledger.WithPersister(st),
		ledger.WithLogger(p.logger),
	)

	if len(p.riskRules) == 0 {
		p.riskRules = defaultRiskRules()
	}
	p.riskEngine = risk.NewEngine(p.riskRules,
		risk.WithReviewThreshold(p.cfg.RiskReviewThreshold),
		risk.WithBlockThreshold(p.cfg.RiskBlockThreshold),
	)
	p.riskProfiles = risk.NewMemoryProfileStore()

	p.plugins = plugin.NewRegistry().WithLogger(p.logger)
	for _, pl := range p.pendingPlugins {
		// Registration errors are discarded so that a bad plugin does
		// not prevent the rest of the platform from being constructed.
		_ = p.plugins.Register(pl)
	}

	workers := p.cfg.WebhookWorkers
	if workers <= 0 {
		workers = 4
	}
	queueSize := p.cfg.WebhookQueueSize
	if queueSize <= 0 {
		queueSize = 4096
	}
	p.webhooks = webhook.NewManager(
		webhook.WithLogger(p.logger),
		webhook.WithWorkers(workers),
		webhook.WithQueueSize(queueSize),
	)

	driver := p.settlementDriver
	if driver == nil && p.cfg.SettlementChain != "" {
		driver = settlement.NewSimulatedDriver(p.cfg.SettlementChain)
	}
	p.settlement = settlement.NewRecorder(driver)

	p.treasuryWallet = p.resolveTreasuryWallet()

	fee := orchestrator.NewFlatFeePricer(map[string]types.Money{})
	if p.cfg.DefaultFeeAmount != "" {
		if amt, err := types.FromString(p.cfg.DefaultFeeAmount, "usdc"); err == nil {
			fee = orchestrator.NewFlatFeePricer(map[string]types.Money{"usdc": amt})
		}
	}

	p.orchestrator = orchestrator.New(p.ledger, st, st, st,
		orchestrator.WithLogger(p.logger),
		orchestrator.WithFeePricer(fee),
		orchestrator.WithHoldStore(st),
		orchestrator.WithEvents(p.webhooks),
		orchestrator.WithPolicyStore(st),
		orchestrator.WithRiskEngine(p.riskEngine),
		orchestrator.WithRiskProfiles(p.riskProfiles),
		orchestrator.WithFeeWallet(p.treasuryWallet),
	)

	return p
}

// resolveTreasuryWallet parses the configured treasury wallet ID, or
// mints a fresh one and persists it as a platform-owned merchant wallet
// when none was configured.
func (p *Platform) resolveTreasuryWallet() id.WalletID {
	if p.cfg.PlatformTreasuryWallet != "" {
		if w, err := id.ParseWalletID(p.cfg.PlatformTreasuryWallet); err == nil {
			return w
		}
		p.logger.Warn("sardis: ignoring unparsable configured treasury wallet",
			"value", p.cfg.PlatformTreasuryWallet)
	}

	treasury := wallet.New(id.NewMerchantID(), wallet.PrincipalMerchant)
	if err := p.store.SaveWallet(context.Background(), treasury); err != nil {
		p.logger.Warn("sardis: failed to persist generated treasury wallet", "error", err)
	}
	return treasury.ID
}

func defaultRiskRules() []risk.Rule {
	return []risk.Rule{
		risk.NewVelocityRule(),
		risk.NewAmountAnomalyRule(),
		risk.NewMerchantReputationRule(),
		risk.NewBehaviorFingerprintRule(),
		risk.NewFailurePatternRule(),
	}
}

// Start migrates the store and confirms connectivity. The webhook
// manager's delivery workers are already running by the time New
// returns, so Start has nothing left to do for them.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.store.Migrate(ctx); err != nil {
		return err
	}
	if err := p.store.Ping(ctx); err != nil {
		return err
	}
	p.plugins.EmitInit(ctx, p.logger)
	p.started = true
	return nil
}

// Stop shuts down the webhook manager, notifies plugins, and closes the
// store. It is safe to call even if Start was never called.
func (p *Platform) Stop(ctx context.Context) error {
	p.plugins.EmitShutdown(ctx)
	p.webhooks.Close()
	p.started = false
	return p.store.Close()
}

// Orchestrator returns the wired L3 payment orchestrator.
func (p *Platform) Orchestrator() *orchestrator.Orchestrator { return p.orchestrator }

// Webhooks returns the wired webhook subscription and delivery manager.
func (p *Platform) Webhooks() *webhook.Manager { return p.webhooks }

// Plugins returns the plugin registry so callers can register
// additional plugins after construction (e.g. once a dependency only
// available post-Start exists).
func (p *Platform) Plugins() *plugin.Registry { return p.plugins }

// Settlement returns the on-chain settlement recorder.
func (p *Platform) Settlement() *settlement.Recorder { return p.settlement }

// Risk returns the wired risk engine.
func (p *Platform) Risk() *risk.Engine { return p.riskEngine }

// TreasuryWallet returns the wallet ID collecting every payment's fee.
func (p *Platform) TreasuryWallet() id.WalletID { return p.treasuryWallet }

// Store returns the underlying store.
func (p *Platform) Store() store.Store { return p.store }
