package sim

// Outcome classifies how a request left the simulation.
type Outcome string

const (
	OutcomeFraudBlocked Outcome = "fraud-blocked" // FRAUD intercepted at an entry filter
	OutcomeFraudPassed  Outcome = "fraud-passed"  // FRAUD failed anywhere without being blocked
	OutcomeCompleted    Outcome = "completed"     // reached and matched a terminal node
	OutcomeFailed       Outcome = "failed"        // non-fraud failure of any kind
)

// failureOutcome maps a failed request to its scoring category.
func failureOutcome(t RequestType) Outcome {
	if t == RequestFraud {
		return OutcomeFraudPassed
	}
	return OutcomeFailed
}

// Score is the score breakdown shown to the player.
type Score struct {
	Web          int     `json:"web"`
	API          int     `json:"api"`
	FraudBlocked int     `json:"fraud_blocked"`
	Total        float64 `json:"total"`
}

// Ledger holds money, reputation, and score, and applies outcome effects.
// Reputation is clamped only from above, and only by clampReputation; the
// lower bound is enforced by the game-over check.
type Ledger struct {
	Money             float64
	Reputation        float64
	Score             Score
	RequestsProcessed int

	cfg EconomyConfig
}

// NewLedger creates a Ledger at the configured starting budget and reputation.
func NewLedger(cfg EconomyConfig) *Ledger {
	return &Ledger{
		Money:      cfg.StartBudget,
		Reputation: cfg.StartReputation,
		cfg:        cfg,
	}
}

// Apply records the economic effect of one outcome for a request of type t.
func (l *Ledger) Apply(outcome Outcome, t RequestType) {
	p := l.cfg.Points
	switch outcome {
	case OutcomeFraudBlocked:
		l.Score.FraudBlocked += p.FraudBlockedScore
		l.Score.Total += float64(p.FraudBlockedScore)
	case OutcomeFraudPassed:
		l.Reputation += p.FraudPassedReputation
	case OutcomeCompleted:
		l.RequestsProcessed++
		switch t {
		case RequestWeb:
			l.Score.Web += p.WebScore
			l.Score.Total += float64(p.WebScore)
			l.Money += p.WebReward
		case RequestAPI:
			l.Score.API += p.APIScore
			l.Score.Total += float64(p.APIScore)
			l.Money += p.APIReward
		}
	case OutcomeFailed:
		l.Reputation += p.FailReputation
		// Any type other than API deducts using the WEB base score.
		base := p.WebScore
		if t == RequestAPI {
			base = p.APIScore
		}
		l.Score.Total -= float64(base) / 2
	}
}

// CanAfford reports whether the ledger covers cost.
func (l *Ledger) CanAfford(cost int) bool {
	return l.Money >= float64(cost)
}

func (l *Ledger) clampReputation() {
	if l.Reputation > l.cfg.MaxReputation {
		l.Reputation = l.cfg.MaxReputation
	}
}

// Exhausted reports whether reputation or money crossed its game-over threshold.
func (l *Ledger) Exhausted() bool {
	return l.Reputation <= 0 || l.Money <= l.cfg.MoneyFloor
}
