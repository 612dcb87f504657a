package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Action is a single move an agent can make in a round.
type Action string

const (
	ActionCooperate         Action = "cooperate"
	ActionDefect            Action = "defect"
	ActionShareKnowledge    Action = "share_knowledge"
	ActionWithholdKnowledge Action = "withhold_knowledge"
)

// Cooperative reports whether the action belongs to the cooperative class.
// Payoff lookups and analytics key off this classification, never off the
// literal action value.
func (a Action) Cooperative() bool {
	return a == ActionCooperate || a == ActionShareKnowledge
}

func (a Action) Valid() bool {
	switch a {
	case ActionCooperate, ActionDefect, ActionShareKnowledge, ActionWithholdKnowledge:
		return true
	default:
		return false
	}
}

type GameType string

const (
	GamePrisonersDilemma GameType = "prisoners_dilemma"
	GamePublicGoods      GameType = "public_goods"
	GameKnowledgeSharing GameType = "knowledge_sharing"
)

func (g GameType) Valid() bool {
	switch g {
	case GamePrisonersDilemma, GamePublicGoods, GameKnowledgeSharing:
		return true
	default:
		return false
	}
}

// Decision is the output of one decision provider call. Created once per
// agent per round and never mutated afterwards.
type Decision struct {
	Action           Action   `json:"action"`
	Reasoning        string   `json:"reasoning"`
	Confidence       float64  `json:"confidence"`
	KnowledgeToShare []string `json:"knowledge_to_share,omitempty"`
}

// RoundResult is the per-round record emitted for external sinks: who did
// what, what it paid, the full decision, and any knowledge that moved.
type RoundResult struct {
	Round                int                 `json:"round"`
	Actions              map[string]Action   `json:"actions"`
	Payoffs              map[string]float64  `json:"payoffs"`
	Decisions            map[string]Decision `json:"decisions"`
	KnowledgeTransferred map[string][]string `json:"knowledge_transferred,omitempty"`
}

// ActionRecord is one (agent, action) entry in a game's action history.
type ActionRecord struct {
	Agent  string `json:"agent"`
	Action Action `json:"action"`
}

// GameResult is the write-once snapshot emitted when a game completes.
type GameResult struct {
	VersionedRecord
	GameType          GameType           `json:"game_type"`
	Participants      []string           `json:"participants"`
	Rounds            int                `json:"rounds"`
	ActionsHistory    []ActionRecord     `json:"actions_history"`
	Payoffs           map[string]float64 `json:"payoffs"`
	CooperationRates  map[string]float64 `json:"cooperation_rates"`
	Winner            string             `json:"winner,omitempty"`
	AdditionalMetrics map[string]any     `json:"additional_metrics,omitempty"`
}

// MatchFailure records a match that aborted; the tournament carries on.
type MatchFailure struct {
	GameType     GameType `json:"game_type"`
	Participants []string `json:"participants"`
	Repetition   int      `json:"repetition"`
	Error        string   `json:"error"`
}

// ExperimentRecord nests every tournament's results keyed by game type,
// together with the agent registry metadata that produced them.
type ExperimentRecord struct {
	VersionedRecord
	ID             string                    `json:"id"`
	Description    string                    `json:"description,omitempty"`
	StartedAtUTC   string                    `json:"started_at_utc,omitempty"`
	CompletedAtUTC string                    `json:"completed_at_utc,omitempty"`
	Agents         map[string]string         `json:"agents"`
	Results        map[GameType][]GameResult `json:"results"`
	Failures       []MatchFailure            `json:"failures,omitempty"`
}

// AgentProfile is a persistable snapshot of one agent's accumulated state.
type AgentProfile struct {
	VersionedRecord
	Name            string             `json:"name"`
	Strategy        string             `json:"strategy"`
	TrustScores     map[string]float64 `json:"trust_scores,omitempty"`
	Reputation      float64            `json:"reputation"`
	KnowledgeCount  int                `json:"knowledge_count"`
	RoundsRecorded  int                `json:"rounds_recorded"`
	AveragePayoff   float64            `json:"average_payoff"`
	CooperationRate float64            `json:"cooperation_rate"`
}
