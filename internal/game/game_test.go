package game

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"agon/internal/agent"
	"agon/internal/model"
	"agon/internal/strategy"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAgent(t *testing.T, name, strategyName string) *agent.Agent {
	t.Helper()
	a, err := agent.NewStrategyAgent(name, strategyName, strategy.Params{
		Rand: rand.New(rand.NewSource(42)),
	})
	if err != nil {
		t.Fatalf("NewStrategyAgent(%s, %s): %v", name, strategyName, err)
	}
	return a
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPrisonersDilemmaRequiresTwoAgents(t *testing.T) {
	g := NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()})
	agents := []*agent.Agent{newAgent(t, "solo", strategy.NameTitForTat)}
	if _, err := g.Play(context.Background(), agents, 5); err == nil {
		t.Fatalf("expected error for one participant")
	}
	if _, err := g.Play(context.Background(), nil, 5); err == nil {
		t.Fatalf("expected error for no participants")
	}
}

func TestPrisonersDilemmaExploitation(t *testing.T) {
	g := NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()})
	saint := newAgent(t, "saint", strategy.NameAlwaysCooperate)
	shark := newAgent(t, "shark", strategy.NameAlwaysDefect)

	result, err := g.Play(context.Background(), []*agent.Agent{saint, shark}, 10)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.Payoffs["saint"] != 0 || result.Payoffs["shark"] != 50 {
		t.Fatalf("expected payoffs 0/50, got %+v", result.Payoffs)
	}
	if result.Winner != "shark" {
		t.Fatalf("expected shark to win, got %q", result.Winner)
	}
	if result.CooperationRates["saint"] != 1 || result.CooperationRates["shark"] != 0 {
		t.Fatalf("unexpected cooperation rates: %+v", result.CooperationRates)
	}
	if len(result.ActionsHistory) != 20 {
		t.Fatalf("expected 20 action records, got %d", len(result.ActionsHistory))
	}
}

func TestPrisonersDilemmaMutualCooperationIsATie(t *testing.T) {
	g := NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()})
	a := newAgent(t, "a", strategy.NameAlwaysCooperate)
	b := newAgent(t, "b", strategy.NameAlwaysCooperate)

	result, err := g.Play(context.Background(), []*agent.Agent{a, b}, 7)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.Payoffs["a"] != 21 || result.Payoffs["b"] != 21 {
		t.Fatalf("expected 21/21, got %+v", result.Payoffs)
	}
	if result.Winner != "" {
		t.Fatalf("expected tie (empty winner), got %q", result.Winner)
	}

	summary, ok := result.AdditionalMetrics["game_summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing game_summary in metrics: %+v", result.AdditionalMetrics)
	}
	if rate, _ := summary["mutual_cooperation_rate"].(float64); rate != 1 {
		t.Fatalf("expected mutual cooperation rate 1, got %+v", summary)
	}
}

func TestPrisonersDilemmaTitForTatPunishesOnce(t *testing.T) {
	g := NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()})
	mirror := newAgent(t, "mirror", strategy.NameTitForTat)
	shark := newAgent(t, "shark", strategy.NameAlwaysDefect)

	const rounds = 10
	result, err := g.Play(context.Background(), []*agent.Agent{mirror, shark}, rounds)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Mirror loses only the opening round, then both defect.
	if result.Payoffs["mirror"] != rounds-1 {
		t.Fatalf("expected mirror payoff %d, got %v", rounds-1, result.Payoffs["mirror"])
	}
	if result.Payoffs["shark"] != 5+rounds-1 {
		t.Fatalf("expected shark payoff %d, got %v", 5+rounds-1, result.Payoffs["shark"])
	}
}

func TestPublicGoodsFullCooperationPayoffIndependentOfGroupSize(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		g := NewPublicGoods(PublicGoodsConfig{Logger: quietLogger()})
		agents := make([]*agent.Agent, n)
		names := []string{"a", "b", "c", "d", "e"}
		for i := range agents {
			agents[i] = newAgent(t, names[i], strategy.NameAlwaysCooperate)
		}

		result, err := g.Play(context.Background(), agents, 1)
		if err != nil {
			t.Fatalf("Play with %d agents: %v", n, err)
		}

		// Kept 0.2E plus an even split of the multiplied pool: 2 + 16.
		for _, a := range agents {
			if !almostEqual(result.Payoffs[a.Name], 18) {
				t.Fatalf("n=%d: expected payoff 18 for %s, got %v", n, a.Name, result.Payoffs[a.Name])
			}
			if !almostEqual(result.CooperationRates[a.Name], 0.8) {
				t.Fatalf("n=%d: expected contribution rate 0.8, got %v", n, result.CooperationRates[a.Name])
			}
		}
		if result.Winner != "a" {
			t.Fatalf("n=%d: expected deterministic tie-break to a, got %q", n, result.Winner)
		}
	}
}

func TestPublicGoodsFreeRiderOutscoresContributors(t *testing.T) {
	g := NewPublicGoods(PublicGoodsConfig{Logger: quietLogger()})
	agents := []*agent.Agent{
		newAgent(t, "giver1", strategy.NameAlwaysCooperate),
		newAgent(t, "giver2", strategy.NameAlwaysCooperate),
		newAgent(t, "rider", strategy.NameAlwaysDefect),
	}

	result, err := g.Play(context.Background(), agents, 5)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.Winner != "rider" {
		t.Fatalf("expected the free rider to win, got %q (payoffs %+v)", result.Winner, result.Payoffs)
	}
	if result.Payoffs["rider"] <= result.Payoffs["giver1"] {
		t.Fatalf("free riding should beat contributing: %+v", result.Payoffs)
	}

	metrics := result.AdditionalMetrics
	if _, ok := metrics["total_welfare"].(float64); !ok {
		t.Fatalf("expected total_welfare metric, got %+v", metrics)
	}
}

func TestKnowledgeSharingMutualSharersProfit(t *testing.T) {
	g := NewKnowledgeSharing(KnowledgeSharingConfig{
		Logger: quietLogger(),
		Rand:   rand.New(rand.NewSource(1)),
	})
	a := newAgent(t, "a", strategy.NameAlwaysCooperate)
	b := newAgent(t, "b", strategy.NameAlwaysCooperate)

	result, err := g.Play(context.Background(), []*agent.Agent{a, b}, 1)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Each pays 0.5 for its seeded item and earns 2.0 from the other's.
	if !almostEqual(result.Payoffs["a"], 1.5) || !almostEqual(result.Payoffs["b"], 1.5) {
		t.Fatalf("expected payoffs 1.5/1.5, got %+v", result.Payoffs)
	}
	if result.CooperationRates["a"] != 1 || result.CooperationRates["b"] != 1 {
		t.Fatalf("expected sharing rates 1/1, got %+v", result.CooperationRates)
	}
	if len(a.Knowledge()) != 2 || len(b.Knowledge()) != 2 {
		t.Fatalf("expected both knowledge bases to grow to 2, got %d/%d",
			len(a.Knowledge()), len(b.Knowledge()))
	}
}

func TestKnowledgeSharingTrustGateBlocksTransferButNotCost(t *testing.T) {
	g := NewKnowledgeSharing(KnowledgeSharingConfig{
		Logger: quietLogger(),
		Rand:   rand.New(rand.NewSource(1)),
	})
	sharer := newAgent(t, "sharer", strategy.NameAlwaysCooperate)
	outcast := newAgent(t, "outcast", strategy.NameAlwaysCooperate)

	// Drive the sharer's trust in the outcast below the gate.
	sharer.UpdateState("outcast", model.ActionDefect, 0, model.ActionCooperate)
	sharer.UpdateState("outcast", model.ActionDefect, 0, model.ActionCooperate)
	if trust := sharer.TrustScore("outcast"); trust > sharingTrustThreshold {
		t.Fatalf("setup failed: trust %v still above gate", trust)
	}

	result, err := g.Play(context.Background(), []*agent.Agent{sharer, outcast}, 1)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// The outcast pays its sharing cost but receives nothing; the sharer
	// still benefits because the outcast's trust in the sharer is intact.
	if !almostEqual(result.Payoffs["outcast"], -0.5) {
		t.Fatalf("expected outcast payoff -0.5, got %v", result.Payoffs["outcast"])
	}
	if !almostEqual(result.Payoffs["sharer"], 1.5) {
		t.Fatalf("expected sharer payoff 1.5, got %v", result.Payoffs["sharer"])
	}
	if len(outcast.Knowledge()) != 1 {
		t.Fatalf("expected no transfer to outcast, knowledge count %d", len(outcast.Knowledge()))
	}
}

func TestKnowledgeSharingWithholdersPayNothingAndGainNothing(t *testing.T) {
	g := NewKnowledgeSharing(KnowledgeSharingConfig{
		Logger: quietLogger(),
		Rand:   rand.New(rand.NewSource(1)),
	})
	a := newAgent(t, "a", strategy.NameAlwaysDefect)
	b := newAgent(t, "b", strategy.NameAlwaysDefect)

	result, err := g.Play(context.Background(), []*agent.Agent{a, b}, 3)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.Payoffs["a"] != 0 || result.Payoffs["b"] != 0 {
		t.Fatalf("expected zero payoffs for mutual withholding, got %+v", result.Payoffs)
	}
	if result.CooperationRates["a"] != 0 || result.CooperationRates["b"] != 0 {
		t.Fatalf("expected zero sharing rates, got %+v", result.CooperationRates)
	}
	if shared, _ := result.AdditionalMetrics["total_knowledge_shared"].(int); shared != 0 {
		t.Fatalf("expected no knowledge shared, got %+v", result.AdditionalMetrics)
	}
}

func TestPlayRoundEmitsRoundRecord(t *testing.T) {
	g := NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()})
	saint := newAgent(t, "saint", strategy.NameAlwaysCooperate)
	shark := newAgent(t, "shark", strategy.NameAlwaysDefect)
	agents := []*agent.Agent{saint, shark}

	first, err := g.PlayRound(context.Background(), agents)
	if err != nil {
		t.Fatalf("PlayRound: %v", err)
	}
	if first.Round != 1 {
		t.Fatalf("expected round 1, got %d", first.Round)
	}
	if first.Actions["saint"] != model.ActionCooperate || first.Actions["shark"] != model.ActionDefect {
		t.Fatalf("unexpected actions: %+v", first.Actions)
	}
	if first.Payoffs["saint"] != 0 || first.Payoffs["shark"] != 5 {
		t.Fatalf("unexpected payoffs: %+v", first.Payoffs)
	}
	if d, ok := first.Decisions["saint"]; !ok || d.Reasoning == "" {
		t.Fatalf("expected saint's decision with reasoning, got %+v", first.Decisions)
	}

	second, err := g.PlayRound(context.Background(), agents)
	if err != nil {
		t.Fatalf("PlayRound: %v", err)
	}
	if second.Round != 2 {
		t.Fatalf("expected round 2, got %d", second.Round)
	}
}

func TestCompletedGameRejectsFurtherRoundsUntilReset(t *testing.T) {
	g := NewPublicGoods(PublicGoodsConfig{Logger: quietLogger()})
	agents := []*agent.Agent{
		newAgent(t, "a", strategy.NameAlwaysCooperate),
		newAgent(t, "b", strategy.NameAlwaysDefect),
	}

	if _, err := g.Play(context.Background(), agents, 2); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, err := g.PlayRound(context.Background(), agents); err == nil {
		t.Fatal("expected completed game to reject PlayRound")
	}

	g.Reset()
	result, err := g.PlayRound(context.Background(), agents)
	if err != nil {
		t.Fatalf("PlayRound after Reset: %v", err)
	}
	if result.Round != 1 {
		t.Fatalf("expected round counter back to 1, got %d", result.Round)
	}
}

func TestGamesRejectNonPositiveRounds(t *testing.T) {
	agents := []*agent.Agent{
		newAgent(t, "a", strategy.NameTitForTat),
		newAgent(t, "b", strategy.NameTitForTat),
	}
	games := []Game{
		NewPrisonersDilemma(PrisonersDilemmaConfig{Logger: quietLogger()}),
		NewPublicGoods(PublicGoodsConfig{Logger: quietLogger()}),
		NewKnowledgeSharing(KnowledgeSharingConfig{Logger: quietLogger()}),
	}
	for _, g := range games {
		if _, err := g.Play(context.Background(), agents, 0); err == nil {
			t.Fatalf("%s accepted zero rounds", g.Type())
		}
	}
}
