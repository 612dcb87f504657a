package strategy

import (
	"math/rand"

	"agon/internal/model"
)

// echo maps an opponent action onto the cooperative/defect axis. Knowledge
// actions echo as their class, so tit-for-tat style policies work unchanged
// across game types.
func echo(a model.Action) model.Action {
	if a.Cooperative() {
		return model.ActionCooperate
	}
	return model.ActionDefect
}

// constant always plays the same action. Covers both the unconditional
// cooperator and the unconditional defector.
type constant struct {
	history
	name   string
	action model.Action
}

func (s *constant) Name() string { return s.name }

func (s *constant) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	return s.action
}

// titForTat opens with cooperation and then mirrors the opponent's last
// action.
type titForTat struct {
	history
}

func (s *titForTat) Name() string { return NameTitForTat }

func (s *titForTat) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	if round == 0 || opponentLast == "" {
		return model.ActionCooperate
	}
	return echo(opponentLast)
}

// generousTitForTat mirrors like tit-for-tat but forgives a defection with
// fixed probability, breaking mutual-retaliation cycles.
type generousTitForTat struct {
	history
	forgiveness float64
	rng         *rand.Rand
}

func (s *generousTitForTat) Name() string { return NameGenerousTitForTat }

func (s *generousTitForTat) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	if round == 0 || opponentLast == "" {
		return model.ActionCooperate
	}
	if !opponentLast.Cooperative() && s.rng.Float64() < s.forgiveness {
		return model.ActionCooperate
	}
	return echo(opponentLast)
}

// pavlov is win-stay/lose-shift: repeat the previous action when the last
// payoff met the win threshold, otherwise switch.
type pavlov struct {
	history
	winThreshold float64
	lastAction   model.Action
}

func (s *pavlov) Name() string { return NamePavlov }

func (s *pavlov) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	action := model.ActionCooperate
	if round > 0 && len(s.payoffs) > 0 {
		action = echo(s.lastAction)
		if s.payoffs[len(s.payoffs)-1] < s.winThreshold {
			if action == model.ActionCooperate {
				action = model.ActionDefect
			} else {
				action = model.ActionCooperate
			}
		}
	}
	s.lastAction = action
	return action
}

func (s *pavlov) Reset() {
	s.history.Reset()
	s.lastAction = model.ActionCooperate
}

// grudger cooperates until the opponent defects once, then defects for the
// rest of the match. Only Reset clears the grudge.
type grudger struct {
	history
	betrayed bool
}

func (s *grudger) Name() string { return NameGrudger }

func (s *grudger) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	if round > 0 && opponentLast != "" && !opponentLast.Cooperative() {
		s.betrayed = true
	}
	if s.betrayed {
		return model.ActionDefect
	}
	return model.ActionCooperate
}

func (s *grudger) Reset() {
	s.history.Reset()
	s.betrayed = false
}

// adaptive keeps a cooperation probability and nudges it each round from the
// trailing five observations: raise it when recent payoffs are good, pull it
// toward the opponent's recent cooperation rate otherwise. A small
// exploration rate keeps the policy from locking in.
type adaptive struct {
	history
	learningRate    float64
	explorationRate float64
	coopProbability float64
	rng             *rand.Rand
}

func (s *adaptive) Name() string { return NameAdaptive }

const adaptiveWindow = 5

func (s *adaptive) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	if round == 0 {
		return model.ActionCooperate
	}

	if n := len(s.payoffs); n > 0 {
		start := n - adaptiveWindow
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, p := range s.payoffs[start:] {
			sum += p
		}
		avg := sum / float64(n-start)

		// Middling payoffs leave the probability alone; only clear wins
		// raise it and clear losses pull it toward the opponent's rate.
		switch {
		case avg > 3.0:
			s.coopProbability += s.learningRate * 0.1
		case avg < 2.0:
			recent := s.theirs[start:]
			coop := 0
			for _, a := range recent {
				if a.Cooperative() {
					coop++
				}
			}
			oppRate := float64(coop) / float64(len(recent))
			s.coopProbability += (oppRate - 0.5) * s.learningRate
		}
		s.coopProbability = clamp01(s.coopProbability)
	}

	if s.rng.Float64() < s.explorationRate {
		if s.rng.Float64() < 0.5 {
			return model.ActionCooperate
		}
		return model.ActionDefect
	}
	if s.rng.Float64() < s.coopProbability {
		return model.ActionCooperate
	}
	return model.ActionDefect
}

func (s *adaptive) Reset() {
	s.history.Reset()
	s.coopProbability = 0.5
}

// randomChoice cooperates with a fixed probability.
type randomChoice struct {
	history
	coopProbability float64
	rng             *rand.Rand
}

func (s *randomChoice) Name() string { return NameRandom }

func (s *randomChoice) Decide(round int, opponentLast model.Action, ctx Context) model.Action {
	if s.rng.Float64() < s.coopProbability {
		return model.ActionCooperate
	}
	return model.ActionDefect
}
