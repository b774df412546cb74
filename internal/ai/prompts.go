// internal/ai/prompts.go
//
// Prompt construction for the AI player. Two kinds of call:
//   - free-text commentary (thinking out loud, advisory hints), and
//   - schema-constrained decisions (a clue, or a card pick).
//
// Board context is filtered by seat knowledge: spymaster prompts include
// hidden identities, operative and advisory prompts only the unrevealed
// words.

package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/llm"
)

// probePrompt and probeExpect implement the pre-join readiness check: the
// provider must echo the exact token back.
const (
	probePrompt = `Reply with the single word READY and nothing else.`
	probeExpect = "READY"
)

const systemPersona = `You are a Codenames player in an online lobby. Be concise and conversational; never reveal information your seat is not allowed to know.`

// clueSchema constrains the autonomous spymaster decision call.
var clueSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "clue":   {"type": "string", "description": "a single word, not on the board"},
    "number": {"type": "integer", "minimum": 0, "maximum": 9}
  },
  "required": ["clue", "number"],
  "additionalProperties": false
}`)

// guessSchema constrains the autonomous operative decision call.
var guessSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "cardWord":   {"type": "string", "description": "an unrevealed word copied exactly from the board"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "reasoning":  {"type": "string"}
  },
  "required": ["cardWord", "confidence", "reasoning"],
  "additionalProperties": false
}`)

// clueDecision is the parsed spymaster decision payload.
type clueDecision struct {
	Clue   string `json:"clue"`
	Number int    `json:"number"`
}

// guessDecision is the parsed operative decision payload.
type guessDecision struct {
	CardWord   string  `json:"cardWord"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// fullBoard renders every card with its hidden identity (spymaster view).
func fullBoard(s *game.State) string {
	var b strings.Builder
	for _, c := range s.Cards {
		status := ""
		if c.Revealed {
			status = ", revealed"
		}
		fmt.Fprintf(&b, "- %s (%s%s)\n", c.Word, c.Type, status)
	}
	return b.String()
}

// visibleBoard renders only the unrevealed words (operative view).
func visibleBoard(s *game.State) string {
	var b strings.Builder
	for _, c := range s.Cards {
		if !c.Revealed {
			b.WriteString("- " + c.Word + "\n")
		}
	}
	return b.String()
}

// clueHistory renders past clues with their outcomes.
func clueHistory(s *game.State) string {
	if len(s.ClueHistory) == 0 {
		return "(no clues yet)\n"
	}
	var b strings.Builder
	for _, c := range s.ClueHistory {
		fmt.Fprintf(&b, "%s: %q for %d", c.Team.Label(), c.Word, c.Number)
		for _, r := range c.Results {
			fmt.Fprintf(&b, "; %s -> %s", r.Word, r.Result)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func spymasterThinkMessages(s *game.State, team game.Team) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"You are the %s Spymaster. The full board, including hidden identities, is:\n%s\nClue history:\n%s\nShare a short in-character remark about how this turn looks for your team. Do NOT state any hidden identity or your planned clue.",
			team.Label(), fullBoard(s), clueHistory(s))},
	}
}

func spymasterClueMessages(s *game.State, team game.Team) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"You are the %s Spymaster. The full board, including hidden identities, is:\n%s\nClue history:\n%s\nChoose your clue: one word that is not on the board, plus how many of your team's words it points at (0-9).",
			team.Label(), fullBoard(s), clueHistory(s))},
	}
}

func operativeThinkMessages(s *game.State, team game.Team) []llm.Message {
	clue := "(none)"
	if s.CurrentClue != nil {
		clue = fmt.Sprintf("%q for %d", s.CurrentClue.Word, s.CurrentClue.Number)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"You are a %s operative. The clue is %s, with %d guess(es) remaining. Unrevealed words:\n%s\nClue history:\n%s\nThink out loud briefly about which word fits best.",
			team.Label(), clue, s.GuessesRemaining, visibleBoard(s), clueHistory(s))},
	}
}

func operativeGuessMessages(s *game.State, team game.Team) []llm.Message {
	clue := "(none)"
	if s.CurrentClue != nil {
		clue = fmt.Sprintf("%q for %d", s.CurrentClue.Word, s.CurrentClue.Number)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"You are a %s operative. The clue is %s. Unrevealed words:\n%s\nPick the single unrevealed word that best matches the clue. Copy it exactly.",
			team.Label(), clue, visibleBoard(s))},
	}
}

func advisorMessages(s *game.State, team game.Team) []llm.Message {
	clue := "(none)"
	if s.CurrentClue != nil {
		clue = fmt.Sprintf("%q for %d", s.CurrentClue.Word, s.CurrentClue.Number)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"You are helping the %s operatives. The clue is %s, with %d guess(es) remaining. Unrevealed words:\n%s\nClue history:\n%s\nSuggest which word(s) to consider and why, in a couple of sentences.",
			team.Label(), clue, s.GuessesRemaining, visibleBoard(s), clueHistory(s))},
	}
}

