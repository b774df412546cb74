// internal/game/engine.go
//
// The in-match state machine.
// Responsibilities:
//   - Role claiming during role-selection (first claim wins).
//   - Clue validation and submission (spymaster phase).
//   - Guess resolution with win detection (operatives phase).
//   - Turn handover and the terminal ended phase.
//
// Every operation is a pure mutation of *State and returns a typed error on
// rejection. Callers run these inside a store transaction, which is what makes
// the at-most-once card reveal hold under concurrent clients: the revealed
// flag is re-checked against a freshly read document, and a lost race aborts
// the transaction instead of double-resolving the card.
//
// State transitions:
//   waiting → role-selection → spymaster ⇄ operatives → ended

package game

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxClueNumber is the largest guess count a clue may carry.
const MaxClueNumber = 9

// maxChatLen bounds a single chat message.
const maxChatLen = 500

// maxChatKept bounds the chat feed retained on the document.
const maxChatKept = 200

// SelectRole claims a role for a seated player during role-selection.
//
// Spymaster claims are first-come-first-served: if the seat is already held
// by someone else the call is a silent no-op, since many clients race for it
// and losing the race is not an error. Once both teams have a spymaster the
// match advances to the spymaster phase.
func (s *State) SelectRole(team Team, role Role, playerID string) error {
	if !team.Valid() {
		return errValidation("unknown team %q", team)
	}
	if role != RoleSpymaster && role != RoleOperative {
		return errValidation("unknown role %q", role)
	}
	if s.CurrentPhase != PhaseRoleSelection {
		return errPrecondition("roles can only be picked during role selection")
	}
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	if pt, playing := seat.PlayingTeam(); !playing || pt != team {
		return errPrecondition("player is not seated on the %s team", team)
	}

	switch role {
	case RoleSpymaster:
		switch s.Spymaster(team) {
		case "":
			s.setSpymaster(team, p.Name)
			p.Role = RoleSpymaster
			s.appendLog(fmt.Sprintf("%s is the %s Spymaster", p.Name, team.Label()))
		case p.Name:
			// Re-claiming your own seat is idempotent.
		default:
			// Lost the race; someone else already holds the seat.
			return nil
		}
	case RoleOperative:
		if s.Spymaster(team) == p.Name {
			return errPrecondition("the claimed spymaster cannot switch to operative")
		}
		p.Role = RoleOperative
	}

	if s.RedSpymaster != "" && s.BlueSpymaster != "" {
		s.CurrentPhase = PhaseSpymaster
		s.appendLog(fmt.Sprintf("Both spymasters are set. %s goes first.", s.CurrentTeam.Label()))
	}
	return nil
}

// SubmitClue validates and records a spymaster clue, then hands the turn to
// the operatives. A valid clue is a single whitespace-free token that does not
// match any board word (revealed or not, case-insensitive), with a number in
// [0, MaxClueNumber]. Operatives get number+1 guesses.
func (s *State) SubmitClue(team Team, word string, number int, playerID string) error {
	if !team.Valid() {
		return errValidation("unknown team %q", team)
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return errValidation("clue word is empty")
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return errValidation("clue must be a single word")
	}
	if number < 0 || number > MaxClueNumber {
		return errValidation("clue number must be between 0 and %d", MaxClueNumber)
	}
	if s.Cards.HasWord(word) {
		return errValidation("clue %q is a board word", word)
	}

	if s.CurrentPhase != PhaseSpymaster {
		return errPrecondition("clues can only be given during the spymaster phase")
	}
	if team != s.CurrentTeam {
		return errPrecondition("it is not the %s team's turn", team)
	}
	p, _, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	if s.Spymaster(team) != p.Name {
		return errPrecondition("only the %s Spymaster may give clues", team.Label())
	}

	clue := Clue{
		Team:    team,
		Word:    strings.ToUpper(word),
		Number:  number,
		Results: []GuessResult{},
	}
	s.CurrentClue = &clue
	s.ClueHistory = append(s.ClueHistory, clue)
	s.GuessesRemaining = number + 1
	s.CurrentPhase = PhaseOperatives
	s.appendLog(fmt.Sprintf("%s Spymaster: %q for %d", team.Label(), clue.Word, number))
	return nil
}

// GuessCard reveals the card at cardIndex on behalf of the current team and
// resolves the outcome. The unrevealed check is the precondition that makes
// simultaneous guesses at the same card resolve at most once.
func (s *State) GuessCard(cardIndex int, playerID string) error {
	if cardIndex < 0 || cardIndex >= len(s.Cards) {
		return errValidation("card index %d out of range", cardIndex)
	}
	if s.CurrentPhase != PhaseOperatives {
		return errPrecondition("guesses can only be made during the operatives phase")
	}
	if s.Winner != "" {
		return errPrecondition("the match is over")
	}
	card := &s.Cards[cardIndex]
	if card.Revealed {
		return errPrecondition("card %q is already revealed", card.Word)
	}
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	if pt, playing := seat.PlayingTeam(); !playing || pt != s.CurrentTeam {
		return errPrecondition("it is not your team's turn")
	}

	card.Revealed = true
	team := s.CurrentTeam

	var outcome GuessOutcome
	switch card.Type {
	case CardAssassin:
		outcome = GuessAssassin
	case TeamCard(team):
		outcome = GuessCorrect
	case CardNeutral:
		outcome = GuessNeutral
	default:
		outcome = GuessWrong
	}
	s.recordGuess(GuessResult{
		Word:      card.Word,
		Result:    outcome,
		Type:      card.Type,
		By:        p.Name,
		Timestamp: time.Now().UTC(),
	})
	s.appendLog(fmt.Sprintf("%s guessed %q: %s", p.Name, card.Word, describeOutcome(outcome, card.Type)))

	switch outcome {
	case GuessAssassin:
		s.finishMatch(team.Other())
	case GuessCorrect:
		s.setCardsLeft(team, s.CardsLeft(team)-1)
		if s.CardsLeft(team) == 0 {
			s.finishMatch(team)
			return nil
		}
		s.GuessesRemaining--
		if s.GuessesRemaining == 0 {
			s.endTurnLocked()
		}
	case GuessNeutral:
		s.endTurnLocked()
	case GuessWrong:
		other := team.Other()
		s.setCardsLeft(other, s.CardsLeft(other)-1)
		if s.CardsLeft(other) == 0 {
			s.finishMatch(other)
			return nil
		}
		s.endTurnLocked()
	}
	return nil
}

// EndTurn lets the current team stop guessing voluntarily.
func (s *State) EndTurn(team Team, playerID string) error {
	if !team.Valid() {
		return errValidation("unknown team %q", team)
	}
	if s.CurrentPhase != PhaseOperatives {
		return errPrecondition("the turn can only be ended during the operatives phase")
	}
	if s.Winner != "" {
		return errPrecondition("the match is over")
	}
	if team != s.CurrentTeam {
		return errPrecondition("it is not the %s team's turn", team)
	}
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	if pt, playing := seat.PlayingTeam(); !playing || pt != team {
		return errPrecondition("player is not seated on the %s team", team)
	}
	s.appendLog(fmt.Sprintf("%s ends the %s team's turn", p.Name, team.Label()))
	s.endTurnLocked()
	return nil
}

// PostChat appends a chat message from any present participant.
func (s *State) PostChat(playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errValidation("chat message is empty")
	}
	if utf8.RuneCountInString(text) > maxChatLen {
		return errValidation("chat message exceeds %d characters", maxChatLen)
	}
	p, _, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	s.Chat = append(s.Chat, ChatMessage{By: p.Name, Text: text, Timestamp: time.Now().UTC()})
	if len(s.Chat) > maxChatKept {
		s.Chat = s.Chat[len(s.Chat)-maxChatKept:]
	}
	return nil
}

// recordGuess appends a result to the active clue and mirrors it onto the
// clue history entry so the history stays complete after the clue is cleared.
func (s *State) recordGuess(res GuessResult) {
	if s.CurrentClue == nil {
		return
	}
	s.CurrentClue.Results = append(s.CurrentClue.Results, res)
	if n := len(s.ClueHistory); n > 0 {
		s.ClueHistory[n-1] = *s.CurrentClue
	}
}

// endTurnLocked hands the turn to the other team and resets clue state.
func (s *State) endTurnLocked() {
	s.CurrentTeam = s.CurrentTeam.Other()
	s.CurrentPhase = PhaseSpymaster
	s.CurrentClue = nil
	s.GuessesRemaining = 0
	s.appendLog(fmt.Sprintf("Turn passes to the %s team", s.CurrentTeam.Label()))
}

// finishMatch sets the winner exactly once and seals the match.
func (s *State) finishMatch(winner Team) {
	s.Winner = string(winner)
	s.CurrentPhase = PhaseEnded
	s.CurrentClue = nil
	s.GuessesRemaining = 0
	s.appendLog(winner.Label() + " wins!")
}

func describeOutcome(o GuessOutcome, t CardType) string {
	switch o {
	case GuessCorrect:
		return "correct (" + string(t) + ")"
	case GuessWrong:
		return "wrong, that one belongs to " + string(t)
	case GuessNeutral:
		return "a neutral bystander"
	default:
		return "the assassin"
	}
}
