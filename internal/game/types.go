// internal/game/types.go
//
// Core type definitions for the Codenames rules engine.
// Defines:
//   - Team, Phase, CardType, Role: closed enumerations for game vocabulary.
//   - Card / Board: the 25-card grid and its identity assignments.
//   - Player, MatchSettings, Offer: lobby and rule-negotiation state.
//   - Clue / GuessResult: per-turn clue bookkeeping.
//   - State: the root aggregate persisted as the shared game document.
//
// Field names double as the wire format: JSON tags must stay stable so that
// previously stored documents keep decoding.

package game

import (
	"encoding/json"
	"time"
)

// Team identifies one of the two playing sides.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Valid reports whether t is one of the two playing teams.
func (t Team) Valid() bool { return t == TeamRed || t == TeamBlue }

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Label returns the capitalized display name used in log lines.
func (t Team) Label() string {
	if t == TeamRed {
		return "Red"
	}
	return "Blue"
}

// Phase is the match lifecycle state.
// waiting → role-selection → spymaster ⇄ operatives → ended.
type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseRoleSelection Phase = "role-selection"
	PhaseSpymaster     Phase = "spymaster"
	PhaseOperatives    Phase = "operatives"
	PhaseEnded         Phase = "ended"
)

// CardType is the hidden identity of a board card.
type CardType string

const (
	CardRed      CardType = "red"
	CardBlue     CardType = "blue"
	CardNeutral  CardType = "neutral"
	CardAssassin CardType = "assassin"
)

// TeamCard maps a team to its card identity.
func TeamCard(t Team) CardType { return CardType(t) }

// Team returns the owning team of a card identity, if it has one.
func (c CardType) Team() (Team, bool) {
	switch c {
	case CardRed:
		return TeamRed, true
	case CardBlue:
		return TeamBlue, true
	}
	return "", false
}

// Card is one cell of the board. Word and Type are immutable once generated;
// Revealed transitions false→true exactly once.
type Card struct {
	Word     string   `json:"word"`
	Type     CardType `json:"type"`
	Revealed bool     `json:"revealed"`
}

// Board is the ordered 25-card grid.
type Board []Card

// Role is a seat role within a team.
type Role string

const (
	RoleSpymaster Role = "spymaster"
	RoleOperative Role = "operative"
)

// AIMode selects how an AI-occupied seat behaves.
type AIMode string

const (
	// AIHelper only posts advisory chat; it never acts on the board.
	AIHelper AIMode = "helper"
	// AIAutonomous submits clues and guesses like a human player.
	AIAutonomous AIMode = "autonomous"
)

// Seat is where a player currently sits.
type Seat string

const (
	SeatRed       Seat = "red"
	SeatBlue      Seat = "blue"
	SeatSpectator Seat = "spectator"
)

// PlayingTeam returns the team a seat belongs to, if it is a playing seat.
func (s Seat) PlayingTeam() (Team, bool) {
	switch s {
	case SeatRed:
		return TeamRed, true
	case SeatBlue:
		return TeamBlue, true
	}
	return "", false
}

// Player is one seated participant (human or AI).
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Role   Role   `json:"role,omitempty"`
	IsAI   bool   `json:"isAI"`
	AIMode AIMode `json:"aiMode,omitempty"`
}

// GuessOutcome classifies one resolved guess.
type GuessOutcome string

const (
	GuessCorrect  GuessOutcome = "correct"
	GuessWrong    GuessOutcome = "wrong"
	GuessNeutral  GuessOutcome = "neutral"
	GuessAssassin GuessOutcome = "assassin"
)

// GuessResult records a single resolved guess under the active clue.
type GuessResult struct {
	Word      string       `json:"word"`
	Result    GuessOutcome `json:"result"`
	Type      CardType     `json:"type"`
	By        string       `json:"by"`
	Timestamp time.Time    `json:"timestamp"`
}

// Clue is one spymaster hint plus the guesses it produced.
type Clue struct {
	Team    Team          `json:"team"`
	Word    string        `json:"word"`
	Number  int           `json:"number"`
	Results []GuessResult `json:"results"`
}

// MatchSettings are the negotiated rules for a match. Immutable once a match
// starts; mutable pre-match only via the offer/accept handshake.
type MatchSettings struct {
	AssassinCount     int    `json:"assassinCount"`
	ClueTimerSeconds  int    `json:"clueTimerSeconds"`
	GuessTimerSeconds int    `json:"guessTimerSeconds"`
	DeckID            string `json:"deckId"`
}

// DefaultSettings are seeded when the first player joins a fresh lobby.
func DefaultSettings() MatchSettings {
	return MatchSettings{
		AssassinCount:     1,
		ClueTimerSeconds:  0,
		GuessTimerSeconds: 0,
		DeckID:            "standard",
	}
}

// Offer is a proposed rule configuration awaiting the other team's acceptance.
type Offer struct {
	ProposingTeam Team          `json:"proposingTeam"`
	Settings      MatchSettings `json:"settings"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Accepted tracks which teams have accepted the current settings.
type Accepted struct {
	Red  bool `json:"red"`
	Blue bool `json:"blue"`
}

// Get returns the acceptance flag for a team.
func (a Accepted) Get(t Team) bool {
	if t == TeamRed {
		return a.Red
	}
	return a.Blue
}

// Set updates the acceptance flag for a team.
func (a *Accepted) Set(t Team, v bool) {
	if t == TeamRed {
		a.Red = v
	} else {
		a.Blue = v
	}
}

// ChatMessage is one entry of the lobby chat feed.
type ChatMessage struct {
	By        string    `json:"by"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Winner values beyond the two team colors.
const WinnerAbandoned = "abandoned"

// State is the root aggregate: the canonical game document shared by every
// client. All mutation goes through the methods in engine.go / lobby.go,
// wrapped in a store transaction.
type State struct {
	Cards            Board         `json:"cards"`
	CurrentTeam      Team          `json:"currentTeam,omitempty"`
	CurrentPhase     Phase         `json:"currentPhase"`
	RedSpymaster     string        `json:"redSpymaster,omitempty"`
	BlueSpymaster    string        `json:"blueSpymaster,omitempty"`
	RedCardsLeft     int           `json:"redCardsLeft"`
	BlueCardsLeft    int           `json:"blueCardsLeft"`
	CurrentClue      *Clue         `json:"currentClue,omitempty"`
	GuessesRemaining int           `json:"guessesRemaining"`
	Winner           string        `json:"winner,omitempty"`
	Log              []string      `json:"log"`
	QuickSettings    MatchSettings `json:"quickSettings"`
	SettingsPending  *Offer        `json:"settingsPending,omitempty"`
	SettingsAccepted Accepted      `json:"settingsAccepted"`
	RedPlayers       []Player      `json:"redPlayers"`
	BluePlayers      []Player      `json:"bluePlayers"`
	Spectators       []Player      `json:"spectators"`
	ClueHistory      []Clue        `json:"clueHistory,omitempty"`
	Chat             []ChatMessage `json:"chat,omitempty"`
}

// NewState returns a fresh lobby in the waiting phase.
func NewState() *State {
	return &State{
		CurrentPhase:  PhaseWaiting,
		QuickSettings: DefaultSettings(),
		Log:           []string{},
		RedPlayers:    []Player{},
		BluePlayers:   []Player{},
		Spectators:    []Player{},
	}
}

// Clone deep-copies the state via a JSON round trip. The document is small
// (a few KB), so this is cheap relative to a store round trip.
func (s *State) Clone() (*State, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out State
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Spymaster returns the spymaster name claimed for a team ("" if unclaimed).
func (s *State) Spymaster(t Team) string {
	if t == TeamRed {
		return s.RedSpymaster
	}
	return s.BlueSpymaster
}

func (s *State) setSpymaster(t Team, name string) {
	if t == TeamRed {
		s.RedSpymaster = name
	} else {
		s.BlueSpymaster = name
	}
}

// CardsLeft returns the unrevealed card count still owed to a team.
func (s *State) CardsLeft(t Team) int {
	if t == TeamRed {
		return s.RedCardsLeft
	}
	return s.BlueCardsLeft
}

func (s *State) setCardsLeft(t Team, n int) {
	if t == TeamRed {
		s.RedCardsLeft = n
	} else {
		s.BlueCardsLeft = n
	}
}

// Roster returns the player list for a seat.
func (s *State) Roster(seat Seat) []Player {
	switch seat {
	case SeatRed:
		return s.RedPlayers
	case SeatBlue:
		return s.BluePlayers
	default:
		return s.Spectators
	}
}

func (s *State) rosterRef(seat Seat) *[]Player {
	switch seat {
	case SeatRed:
		return &s.RedPlayers
	case SeatBlue:
		return &s.BluePlayers
	default:
		return &s.Spectators
	}
}

// FindPlayer locates a player by id across all seats.
func (s *State) FindPlayer(id string) (*Player, Seat, bool) {
	for _, seat := range []Seat{SeatRed, SeatBlue, SeatSpectator} {
		roster := s.rosterRef(seat)
		for i := range *roster {
			if (*roster)[i].ID == id {
				return &(*roster)[i], seat, true
			}
		}
	}
	return nil, "", false
}

// appendLog appends one human-readable line to the game log.
func (s *State) appendLog(line string) {
	s.Log = append(s.Log, line)
}
