// internal/game/lobby.go
//
// Pre-match lobby: seat occupancy, the ready-up protocol, and the two-party
// settings negotiation that gates match start.
//
// Negotiation protocol:
//   - One team proposes an Offer (implicitly on first join, or explicitly).
//   - The opposing team accepts; a counter-offer replaces the pending one.
//   - Rules are "agreed" only when both acceptance flags are set, no offer is
//     pending, and neither roster is empty. An empty team can never be
//     considered to have agreed, which keeps a stale acceptance flag from a
//     prior session from auto-starting a match against a phantom team.
//   - Any rule change or seated-player removal invalidates readiness and
//     restarts the handshake.
//
// The auto-start predicate runs after every lobby mutation: waiting phase +
// agreed rules + every seated player ready ⇒ generate the board with the
// agreed settings and move to role selection.

package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"
)

// maxNameLen bounds display names.
const maxNameLen = 24

// maxTimerSeconds bounds the negotiable clue/guess timers (0 = untimed).
const maxTimerSeconds = 3600

// MaxAssassins is the largest assassin count that still leaves a full board.
const MaxAssassins = BoardSize - firstTeamCards - secondTeamCards

// ValidateSettings rejects rule configurations the board cannot express.
func ValidateSettings(ms MatchSettings) error {
	if ms.AssassinCount < 1 || ms.AssassinCount > MaxAssassins {
		return errValidation("assassin count must be between 1 and %d", MaxAssassins)
	}
	if ms.ClueTimerSeconds < 0 || ms.ClueTimerSeconds > maxTimerSeconds {
		return errValidation("clue timer must be between 0 and %d seconds", maxTimerSeconds)
	}
	if ms.GuessTimerSeconds < 0 || ms.GuessTimerSeconds > maxTimerSeconds {
		return errValidation("guess timer must be between 0 and %d seconds", maxTimerSeconds)
	}
	if ms.DeckID == "" {
		return errValidation("deck id is empty")
	}
	return nil
}

// JoinSeat seats a player (idempotently moving them from any other seat) and,
// when a playing team joins a lobby without a pending offer or agreed rules,
// opens the negotiation by proposing the current settings on their behalf.
func (s *State) JoinSeat(seat Seat, playerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errValidation("name is empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return errValidation("name exceeds %d characters", maxNameLen)
	}
	if seat != SeatRed && seat != SeatBlue && seat != SeatSpectator {
		return errValidation("unknown seat %q", seat)
	}

	entry := Player{ID: playerID, Name: name}
	if old, _, ok := s.FindPlayer(playerID); ok {
		entry.IsAI = old.IsAI
		entry.AIMode = old.AIMode
		s.removePlayer(playerID)
	}

	first := len(s.RedPlayers)+len(s.BluePlayers)+len(s.Spectators) == 0
	roster := s.rosterRef(seat)
	*roster = append(*roster, entry)

	if first && s.QuickSettings == (MatchSettings{}) {
		s.QuickSettings = DefaultSettings()
	}

	if team, playing := seat.PlayingTeam(); playing && s.CurrentPhase == PhaseWaiting {
		if s.SettingsPending == nil && !(s.SettingsAccepted.Red && s.SettingsAccepted.Blue) {
			s.proposeLocked(team, s.QuickSettings)
		}
	}
	s.maybeAutoStart()
	return nil
}

// MarkAI tags a seated player as an AI agent with the given mode.
func (s *State) MarkAI(playerID string, mode AIMode) error {
	p, _, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	p.IsAI = true
	p.AIMode = mode
	return nil
}

// LeaveSeat removes a player entirely. Removing a seated team player restarts
// the negotiation, since the departed party may have been the one agreeing.
func (s *State) LeaveSeat(playerID string) error {
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	name := p.Name
	s.removePlayer(playerID)
	if _, playing := seat.PlayingTeam(); playing {
		s.resetNegotiation()
	}
	s.appendLog(name + " left")
	s.abandonIfTeamDeserted()
	s.resetIfDeserted()
	return nil
}

// EvictPlayer is the presence-driven variant of LeaveSeat, invoked by the
// supervisory sweep rather than by the player.
func (s *State) EvictPlayer(playerID string) error {
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	name := p.Name
	s.removePlayer(playerID)
	if _, playing := seat.PlayingTeam(); playing {
		s.resetNegotiation()
	}
	s.appendLog(name + " was removed for inactivity")
	s.abandonIfTeamDeserted()
	s.resetIfDeserted()
	return nil
}

// OfferSettings proposes a rule change on behalf of a team, replacing any
// pending offer. Only valid pre-match, and only for a team with seated
// players.
func (s *State) OfferSettings(team Team, settings MatchSettings) error {
	if !team.Valid() {
		return errValidation("unknown team %q", team)
	}
	if err := ValidateSettings(settings); err != nil {
		return err
	}
	if s.CurrentPhase != PhaseWaiting {
		return errPrecondition("rules can only be changed before the match starts")
	}
	if len(s.Roster(Seat(team))) == 0 {
		return errPrecondition("the %s team has no seated players", team)
	}
	s.proposeLocked(team, settings)
	return nil
}

// AcceptOffer records a team's acceptance of the pending offer. A team cannot
// accept its own offer. When both teams have accepted, the settings are
// committed, the offer is cleared, and everyone must re-ready under the
// finalized rules.
func (s *State) AcceptOffer(team Team) error {
	if !team.Valid() {
		return errValidation("unknown team %q", team)
	}
	if s.CurrentPhase != PhaseWaiting {
		return errPrecondition("rules can only be accepted before the match starts")
	}
	if s.SettingsPending == nil {
		return errPrecondition("no settings offer is pending")
	}
	if s.SettingsPending.ProposingTeam == team {
		return errPrecondition("a team cannot accept its own offer")
	}
	if len(s.Roster(Seat(team))) == 0 {
		return errPrecondition("the %s team has no seated players", team)
	}

	s.SettingsAccepted.Set(team, true)
	if s.SettingsAccepted.Red && s.SettingsAccepted.Blue {
		s.QuickSettings = s.SettingsPending.Settings
		s.SettingsPending = nil
		s.clearReady()
		s.appendLog("Both teams agreed on the rules")
	}
	s.maybeAutoStart()
	return nil
}

// RulesAgreed is the agreement predicate: both flags set, nothing pending,
// and both rosters non-empty.
func (s *State) RulesAgreed() bool {
	return s.SettingsAccepted.Red && s.SettingsAccepted.Blue &&
		s.SettingsPending == nil &&
		len(s.RedPlayers) > 0 && len(s.BluePlayers) > 0
}

// ToggleReady flips a seated team player's ready flag pre-match.
func (s *State) ToggleReady(playerID string) error {
	if s.CurrentPhase != PhaseWaiting {
		return errPrecondition("readiness only applies before the match starts")
	}
	p, seat, ok := s.FindPlayer(playerID)
	if !ok {
		return errPrecondition("player is not in the lobby")
	}
	if _, playing := seat.PlayingTeam(); !playing {
		return errPrecondition("spectators do not ready up")
	}
	p.Ready = !p.Ready
	s.maybeAutoStart()
	return nil
}

// ResetToLobby forcibly returns the document to a fresh waiting state,
// keeping seats but discarding the board, roles, readiness, and negotiation
// progress. Used by the inactivity and empty-lobby supervisory sweeps.
func (s *State) ResetToLobby(reason string) {
	s.Cards = nil
	s.CurrentTeam = ""
	s.CurrentPhase = PhaseWaiting
	s.RedSpymaster = ""
	s.BlueSpymaster = ""
	s.RedCardsLeft = 0
	s.BlueCardsLeft = 0
	s.CurrentClue = nil
	s.GuessesRemaining = 0
	s.Winner = ""
	s.ClueHistory = nil
	s.SettingsPending = nil
	s.SettingsAccepted = Accepted{}
	s.clearReady()
	s.clearRoles()
	s.appendLog("Lobby reset: " + reason)
}

// Deserted reports whether every seat and spectator slot is empty.
func (s *State) Deserted() bool {
	return len(s.RedPlayers) == 0 && len(s.BluePlayers) == 0 && len(s.Spectators) == 0
}

// proposeLocked installs an offer and restarts acceptance from the proposer.
// Changing rules invalidates prior readiness.
func (s *State) proposeLocked(team Team, settings MatchSettings) {
	s.SettingsPending = &Offer{
		ProposingTeam: team,
		Settings:      settings,
		CreatedAt:     time.Now().UTC(),
	}
	s.SettingsAccepted = Accepted{}
	s.SettingsAccepted.Set(team, true)
	s.clearReady()
	s.appendLog(fmt.Sprintf("%s proposed new rules (%d assassin(s), deck %q)",
		team.Label(), settings.AssassinCount, settings.DeckID))
}

// maybeAutoStart starts the match when the lobby is fully agreed and ready.
// The caller's transaction re-reads the document, so the phase check here is
// also the commit-time precondition that serializes racing auto-starts: only
// one transaction can observe waiting and write role-selection.
func (s *State) maybeAutoStart() {
	if s.CurrentPhase != PhaseWaiting || !s.RulesAgreed() {
		return
	}
	for _, seat := range []Seat{SeatRed, SeatBlue} {
		for _, p := range s.Roster(seat) {
			if !p.Ready {
				return
			}
		}
	}

	firstTeam := TeamRed
	if rand.Intn(2) == 1 {
		firstTeam = TeamBlue
	}
	s.Cards = GenerateBoard(firstTeam, s.QuickSettings.AssassinCount, s.QuickSettings.DeckID)
	s.CurrentTeam = firstTeam
	s.CurrentPhase = PhaseRoleSelection
	s.setCardsLeft(firstTeam, firstTeamCards)
	s.setCardsLeft(firstTeam.Other(), secondTeamCards)
	s.RedSpymaster = ""
	s.BlueSpymaster = ""
	s.CurrentClue = nil
	s.GuessesRemaining = 0
	s.Winner = ""
	s.ClueHistory = nil
	s.clearRoles()
	s.appendLog(fmt.Sprintf("Match started. %s goes first with %d cards.", firstTeam.Label(), firstTeamCards))
}

// resetNegotiation wipes the handshake after a seated player disappears.
func (s *State) resetNegotiation() {
	s.SettingsAccepted = Accepted{}
	s.SettingsPending = nil
	s.clearReady()
}

// abandonIfTeamDeserted ends a live match when one playing team has emptied
// out while the other still has players. Nobody won; the board stays visible
// until the lobby resets.
func (s *State) abandonIfTeamDeserted() {
	live := s.CurrentPhase == PhaseRoleSelection ||
		s.CurrentPhase == PhaseSpymaster ||
		s.CurrentPhase == PhaseOperatives
	if !live || s.Winner != "" {
		return
	}
	if (len(s.RedPlayers) == 0) != (len(s.BluePlayers) == 0) {
		s.Winner = WinnerAbandoned
		s.CurrentPhase = PhaseEnded
		s.CurrentClue = nil
		s.GuessesRemaining = 0
		s.appendLog("Match abandoned")
	}
}

// resetIfDeserted resets an active match once the lobby is completely empty,
// so the next arrivals get a clean lobby instead of a stale board.
func (s *State) resetIfDeserted() {
	if s.CurrentPhase != PhaseWaiting && s.Deserted() {
		s.ResetToLobby("everyone left")
	}
}

func (s *State) removePlayer(playerID string) {
	for _, seat := range []Seat{SeatRed, SeatBlue, SeatSpectator} {
		roster := s.rosterRef(seat)
		for i := range *roster {
			if (*roster)[i].ID == playerID {
				*roster = append((*roster)[:i], (*roster)[i+1:]...)
				return
			}
		}
	}
}

func (s *State) clearReady() {
	for _, seat := range []Seat{SeatRed, SeatBlue} {
		roster := s.rosterRef(seat)
		for i := range *roster {
			(*roster)[i].Ready = false
		}
	}
}

func (s *State) clearRoles() {
	for _, seat := range []Seat{SeatRed, SeatBlue} {
		roster := s.rosterRef(seat)
		for i := range *roster {
			(*roster)[i].Role = ""
		}
	}
}
