package game

import (
	"strings"
	"testing"

	"github.com/partyroom/codenames/internal/words"
)

func TestValidateSettings(t *testing.T) {
	good := MatchSettings{AssassinCount: 1, ClueTimerSeconds: 60, GuessTimerSeconds: 60, DeckID: "standard"}
	if err := ValidateSettings(good); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	cases := []MatchSettings{
		{AssassinCount: 0, DeckID: "standard"},
		{AssassinCount: MaxAssassins + 1, DeckID: "standard"},
		{AssassinCount: 1, ClueTimerSeconds: -1, DeckID: "standard"},
		{AssassinCount: 1, GuessTimerSeconds: 999999, DeckID: "standard"},
		{AssassinCount: 1, DeckID: ""},
	}
	for i, ms := range cases {
		if err := ValidateSettings(ms); !IsValidation(err) {
			t.Fatalf("case %d: want validation error, got %v", i, err)
		}
	}
}

func TestJoinSeat_NameLimitCountsRunes(t *testing.T) {
	s := NewState()
	// 24 runes is 48 bytes; the limit is on characters, not encoding size.
	if err := s.JoinSeat(SeatRed, "u1", strings.Repeat("ü", 24)); err != nil {
		t.Fatalf("24-rune name rejected: %v", err)
	}
	if err := s.JoinSeat(SeatBlue, "u2", strings.Repeat("ü", 25)); !IsValidation(err) {
		t.Fatalf("25-rune name = %v, want validation error", err)
	}
}

func TestJoinSeat_FirstJoinOpensNegotiation(t *testing.T) {
	s := NewState()
	if err := s.JoinSeat(SeatRed, "p1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(s.RedPlayers) != 1 {
		t.Fatalf("red roster = %d, want 1", len(s.RedPlayers))
	}
	if s.SettingsPending == nil || s.SettingsPending.ProposingTeam != TeamRed {
		t.Fatalf("first team join should open an offer, got %+v", s.SettingsPending)
	}
	if !s.SettingsAccepted.Red || s.SettingsAccepted.Blue {
		t.Fatalf("proposer should pre-accept: %+v", s.SettingsAccepted)
	}
}

func TestJoinSeat_MovesBetweenSeats(t *testing.T) {
	s := NewState()
	if err := s.JoinSeat(SeatRed, "p1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := s.JoinSeat(SeatBlue, "p1", "Alice"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(s.RedPlayers) != 0 || len(s.BluePlayers) != 1 {
		t.Fatalf("player should move seats, got red=%d blue=%d", len(s.RedPlayers), len(s.BluePlayers))
	}
}

func TestJoinSeat_Rejections(t *testing.T) {
	s := NewState()
	if err := s.JoinSeat(SeatRed, "p1", "   "); !IsValidation(err) {
		t.Fatalf("blank name should be rejected, got %v", err)
	}
	if err := s.JoinSeat(Seat("table"), "p1", "Alice"); !IsValidation(err) {
		t.Fatalf("unknown seat should be rejected, got %v", err)
	}
}

// The full negotiation handshake: red offers, blue accepts, everyone readies,
// and the match auto-starts with a fresh board under the agreed rules.
func TestNegotiation_OfferAcceptAutoStart(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	s := NewState()
	mustJoin(t, s, SeatRed, "r1", "Alice")
	mustJoin(t, s, SeatBlue, "b1", "Bob")

	offer := MatchSettings{AssassinCount: 1, ClueTimerSeconds: 60, GuessTimerSeconds: 60, DeckID: "standard"}
	if err := s.OfferSettings(TeamRed, offer); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if err := s.AcceptOffer(TeamRed); !IsPrecondition(err) {
		t.Fatalf("accepting your own offer should fail, got %v", err)
	}
	if err := s.AcceptOffer(TeamBlue); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if s.QuickSettings != offer {
		t.Fatalf("accepted settings not committed: %+v", s.QuickSettings)
	}
	if s.SettingsPending != nil {
		t.Fatalf("pending offer should be cleared after agreement")
	}
	for _, p := range append(s.RedPlayers, s.BluePlayers...) {
		if p.Ready {
			t.Fatalf("agreement should reset ready flags")
		}
	}
	if !s.RulesAgreed() {
		t.Fatalf("rules should be agreed")
	}

	if err := s.ToggleReady("r1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if s.CurrentPhase != PhaseWaiting {
		t.Fatalf("match started with an unready player")
	}
	if err := s.ToggleReady("b1"); err != nil {
		t.Fatalf("ready: %v", err)
	}

	if s.CurrentPhase != PhaseRoleSelection {
		t.Fatalf("phase = %s, want role-selection after everyone readies", s.CurrentPhase)
	}
	if len(s.Cards) != BoardSize {
		t.Fatalf("board not generated: %d cards", len(s.Cards))
	}
	if !s.CurrentTeam.Valid() {
		t.Fatalf("no first team chosen")
	}
	if s.CardsLeft(s.CurrentTeam) != 9 || s.CardsLeft(s.CurrentTeam.Other()) != 8 {
		t.Fatalf("cardsLeft = %d/%d, want 9/8", s.CardsLeft(s.CurrentTeam), s.CardsLeft(s.CurrentTeam.Other()))
	}
}

func TestNegotiation_CounterOfferReplacesPending(t *testing.T) {
	s := NewState()
	mustJoin(t, s, SeatRed, "r1", "Alice")
	mustJoin(t, s, SeatBlue, "b1", "Bob")

	counter := MatchSettings{AssassinCount: 3, DeckID: "standard"}
	if err := s.OfferSettings(TeamBlue, counter); err != nil {
		t.Fatalf("counter-offer: %v", err)
	}
	if s.SettingsPending.ProposingTeam != TeamBlue {
		t.Fatalf("counter-offer should replace the pending one")
	}
	if s.SettingsAccepted.Red {
		t.Fatalf("counter-offer should wipe the other team's acceptance")
	}
}

func TestNegotiation_EmptyTeamCannotAct(t *testing.T) {
	s := NewState()
	mustJoin(t, s, SeatRed, "r1", "Alice")

	if err := s.OfferSettings(TeamBlue, DefaultSettings()); !IsPrecondition(err) {
		t.Fatalf("offering for an empty team should fail, got %v", err)
	}
	if err := s.AcceptOffer(TeamBlue); !IsPrecondition(err) {
		t.Fatalf("accepting for an empty team should fail, got %v", err)
	}
	if s.RulesAgreed() {
		t.Fatalf("rules cannot be agreed with an empty roster")
	}
}

func TestLeaveSeat_ResetsNegotiation(t *testing.T) {
	s := NewState()
	mustJoin(t, s, SeatRed, "r1", "Alice")
	mustJoin(t, s, SeatBlue, "b1", "Bob")
	if err := s.AcceptOffer(TeamBlue); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := s.LeaveSeat("b1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.SettingsAccepted.Red || s.SettingsAccepted.Blue || s.SettingsPending != nil {
		t.Fatalf("seated-player departure should restart negotiation")
	}
}

func TestSpectatorLifecycle(t *testing.T) {
	s := NewState()
	mustJoin(t, s, SeatRed, "r1", "Alice")
	mustJoin(t, s, SeatSpectator, "watcher", "Watcher")

	if err := s.ToggleReady("watcher"); !IsPrecondition(err) {
		t.Fatalf("spectators cannot ready up, got %v", err)
	}

	pending := s.SettingsPending
	if err := s.LeaveSeat("watcher"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.SettingsPending != pending {
		t.Fatalf("spectator departure should not touch negotiation")
	}
}

func TestEvictPlayer_AbandonsOneSidedMatch(t *testing.T) {
	s := newTestMatch()
	s.CurrentPhase = PhaseOperatives

	if err := s.EvictPlayer("bob"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if s.Winner != "" {
		t.Fatalf("blue still has a player, match should continue")
	}
	if err := s.EvictPlayer("ben"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if s.Winner != WinnerAbandoned {
		t.Fatalf("winner = %q, want abandoned once blue is empty", s.Winner)
	}
	if s.CurrentPhase != PhaseEnded {
		t.Fatalf("phase = %s, want ended", s.CurrentPhase)
	}
}

func TestResetToLobby_KeepsSeats(t *testing.T) {
	s := newTestMatch()
	s.CurrentPhase = PhaseOperatives
	s.ResetToLobby("no activity")

	if s.CurrentPhase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", s.CurrentPhase)
	}
	if s.Cards != nil || s.Winner != "" || s.CurrentClue != nil {
		t.Fatalf("reset left match state behind")
	}
	if len(s.RedPlayers) != 2 || len(s.BluePlayers) != 2 {
		t.Fatalf("reset should keep seats")
	}
	for _, p := range append(s.RedPlayers, s.BluePlayers...) {
		if p.Ready || p.Role != "" {
			t.Fatalf("reset should clear ready flags and roles: %+v", p)
		}
	}
}

func TestDesertedMatchResets(t *testing.T) {
	s := newTestMatch()
	s.CurrentPhase = PhaseOperatives

	for _, id := range []string{"alice", "ann", "bob", "ben"} {
		if err := s.LeaveSeat(id); err != nil {
			t.Fatalf("leave %s: %v", id, err)
		}
	}
	if s.CurrentPhase != PhaseWaiting {
		t.Fatalf("empty lobby should reset to waiting, got %s", s.CurrentPhase)
	}
	if len(s.Cards) != 0 {
		t.Fatalf("stale board survived the reset")
	}
}

func TestMarkAI(t *testing.T) {
	s := NewState()
	mustJoin(t, s, SeatRed, "agent", "Scout")
	if err := s.MarkAI("agent", AIAutonomous); err != nil {
		t.Fatalf("mark: %v", err)
	}
	p, _, _ := s.FindPlayer("agent")
	if !p.IsAI || p.AIMode != AIAutonomous {
		t.Fatalf("ai flags not set: %+v", p)
	}
	if err := s.MarkAI("nobody", AIHelper); !IsPrecondition(err) {
		t.Fatalf("marking a stranger should fail, got %v", err)
	}
}

func mustJoin(t *testing.T, s *State, seat Seat, id, name string) {
	t.Helper()
	if err := s.JoinSeat(seat, id, name); err != nil {
		t.Fatalf("join %s: %v", id, err)
	}
}
