package game

import (
	"testing"

	"github.com/partyroom/codenames/internal/words"
)

func TestGenerateBoard_Composition(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	board := GenerateBoard(TeamRed, 1, words.DefaultDeckID)
	if len(board) != BoardSize {
		t.Fatalf("board size = %d, want %d", len(board), BoardSize)
	}

	counts := map[CardType]int{}
	seen := map[string]bool{}
	for _, c := range board {
		counts[c.Type]++
		if c.Revealed {
			t.Fatalf("card %q generated already revealed", c.Word)
		}
		if c.Word == "" {
			t.Fatalf("empty word on board")
		}
		if seen[c.Word] {
			t.Fatalf("duplicate word %q on board", c.Word)
		}
		seen[c.Word] = true
	}

	if counts[CardRed] != 9 {
		t.Fatalf("red cards = %d, want 9 (red goes first)", counts[CardRed])
	}
	if counts[CardBlue] != 8 {
		t.Fatalf("blue cards = %d, want 8", counts[CardBlue])
	}
	if counts[CardAssassin] != 1 {
		t.Fatalf("assassins = %d, want 1", counts[CardAssassin])
	}
	if counts[CardNeutral] != BoardSize-9-8-1 {
		t.Fatalf("neutrals = %d, want %d", counts[CardNeutral], BoardSize-9-8-1)
	}
}

func TestGenerateBoard_FirstTeamBlue(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	board := GenerateBoard(TeamBlue, 3, words.DefaultDeckID)
	counts := map[CardType]int{}
	for _, c := range board {
		counts[c.Type]++
	}
	if counts[CardBlue] != 9 || counts[CardRed] != 8 {
		t.Fatalf("blue=%d red=%d, want 9/8 when blue goes first", counts[CardBlue], counts[CardRed])
	}
	if counts[CardAssassin] != 3 {
		t.Fatalf("assassins = %d, want 3", counts[CardAssassin])
	}
}

func TestGenerateBoard_ClampsAssassinFloor(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	board := GenerateBoard(TeamRed, 0, words.DefaultDeckID)
	assassins := 0
	for _, c := range board {
		if c.Type == CardAssassin {
			assassins++
		}
	}
	if assassins != 1 {
		t.Fatalf("assassins = %d, want clamp to 1", assassins)
	}
}

func TestGenerateBoard_ClampsAssassinCeiling(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	board := GenerateBoard(TeamRed, 50, words.DefaultDeckID)
	counts := map[CardType]int{}
	for _, c := range board {
		counts[c.Type]++
	}
	if counts[CardRed] != 9 || counts[CardBlue] != 8 {
		t.Fatalf("red=%d blue=%d, team counts must survive an oversized assassin request", counts[CardRed], counts[CardBlue])
	}
	if counts[CardAssassin] != MaxAssassins {
		t.Fatalf("assassins = %d, want clamp to %d", counts[CardAssassin], MaxAssassins)
	}
}

func TestGenerateBoard_UnknownDeckFallsBack(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("init decks: %v", err)
	}

	board := GenerateBoard(TeamRed, 1, "no-such-deck")
	if len(board) != BoardSize {
		t.Fatalf("board size = %d, want %d on fallback deck", len(board), BoardSize)
	}
}

func TestBoardHasWord_CaseInsensitive(t *testing.T) {
	b := Board{{Word: "OCEAN", Type: CardRed}, {Word: "PIANO", Type: CardBlue}}
	if !b.HasWord("ocean") {
		t.Fatalf("HasWord should match case-insensitively")
	}
	if b.HasWord("violin") {
		t.Fatalf("HasWord matched a word not on the board")
	}
}

func TestBoardUnrevealedIndex(t *testing.T) {
	b := Board{
		{Word: "OCEAN", Type: CardRed, Revealed: true},
		{Word: "PIANO", Type: CardBlue},
	}
	if got := b.UnrevealedIndex("piano"); got != 1 {
		t.Fatalf("UnrevealedIndex(piano) = %d, want 1", got)
	}
	if got := b.UnrevealedIndex("ocean"); got != -1 {
		t.Fatalf("UnrevealedIndex(ocean) = %d, want -1 for a revealed card", got)
	}
}
