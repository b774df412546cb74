package words

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_EmbeddedDecks(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	ids := IDs()
	if len(ids) < 3 {
		t.Fatalf("deck ids = %v, want at least standard/travel/science", ids)
	}

	std, ok := Deck(DefaultDeckID)
	if !ok {
		t.Fatalf("default deck missing")
	}
	if len(std) < MinDeckSize {
		t.Fatalf("default deck has %d words, want >= %d", len(std), MinDeckSize)
	}
	for _, w := range std[:10] {
		if w == "" {
			t.Fatalf("empty word in deck")
		}
		for _, r := range w {
			if r >= 'a' && r <= 'z' {
				t.Fatalf("word %q not uppercased", w)
			}
		}
	}

	count, total := Stats()
	if count != len(ids) || total < MinDeckSize {
		t.Fatalf("stats = %d decks / %d words", count, total)
	}
}

func TestUsable_FallsBackToDefault(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	std, _ := Deck(DefaultDeckID)
	if got := Usable("no-such-deck"); len(got) != len(std) {
		t.Fatalf("unknown deck should fall back to default, got %d words", len(got))
	}

	travel, ok := Deck("travel")
	if !ok {
		t.Fatalf("travel deck missing")
	}
	if got := Usable("travel"); len(got) != len(travel) {
		t.Fatalf("usable deck should be returned as-is")
	}
}

func TestLoadDir_AddsAndReplacesDecks(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	dir := t.TempDir()
	content := "# custom deck\nalpha\n\nbeta\n gamma \n"
	if err := os.WriteFile(filepath.Join(dir, "custom.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	if err := loadDir(dir); err != nil {
		t.Fatalf("loadDir: %v", err)
	}
	list, ok := Deck("custom")
	if !ok {
		t.Fatalf("custom deck not registered")
	}
	if len(list) != 3 {
		t.Fatalf("custom deck words = %v, want 3 (comments and blanks skipped)", list)
	}
	if list[0] != "ALPHA" || list[2] != "GAMMA" {
		t.Fatalf("words not normalized: %v", list)
	}

	// Undersized custom decks never reach the board generator.
	if got := Usable("custom"); len(got) < MinDeckSize {
		t.Fatalf("undersized deck leaked out of Usable")
	}
}
