// internal/words/words.go
//
// Provides the deck catalog for the board generator.
//
// Responsibilities:
//   - Load themed word decks from an environment-provided directory or fall
//     back to the embedded defaults (standard/travel/science).
//   - Supply lookup utilities: Deck, Usable, IDs, Stats.
//
// Initialization behavior (Init):
//   1. Embedded decks are always loaded first.
//   2. If DECKS_DIR is set, every *.txt file in it is loaded as a deck whose
//      id is the file name minus extension; a file named like an embedded
//      deck replaces it.
//
// Environment variables:
//   DECKS_DIR=/path/to/decks
//
// Constraints:
//   • Entries are normalized to uppercase; blank lines and '#' comments are skipped.
//   • A usable deck needs at least 25 entries; smaller decks are kept but the
//     board generator falls back to the default deck for them.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/partyroom/codenames/assets"
)

// DefaultDeckID is the deck used when a requested deck is absent or too small.
const DefaultDeckID = "standard"

// MinDeckSize is the smallest deck the board generator will sample from.
const MinDeckSize = 25

var (
	initOnce   sync.Once
	decks      map[string][]string
	initialErr error
)

// Init loads the deck catalog exactly once.
// Returns an error if the default deck ends up missing or too small.
func Init() error {
	initOnce.Do(func() {
		decks = make(map[string][]string)

		ids, err := assets.DeckIDs()
		if err != nil {
			initialErr = err
			return
		}
		for _, id := range ids {
			list, err := assets.DeckList(id)
			if err != nil {
				initialErr = err
				return
			}
			decks[id] = list
		}

		if dir := os.Getenv("DECKS_DIR"); dir != "" {
			if err := loadDir(dir); err != nil {
				initialErr = err
				return
			}
		}

		if len(decks[DefaultDeckID]) < MinDeckSize {
			initialErr = errors.New("words: default deck missing or too small")
		}
	})
	return initialErr
}

// loadDir loads every *.txt file in dir as a deck.
func loadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return err
	}
	for _, p := range matches {
		list, err := readDeckFile(p)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(filepath.Base(p), ".txt")
		decks[id] = list
	}
	return nil
}

// readDeckFile loads one word per line, uppercased, skipping comments.
func readDeckFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToUpper(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}

// Deck returns the word list for a deck id.
func Deck(id string) ([]string, bool) {
	list, ok := decks[id]
	return list, ok
}

// Usable returns the deck for id if it can fill a board, otherwise the
// default deck. An unknown or undersized deck never fails board generation.
func Usable(id string) []string {
	if list, ok := decks[id]; ok && len(list) >= MinDeckSize {
		return list
	}
	return decks[DefaultDeckID]
}

// IDs returns the sorted deck identifiers.
func IDs() []string {
	out := make([]string, 0, len(decks))
	for id := range decks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stats returns deck count and total word count.
func Stats() (deckCount int, wordCount int) {
	for _, list := range decks {
		wordCount += len(list)
	}
	return len(decks), wordCount
}
