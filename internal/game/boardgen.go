// internal/game/boardgen.go
//
// Board generation for a new match.
// A board is 25 cards: 9 for the team that goes first, 8 for the other team,
// a configurable number of assassins (at least 1), and neutrals for the rest.
// Words are sampled without replacement from the chosen deck; identities are
// shuffled independently of the word sampling and paired position by position.

package game

import (
	"math/rand"
	"strings"

	"github.com/partyroom/codenames/internal/words"
)

const (
	// BoardSize is the number of cards on every board.
	BoardSize = 25

	firstTeamCards  = 9
	secondTeamCards = 8
)

// GenerateBoard builds a shuffled board for a match.
//
// assassinCount is clamped into [1, MaxAssassins], so the team card counts
// hold no matter what the caller passes. An unknown or undersized deck falls
// back to the default deck.
func GenerateBoard(firstTeam Team, assassinCount int, deckID string) Board {
	if assassinCount < 1 {
		assassinCount = 1
	}
	if assassinCount > MaxAssassins {
		assassinCount = MaxAssassins
	}

	deck := words.Usable(deckID)
	selected := make([]string, 0, BoardSize)
	for _, idx := range rand.Perm(len(deck))[:BoardSize] {
		selected = append(selected, deck[idx])
	}

	types := make([]CardType, 0, firstTeamCards+secondTeamCards+assassinCount)
	for i := 0; i < firstTeamCards; i++ {
		types = append(types, TeamCard(firstTeam))
	}
	for i := 0; i < secondTeamCards; i++ {
		types = append(types, TeamCard(firstTeam.Other()))
	}
	for i := 0; i < assassinCount; i++ {
		types = append(types, CardAssassin)
	}
	for len(types) < BoardSize {
		types = append(types, CardNeutral)
	}

	rand.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })

	board := make(Board, BoardSize)
	for i := 0; i < BoardSize; i++ {
		board[i] = Card{Word: selected[i], Type: types[i]}
	}
	return board
}

// HasWord reports whether word matches any board word, case-insensitively,
// revealed or not.
func (b Board) HasWord(word string) bool {
	for _, c := range b {
		if strings.EqualFold(c.Word, word) {
			return true
		}
	}
	return false
}

// UnrevealedIndex returns the index of the unrevealed card whose word matches
// case-insensitively, or -1.
func (b Board) UnrevealedIndex(word string) int {
	for i, c := range b {
		if !c.Revealed && strings.EqualFold(c.Word, word) {
			return i
		}
	}
	return -1
}
