// Package cards holds the playing-card value objects shared by the card
// games: ranks, suits, single 52-card decks and multi-deck shoes.
package cards

import (
	"fmt"

	"github.com/Richrosh3/online-casino/internal/random"
)

type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var Ranks = [13]Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankOrder = map[Rank]int{
	Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7, Eight: 8,
	Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13, Ace: 14,
}

// Order returns the scoring order of the rank, aces high (2..14).
func (r Rank) Order() int {
	return rankOrder[r]
}

// Card is an immutable rank+suit value. Equality is rank and suit;
// scoring comparisons use Rank.Order alone.
type Card struct {
	Rank Rank
	Suit Suit
}

// HiddenCard is the face-down placeholder clients render as a card back.
const HiddenCard = "2B"

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Deck is an ordered sequence of cards dealt from the front.
type Deck struct {
	cards []Card
	src   random.Source
}

func NewDeck(src random.Source) *Deck {
	d := &Deck{src: src}
	d.build(1)
	d.Shuffle()
	return d
}

func (d *Deck) build(numDecks int) {
	d.cards = d.cards[:0]
	for n := 0; n < numDecks; n++ {
		for _, s := range Suits {
			for _, r := range Ranks {
				d.cards = append(d.cards, Card{Rank: r, Suit: s})
			}
		}
	}
}

func (d *Deck) Shuffle() {
	d.src.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top n cards. Panics if the deck runs dry,
// which callers prevent by sizing rounds to the deck.
func (d *Deck) Deal(n int) []Card {
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out
}

func (d *Deck) DealOne() Card {
	return d.Deal(1)[0]
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Shoe is a multi-deck pool that reshuffles itself once the remaining
// cards fall below a threshold fraction of the full pack.
type Shoe struct {
	Deck
	numDecks    int
	shuffleMark int
}

// NewShoe builds a shoe of numDecks physical decks. reshufflePct is the
// fraction of the pack that must have been dealt before a reshuffle
// triggers.
func NewShoe(src random.Source, numDecks int, reshufflePct float64) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	s := &Shoe{numDecks: numDecks}
	s.src = src
	s.build(numDecks)
	s.shuffleMark = int(float64(len(s.cards)) * (1 - reshufflePct))
	s.Shuffle()
	return s
}

// CheckReshuffle rebuilds and reshuffles the shoe when the cut card has
// been passed. Called between rounds, never mid-hand.
func (s *Shoe) CheckReshuffle() {
	if len(s.cards) < s.shuffleMark {
		s.build(s.numDecks)
		s.Shuffle()
	}
}
