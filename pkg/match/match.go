// Package match implements the drag-and-match game: the player drops each
// item on the target it belongs to.
package match

import (
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
)

// Placement is the outcome of dropping one item on a target.
type Placement struct {
	BoardID  string         `json:"board_id"`
	Item     string         `json:"item"`
	Target   string         `json:"target"`
	Correct  bool           `json:"correct"`
	Impact   content.Impact `json:"impact,omitempty"`
	Complete bool           `json:"complete"` // every item is now matched
}

// Score counts placements so far.
type Score struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Total   int `json:"total"` // items on the board
}

// Round is one play-through of a board. A wrong placement leaves the item
// unmatched so it can be tried again.
type Round struct {
	board   *content.MatchBoard
	answers map[string]string
	matched map[string]bool
	score   Score
	epoch   uint64
}

// NewRound starts a round on board.
func NewRound(board *content.MatchBoard) *Round {
	answers := make(map[string]string, len(board.Pairs))
	for _, p := range board.Pairs {
		answers[p.Item] = p.Target
	}
	return &Round{
		board:   board,
		answers: answers,
		matched: make(map[string]bool, len(board.Pairs)),
		score:   Score{Total: len(board.Pairs)},
	}
}

// Bind ties the round to the session epoch it was started in.
func (r *Round) Bind(epoch uint64) *Round {
	r.epoch = epoch
	return r
}

// Epoch returns the session epoch set by Bind, or 0.
func (r *Round) Epoch() uint64 {
	return r.epoch
}

// Board returns the board being played.
func (r *Round) Board() *content.MatchBoard {
	return r.board
}

// Place drops item on target.
func (r *Round) Place(item, target string) (Placement, error) {
	want, ok := r.answers[item]
	if !ok {
		return Placement{}, gameerr.New(gameerr.CodeUnknownItem, "item %q is not on board %q", item, r.board.ID)
	}
	if r.matched[item] {
		return Placement{}, gameerr.New(gameerr.CodeAlreadyMatched, "item %q is already matched", item)
	}

	p := Placement{BoardID: r.board.ID, Item: item, Target: target, Correct: want == target}
	if p.Correct {
		r.matched[item] = true
		r.score.Correct++
		p.Impact = r.board.CorrectImpact
	} else {
		r.score.Wrong++
		p.Impact = r.board.WrongImpact
	}
	p.Complete = r.Complete()
	return p, nil
}

// Remaining returns the unmatched items in board order.
func (r *Round) Remaining() []string {
	var items []string
	for _, p := range r.board.Pairs {
		if !r.matched[p.Item] {
			items = append(items, p.Item)
		}
	}
	return items
}

// Complete reports whether every item is matched.
func (r *Round) Complete() bool {
	return len(r.matched) == len(r.answers)
}

// Score returns the current score.
func (r *Round) Score() Score {
	return r.score
}
