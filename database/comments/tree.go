// Package comments stores comment threads for forecasts, forecast reviews and
// trade reviews, and assembles them into question/answer trees.
package comments

import (
	"sort"

	models "github.com/kazumae/fx-forecast-backend/database/models_pkg"
)

// Family describes one comment table and the record that owns its threads.
type Family struct {
	Name        string // URL segment: forecasts, reviews, trade-reviews
	Table       string
	OwnerColumn string
	OwnerTable  string
	OwnerName   string
	topLevel    map[string]bool
}

// Comment families
var (
	Forecasts = Family{
		Name:        "forecasts",
		Table:       "forecast_comments",
		OwnerColumn: "forecast_id",
		OwnerTable:  "forecast_requests",
		OwnerName:   "forecast",
		topLevel:    map[string]bool{"question": true, "note": true},
	}
	Reviews = Family{
		Name:        "reviews",
		Table:       "forecast_review_comments",
		OwnerColumn: "review_id",
		OwnerTable:  "forecast_reviews",
		OwnerName:   "review",
		topLevel:    map[string]bool{"question": true, "note": true, "feedback": true},
	}
	TradeReviews = Family{
		Name:        "trade-reviews",
		Table:       "trade_review_comments",
		OwnerColumn: "review_id",
		OwnerTable:  "trade_reviews",
		OwnerName:   "trade review",
		topLevel:    map[string]bool{"question": true, "note": true, "feedback": true},
	}
)

// AllowsTopLevel reports whether a comment of type t may start a thread
func (f Family) AllowsTopLevel(t string) bool {
	return f.topLevel[t]
}

// Node is one comment with its AI answer and replies.
type Node struct {
	models.CommentRow
	Answer  *Node   `json:"answer"`
	Replies []*Node `json:"replies"`
}

// BuildTree assembles all rows of a single owner into threads.
// Threads are newest first; replies are oldest first.
func BuildTree(rows []models.CommentRow, f Family) []*Node {
	children := indexChildren(rows)

	var top []models.CommentRow
	for _, r := range rows {
		if r.ParentCommentID == nil && f.AllowsTopLevel(r.CommentType) {
			top = append(top, r)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if !top[i].CreatedAt.Equal(top[j].CreatedAt) {
			return top[i].CreatedAt.After(top[j].CreatedAt)
		}
		return top[i].ID > top[j].ID
	})

	nodes := make([]*Node, 0, len(top))
	seen := make(map[int64]bool, len(rows))
	for _, r := range top {
		nodes = append(nodes, buildNode(r, children, seen))
	}
	return nodes
}

// BuildSubtree builds the node for id regardless of its position in the thread.
func BuildSubtree(rows []models.CommentRow, id int64) (*Node, bool) {
	children := indexChildren(rows)
	for _, r := range rows {
		if r.ID == id {
			return buildNode(r, children, make(map[int64]bool)), true
		}
	}
	return nil, false
}

// Descendants returns the IDs of every comment below id.
func Descendants(rows []models.CommentRow, id int64) []int64 {
	children := indexChildren(rows)
	var out []int64
	seen := map[int64]bool{id: true}
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return out
}

func indexChildren(rows []models.CommentRow) map[int64][]models.CommentRow {
	children := make(map[int64][]models.CommentRow)
	for _, r := range rows {
		if r.ParentCommentID != nil {
			children[*r.ParentCommentID] = append(children[*r.ParentCommentID], r)
		}
	}
	for id := range children {
		kids := children[id]
		sort.SliceStable(kids, func(i, j int) bool {
			if !kids[i].CreatedAt.Equal(kids[j].CreatedAt) {
				return kids[i].CreatedAt.Before(kids[j].CreatedAt)
			}
			return kids[i].ID < kids[j].ID
		})
	}
	return children
}

func buildNode(r models.CommentRow, children map[int64][]models.CommentRow, seen map[int64]bool) *Node {
	seen[r.ID] = true
	node := &Node{CommentRow: r, Replies: []*Node{}}
	for _, c := range children[r.ID] {
		if seen[c.ID] {
			continue
		}
		if c.CommentType == "answer" {
			if r.CommentType == "question" && node.Answer == nil {
				seen[c.ID] = true
				node.Answer = &Node{CommentRow: c, Replies: []*Node{}}
			}
			continue
		}
		node.Replies = append(node.Replies, buildNode(c, children, seen))
	}
	return node
}
