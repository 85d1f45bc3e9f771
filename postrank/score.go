package postrank

import "github.com/nvello/feedpilot/feedex"

// Engagement weights. Comments cost the audience the most effort, then
// reposts; views are nearly free and weighted accordingly.
const (
	commentWeight = 3
	repostWeight  = 2
	viewWeight    = 0.02
)

// Score computes the engagement score of a post. Unknown counters
// contribute zero.
func Score(p *feedex.Post) float64 {
	return float64(orZero(p.Reactions)) +
		commentWeight*float64(orZero(p.Comments)) +
		repostWeight*float64(orZero(p.Reposts)) +
		viewWeight*float64(orZero(p.Views))
}

func orZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
