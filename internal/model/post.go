package model

import (
	"slices"
	"time"
)

// Sport tags a post with the sport it is about.
type Sport string

const (
	SportAll       Sport = "All"
	SportCricket   Sport = "Cricket"
	SportFootball  Sport = "Football"
	SportBadminton Sport = "Badminton"
	SportTennis    Sport = "Tennis"
	SportAthletics Sport = "Athletics"
	SportEsports   Sport = "Esports"
	SportOther     Sport = "Other"
)

// Sports lists the tags a post can carry.
var Sports = []Sport{
	SportCricket, SportFootball, SportBadminton, SportTennis, SportAthletics, SportEsports, SportOther,
}

// ParseSport validates a post tag. Empty input means Other.
func ParseSport(s string) (Sport, bool) {
	if s == "" {
		return SportOther, true
	}
	sport := Sport(s)
	return sport, slices.Contains(Sports, sport)
}

// ParseSportFilter validates a feed filter. Empty input means All.
func ParseSportFilter(s string) (Sport, bool) {
	if s == "" || Sport(s) == SportAll {
		return SportAll, true
	}
	sport := Sport(s)
	return sport, slices.Contains(Sports, sport)
}

// Post is a feed entry. Author fields are copied at creation and never
// refreshed.
type Post struct {
	ID           int64     `json:"id,string" db:"id"`
	AuthorID     string    `json:"author_id" db:"author_id"`
	AuthorName   string    `json:"author_name" db:"author_name"`
	AuthorPhoto  string    `json:"author_photo" db:"author_photo"`
	Content      string    `json:"content" db:"content"`
	ImageURL     string    `json:"image_url,omitempty" db:"image_url"`
	Sport        Sport     `json:"sport" db:"sport"`
	CreateAt     time.Time `json:"create_at" db:"create_at"`
	LikedBy      []string  `json:"liked_by" db:"liked_by"`
	CommentCount int       `json:"comment_count" db:"comment_count"`
}

// LikedByUser reports whether uid is in the liker set.
func (p *Post) LikedByUser(uid string) bool {
	return slices.Contains(p.LikedBy, uid)
}

// LikeCount returns the size of the liker set.
func (p *Post) LikeCount() int {
	return len(p.LikedBy)
}

// PostView is a post as seen by one user.
type PostView struct {
	*Post
	LikeCount int  `json:"like_count"`
	LikedByMe bool `json:"liked_by_me"`
}

// ViewFor returns the post as seen by viewer.
func (p *Post) ViewFor(viewer string) PostView {
	return PostView{Post: p, LikeCount: p.LikeCount(), LikedByMe: p.LikedByUser(viewer)}
}

// ViewPosts maps posts to viewer's views. The result is never nil.
func ViewPosts(posts []*Post, viewer string) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.ViewFor(viewer))
	}
	return views
}

// FilterBySport keeps the posts tagged sport, preserving order. SportAll
// keeps everything.
func FilterBySport(posts []*Post, sport Sport) []*Post {
	if sport == SportAll || sport == "" {
		return posts
	}
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p.Sport == sport {
			out = append(out, p)
		}
	}
	return out
}

// Comment is an append-only reply to a post.
type Comment struct {
	ID          int64     `json:"id,string" db:"id"`
	PostID      int64     `json:"post_id,string" db:"post_id"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	AuthorName  string    `json:"author_name" db:"author_name"`
	AuthorPhoto string    `json:"author_photo" db:"author_photo"`
	Text        string    `json:"text" db:"text"`
	CreateAt    time.Time `json:"create_at" db:"create_at"`
}
