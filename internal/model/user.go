package model

import "time"

// DefaultDisplayName is used when the identity provider supplies no name.
const DefaultDisplayName = "Athlete"

// UserProfile is the directory entry of one user.
type UserProfile struct {
	UID          string      `json:"uid" db:"uid"`
	DisplayName  string      `json:"display_name" db:"display_name"`
	PhotoURL     string      `json:"photo_url" db:"photo_url"`
	Email        string      `json:"email,omitempty" db:"email"`
	Online       bool        `json:"online" db:"online"`
	LastSeen     time.Time   `json:"last_seen" db:"last_seen"`
	Title        string      `json:"title" db:"title"`
	Location     string      `json:"location" db:"location"`
	About        string      `json:"about" db:"about"`
	SocialLinks  SocialLinks `json:"social_links" db:"social_links"`
	Achievements []string    `json:"achievements" db:"achievements"`
	Games        Games       `json:"games" db:"games"`
	CreateAt     time.Time   `json:"create_at" db:"create_at"`
	UpdateAt     time.Time   `json:"update_at" db:"update_at"`
}

// SocialLinks are the external profiles a user links to.
type SocialLinks struct {
	LinkedIn    string `json:"linkedin"`
	Instagram   string `json:"instagram"`
	Twitter     string `json:"twitter"`
	CricProfile string `json:"cricprofile"`
}

// Games lists the games a user plays, grouped by kind.
type Games struct {
	Outdoor []string `json:"outdoor"`
	Indoor  []string `json:"indoor"`
	Esports []string `json:"esports"`
}

// Identity is what the identity provider tells us about a signed-in user.
type Identity struct {
	UID         string
	DisplayName string
	PhotoURL    string
	Email       string
}

// ProfileUpdate holds editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName  *string      `json:"display_name"`
	Title        *string      `json:"title"`
	Location     *string      `json:"location"`
	About        *string      `json:"about"`
	SocialLinks  *SocialLinks `json:"social_links"`
	Achievements *[]string    `json:"achievements"`
	Games        *Games       `json:"games"`
}

// Apply copies the set fields of u onto p.
func (u *ProfileUpdate) Apply(p *UserProfile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.About != nil {
		p.About = *u.About
	}
	if u.SocialLinks != nil {
		p.SocialLinks = *u.SocialLinks
	}
	if u.Achievements != nil {
		p.Achievements = *u.Achievements
	}
	if u.Games != nil {
		p.Games = *u.Games
	}
}
