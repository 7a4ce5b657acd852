package hackorsnooze

import "time"

// Token is the opaque login token issued by signup and login. It prints as
// a placeholder so it cannot leak through fmt or log output; use Reveal
// where the raw value is genuinely needed.
type Token string

func (t Token) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

func (t Token) GoString() string { return `hackorsnooze.Token("[redacted]")` }

// Reveal returns the raw token.
func (t Token) Reveal() string { return string(t) }

// StoryRecord is a story as the API serializes it.
type StoryRecord struct {
	StoryID   string    `json:"storyId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRecord is a user as the API serializes it. Stories are the stories
// the user posted.
type UserRecord struct {
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	Favorites []StoryRecord `json:"favorites"`
	Stories   []StoryRecord `json:"stories"`
}

// NewStory is the payload for creating a story.
type NewStory struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// Credentials is the payload for signup and login. Name is ignored by login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// ProfileUpdate carries the fields a user may change. Empty fields are not sent.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
}

// AuthResult is the answer to signup and login.
type AuthResult struct {
	Token Token
	User  UserRecord
}

type storiesEnvelope struct {
	Stories []StoryRecord `json:"stories"`
}

type storyEnvelope struct {
	Story StoryRecord `json:"story"`
}

type userEnvelope struct {
	User UserRecord `json:"user"`
}

type authEnvelope struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}

type favoriteEnvelope struct {
	Message string      `json:"message"`
	User    *UserRecord `json:"user"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type createStoryBody struct {
	Token string   `json:"token"`
	Story NewStory `json:"story"`
}

type credentialsBody struct {
	User Credentials `json:"user"`
}

type updateUserBody struct {
	Token string        `json:"token"`
	User  ProfileUpdate `json:"user"`
}
