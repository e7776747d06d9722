package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the signed-in view of the user carried into every action.
func (u User) Identity() Identity {
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return Identity{ID: u.ID, DisplayName: name, AvatarURL: u.AvatarURL, Email: u.Email}
}

// Identity is the caller of an action. It is passed explicitly to every
// service method; the zero value means nobody is signed in.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Email       string `json:"email,omitempty"`
}

func (i Identity) SignedIn() bool {
	return i.ID != ""
}

// Name returns the display name snapshot stored on posts, comments and RSVPs.
func (i Identity) Name() string {
	if i.DisplayName == "" {
		return "Anonymous"
	}
	return i.DisplayName
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
