package models

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	AvatarURL   string `json:"avatarUrl"`
	Role        string `json:"role"`
	Password    []byte `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the minimal identity the token issuer needs. User satisfies
// it; an externally-issued identity can feed the same issuer later.
type Principal interface {
	PrincipalID() int
	PrincipalUsername() string
}

func (u User) PrincipalID() int { return u.ID }

func (u User) PrincipalUsername() string { return u.Username }
