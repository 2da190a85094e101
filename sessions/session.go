package sessions

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/rafiq-client/internal/utils"
)

// undefinedToken is what a browser writes when an undefined token is stored.
const undefinedToken = "undefined"

// Session is a snapshot of the client's authentication state.
type Session struct {
	Token           *string // Credential token, nil when absent
	IsAuthenticated bool    // Derived from Token, see IsAuthenticated
	ProfileImage    *string // Cached profile image URL, independent of Token
}

func newSession(token, profileImage *string) Session {
	return Session{
		Token:           token,
		IsAuthenticated: IsAuthenticated(token),
		ProfileImage:    profileImage,
	}
}

// IsAuthenticated is true iff token is present, non-empty and not the
// literal "undefined".
func IsAuthenticated(token *string) bool {
	return token != nil && *token != "" && *token != undefinedToken
}

// Subject returns the unverified "sub" claim when the token is a JWT. The
// backend remains the authority on the token; this is for log context only.
func (s Session) Subject() string {
	if !s.IsAuthenticated {
		return ""
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(utils.Value(s.Token), &claims); err != nil {
		return ""
	}
	return claims.Subject
}
