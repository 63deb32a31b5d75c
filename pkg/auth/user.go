package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// User is the caller identity a transport hands to the request handler.
type User interface {
	IsAuthenticated() bool
	UserName() string
}

/*
UserBuilder turns the raw Authorization header of an incoming call into a
User. Builders never fail: a credential that does not check out yields an
anonymous user, and the handler decides what anonymous callers may do.
*/
type UserBuilder func(authorization string) User

// AnonymousUser is the identity of calls without usable credentials.
type AnonymousUser struct{}

func (AnonymousUser) IsAuthenticated() bool { return false }
func (AnonymousUser) UserName() string      { return "" }

// jwtUser is a caller identified by a verified bearer token.
type jwtUser struct {
	subject string
}

func (user jwtUser) IsAuthenticated() bool { return true }
func (user jwtUser) UserName() string      { return user.subject }

/*
BearerUserBuilder verifies HMAC-signed bearer tokens against a shared
signing key and identifies the caller by the token's subject claim.
Anything else, a missing header included, produces an anonymous user.
*/
func BearerUserBuilder(signingKey []byte) UserBuilder {
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	}

	return func(authorization string) User {
		tokenStr, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || tokenStr == "" {
			return AnonymousUser{}
		}

		token, err := jwt.Parse(tokenStr, keyFunc)
		if err != nil || !token.Valid {
			return AnonymousUser{}
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return AnonymousUser{}
		}

		return jwtUser{subject: subject}
	}
}

// NoopUserBuilder treats every caller as anonymous. It is the default when
// a server is configured without authentication.
func NoopUserBuilder(string) User {
	return AnonymousUser{}
}
