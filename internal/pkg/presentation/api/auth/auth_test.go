package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func testAuthenticator(t *testing.T) func(http.Handler) http.Handler {
	is := is.New(t)

	middleware, err := NewAuthenticator(context.Background(), zerolog.Nop(), strings.NewReader(policy))
	is.NoErr(err)

	return middleware
}

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserFromContext(r.Context())))
	})
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	is := is.New(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	res := httptest.NewRecorder()

	testAuthenticator(t)(echoUserHandler()).ServeHTTP(res, req)

	is.Equal(res.Code, http.StatusUnauthorized)
}

func TestMalformedAuthorizationHeaderIsUnauthorized(t *testing.T) {
	is := is.New(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	res := httptest.NewRecorder()

	testAuthenticator(t)(echoUserHandler()).ServeHTTP(res, req)

	is.Equal(res.Code, http.StatusUnauthorized)
}

func TestTokenWithoutSubjectIsUnauthorized(t *testing.T) {
	is := is.New(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token(""))
	res := httptest.NewRecorder()

	testAuthenticator(t)(echoUserHandler()).ServeHTTP(res, req)

	is.Equal(res.Code, http.StatusUnauthorized)
}

func TestAuthenticatedUserIsStoredInContext(t *testing.T) {
	is := is.New(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token("grower-1"))
	res := httptest.NewRecorder()

	testAuthenticator(t)(echoUserHandler()).ServeHTTP(res, req)

	is.Equal(res.Code, http.StatusOK)
	is.Equal(res.Body.String(), "grower-1")
}

func TestUnauthenticatedContextHasNoUser(t *testing.T) {
	is := is.New(t)

	is.Equal(GetUserFromContext(context.Background()), "")
}

func token(subject string) string {
	encode := func(v any) string {
		b, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(b)
	}

	return encode(map[string]string{"alg": "none", "typ": "JWT"}) + "." +
		encode(map[string]string{"sub": subject}) + "."
}

const policy string = `
package hydroponics.authz

default allow = false

allow = response {
	[_, payload, _] := io.jwt.decode(input.token)
	payload.sub != ""
	response := {"user": payload.sub}
}
`
