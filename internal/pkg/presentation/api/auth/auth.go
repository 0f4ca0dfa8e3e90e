package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

type userContextKey struct{ name string }

var userCtxKey = &userContextKey{"owner"}

var tracer = otel.Tracer("hydroponic-mgmt/authz")

// NewAuthenticator prepares a rego query from the provided policy and
// returns a middleware that rejects requests without a valid bearer
// token. The policy decides who the caller is; the resulting identity is
// stored in the request context for the handlers to scope their work by.
func NewAuthenticator(ctx context.Context, logger zerolog.Logger, policies io.Reader) (func(http.Handler) http.Handler, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	query, err := rego.New(
		rego.Query("x = data.hydroponics.authz.allow"),
		rego.Module("hydroponics.rego", string(module)),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error

			_, span := tracer.Start(r.Context(), "check-auth")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

			token := r.Header.Get("Authorization")

			if token == "" || !strings.HasPrefix(token, "Bearer ") {
				err = errors.New("authorization header missing")
				logger.Info().Msg(err.Error())
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			input := map[string]any{
				"token":  token[7:],
				"path":   strings.Split(strings.Trim(r.URL.Path, "/"), "/"),
				"method": r.Method,
			}

			results, err := query.Eval(r.Context(), rego.EvalInput(input))
			if err != nil {
				logger.Error().Err(err).Msg("opa eval failed")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if len(results) == 0 {
				err = errors.New("opa query could not be satisfied")
				logger.Error().Err(err).Msg("auth failed")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			binding := results[0].Bindings["x"]

			// if authz fails we get back a single bool
			allowed, ok := binding.(bool)
			if ok && !allowed {
				err = errors.New("authorization failed")
				logger.Warn().Msg(err.Error())
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			result, ok := binding.(map[string]any)
			if !ok {
				err = errors.New("unexpected result type from authz policy engine")
				logger.Error().Err(err).Msg("opa error")
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			user, ok := result["user"].(string)
			if !ok || user == "" {
				err = errors.New("authz policy did not resolve a user identity")
				logger.Warn().Msg(err.Error())
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			r = r.WithContext(WithUser(r.Context(), user))

			next.ServeHTTP(w, r)
		})
	}, nil
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// GetUserFromContext returns the authenticated caller identity, or the
// empty string for unauthenticated contexts.
func GetUserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userCtxKey).(string)
	return user
}
