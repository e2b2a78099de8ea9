package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// tokenSuffix terminates every edit token so clients that mangle
// backslashes or plus signs are detected.
const tokenSuffix = `+\`

type actorKey struct{}

var errNoIdentity = errors.New("no identity")

// NewJWTAuth creates an HS256 authenticator for secret
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueJWT signs a token for actor. Used by tests and tooling.
func IssueJWT(auth *jwtauth.JWTAuth, actor simpleslots.Actor) (string, error) {
	_, token, err := auth.Encode(map[string]interface{}{
		"sub":  actor.ID.String(),
		"name": actor.Name,
	})
	return token, err
}

// EditTokens derives the anti-forgery tokens required by write requests.
type EditTokens struct {
	secret []byte
}

// NewEditTokens creates a token source keyed by secret
func NewEditTokens(secret string) *EditTokens {
	return &EditTokens{secret: []byte(secret)}
}

// Token returns the edit token of actor
func (t *EditTokens) Token(actor simpleslots.Actor) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(actor.ID.String()))
	return hex.EncodeToString(mac.Sum(nil)) + tokenSuffix
}

// Verify reports whether token belongs to actor
func (t *EditTokens) Verify(actor simpleslots.Actor, token string) bool {
	return hmac.Equal([]byte(t.Token(actor)), []byte(token))
}

// actorFromClaims reads the identity carried by a verified JWT
func actorFromClaims(ctx context.Context) (simpleslots.Actor, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return simpleslots.Actor{}, errNoIdentity
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return simpleslots.Actor{}, errNoIdentity
	}
	name, _ := claims["name"].(string)
	return simpleslots.Actor{ID: id, Name: name}, nil
}

// RequireActor rejects requests without a valid identity and stores the
// actor in the request context.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromClaims(r.Context())
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "notloggedin", "You must be logged in to edit.")
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor stored by RequireActor
func ActorFromContext(ctx context.Context) (simpleslots.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(simpleslots.Actor)
	return actor, ok
}
