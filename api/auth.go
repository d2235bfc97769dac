package api

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const defaultJWKSCacheTTL = 15 * time.Minute

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
	errNoLocalSecret        = errors.New("token issuance requires a local signing secret")
)

// Auth issues HS256 tokens signed with a local secret and validates incoming
// bearer tokens. When a JWKS is configured instead, validation switches to
// RS256 against the remote key set and issuance is disabled.
type Auth struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	secret   []byte
	tokenTTL time.Duration

	parser      *jwt.Parser
	laxParser   *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration

	now func() time.Time
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates an Auth that signs and verifies tokens with the given
// shared secret. Issued tokens expire after tokenTTL.
func NewAuth(secret []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		secret:    secret,
		tokenTTL:  tokenTTL,
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		laxParser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation()),
		now:       time.Now,
	}
}

// NewJWKSAuth creates an Auth that verifies RS256 tokens against a remote
// JWKS, optionally enforcing audience and issuer claims.
func NewJWKSAuth(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	return &Auth{
		jwks:        jwks,
		audience:    audience,
		issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		laxParser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation()),
		keyCacheTTL: defaultJWKSCacheTTL,
		now:         time.Now,
	}
}

// IssueToken signs a token for the given username.
func (a *Auth) IssueToken(username string) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errNoLocalSecret
	}
	now := a.now()
	expires := now.Add(a.tokenTTL)
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// UsernameFromAuthHeader extracts and validates the bearer token in h and
// returns its subject.
func (a *Auth) UsernameFromAuthHeader(h string) (string, error) {
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return a.username(token, a.parser, true)
}

// UsernameIgnoringExpiry resolves the subject of the bearer token in h
// without enforcing time-based claims.
func (a *Auth) UsernameIgnoringExpiry(h string) (string, error) {
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return a.username(token, a.laxParser, false)
}

func (a *Auth) username(token string, parser *jwt.Parser, checkTime bool) (string, error) {
	parsed, err := parser.Parse(token, a.keyFor)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if checkTime {
		now := a.now().Unix()
		if !claims.VerifyExpiresAt(now, true) {
			return "", errors.New("token expired")
		}
		if !claims.VerifyNotBefore(now, false) {
			return "", errors.New("token not valid yet")
		}
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, false) {
		return "", errors.New("invalid audience")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, false) {
		return "", errors.New("invalid issuer")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (a *Auth) keyFor(token *jwt.Token) (any, error) {
	if a.jwks == nil {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if a.now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}
	key, err := a.jwks.Keyfunc(token)
	if err != nil {
		return nil, err
	}
	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: a.now().Add(a.keyCacheTTL)})
	}
	return key, nil
}

// bearerToken strips the Bearer prefix from an Authorization header value.
func bearerToken(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadAuthorization
	}
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
