package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
)

var (
	contextTokenKey  = "memberToken"
	contextMemberKey = "member"
)

// Claims represents the authorization claims transmitted via a JWT.
// Role and OrganizationID are informative: every request reloads the member.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64       `json:"oriat,omitempty"`
	Email          string      `json:"email,omitempty"`
	Role           member.Role `json:"role,omitempty"`
	OrganizationID string      `json:"org,omitempty"`
}

type authConfig struct {
	jwt               middleware.JWTConfig
	issuer            string
	expiration        time.Duration
	refreshExpiration time.Duration
}

func newAuthConfig(conf *core.Config) *authConfig {
	return &authConfig{
		jwt: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		issuer:            conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
	}
}

func (auth *authConfig) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(auth.jwt)
}

func (auth *authConfig) memberClaims(mbr member.Member, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    auth.issuer,
			Subject:   mbr.ID,
			ExpiresAt: now.Add(auth.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		Email:          mbr.Email,
		Role:           mbr.Role,
		OrganizationID: mbr.OrganizationID,
	}
}

// generateToken signs a JWT representing the member Claims.
func (auth *authConfig) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(auth.jwt.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(auth.jwt.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (auth *authConfig) tokenFor(mbr member.Member) (string, error) {
	return auth.generateToken(auth.memberClaims(mbr))
}

// refreshToken issues a new token for the context member, as long as the original login
// is younger than the refresh expiration.
func (auth *authConfig) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	mbr, err := getContextMember(ctx)
	if err != nil {
		return "", err
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(auth.refreshExpiration)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}
	return auth.generateToken(auth.memberClaims(mbr, claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextMember returns the member loaded by memberMiddleware.
func getContextMember(ctx echo.Context) (member.Member, error) {
	if mbr, ok := ctx.Get(contextMemberKey).(member.Member); ok {
		return mbr, nil
	}
	return member.Member{}, errUnauthorized
}
