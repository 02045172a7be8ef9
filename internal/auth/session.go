package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NorthBridgeLabs/billdesk/pkg/billing"
)

// RoleManager is the only role the admin surface accepts.
const RoleManager = "manager"

const claimRole = "role"

// Errors returned by session parsing.
var (
	ErrInvalidSessionConfig = errors.New("invalid session config")
	ErrInvalidSession       = errors.New("invalid session")
	ErrWrongRole            = errors.New("session role is not manager")
)

// Session is the authenticated principal carried by a request.
type Session struct {
	ManagerID billing.ManagerID
	Role      string
}

// SessionManager mints and verifies signed session cookies.
type SessionManager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewSessionManager wires a SessionManager.
func NewSessionManager(signingKey []byte, issuer string, ttl time.Duration) (*SessionManager, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidSessionConfig)
	}
	if issuer == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidSessionConfig)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidSessionConfig)
	}
	return &SessionManager{signingKey: signingKey, issuer: issuer, ttl: ttl}, nil
}

// Issue signs a session token for the manager.
func (manager *SessionManager) Issue(managerID billing.ManagerID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":     manager.issuer,
		"sub":     strconv.FormatInt(managerID.Int64(), 10),
		"iat":     now.Unix(),
		"exp":     now.Add(manager.ttl).Unix(),
		"jti":     uuid.NewString(),
		claimRole: RoleManager,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(manager.signingKey)
}

// Parse verifies a session token and returns its principal.
func (manager *SessionManager) Parse(raw string) (Session, error) {
	token, err := jwt.Parse(raw,
		func(token *jwt.Token) (interface{}, error) { return manager.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(manager.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidSession)
	}
	role, _ := claims[claimRole].(string)
	if role != RoleManager {
		return Session{}, ErrWrongRole
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	rawID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("%w: malformed subject", ErrInvalidSession)
	}
	managerID, err := billing.NewManagerID(rawID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: malformed subject", ErrInvalidSession)
	}
	return Session{ManagerID: managerID, Role: role}, nil
}

// TTL exposes the configured session lifetime.
func (manager *SessionManager) TTL() time.Duration {
	return manager.ttl
}
