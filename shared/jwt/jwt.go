package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

type JwtService interface {
	NewToken(viewer domain.Viewer) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
	DecodeViewer(jwtStr string) (domain.Viewer, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

// NewToken is used by tests and local tooling; production tokens are issued by
// the session service.
func (j *Jwt) NewToken(viewer domain.Viewer) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = viewer.Id
	claims["role"] = string(viewer.Role)
	claims["name"] = viewer.Name
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("can't sign token", "error", err)
		return "", errors.New("Can't create token")
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}
	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}
	return token, nil
}

// ErrInvalidClaims is returned when a valid token lacks the viewer claims.
var ErrInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}

func (j *Jwt) DecodeViewer(jwtStr string) (domain.Viewer, error) {
	token, err := j.DecodeToken(jwtStr)
	if err != nil {
		return domain.Viewer{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Viewer{}, ErrInvalidClaims
	}
	uid, ok := claims["uid"].(float64)
	if !ok {
		return domain.Viewer{}, ErrInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok {
		return domain.Viewer{}, ErrInvalidClaims
	}
	viewer := domain.Viewer{Id: int64(uid), Role: domain.ParticipantType(role)}
	switch viewer.Role {
	case domain.ParticipantClinic, domain.ParticipantOperator:
	default:
		return domain.Viewer{}, ErrInvalidClaims
	}
	if name, ok := claims["name"].(string); ok {
		viewer.Name = name
	}
	return viewer, nil
}
