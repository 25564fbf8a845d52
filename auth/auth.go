package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"usercenter/database"
	"usercenter/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// signingKey must come from configuration in real deployments; the default
// only exists so the package is usable in tests without setup.
var signingKey = []byte("default-very-insecure-secret-key")

var tokenTTL = 24 * time.Hour

// SetSigningKey allows setting the key from outside the package.
func SetSigningKey(key []byte) {
	if len(key) > 0 {
		signingKey = key
	}
}

// SetTokenTTL overrides the token lifetime.
func SetTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// CustomClaims represents the custom claims carried in issued JWTs.
type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user. Every token gets a
// unique ID so it can be individually revoked at logout.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "user-center",
			Subject:   "user-auth",
			Audience:  []string{"user-center-clients"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ParseAndValidateToken verifies the signature and time claims of a token.
func ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// UserHasPermissions checks if the user has all required permissions
func UserHasPermissions(userID uint, requiredPermissions ...string) (bool, error) {
	if len(requiredPermissions) == 0 {
		return true, nil
	}

	if database.DB == nil {
		return false, errors.New("database connection is not initialized for permission check")
	}

	var user models.User
	err := database.DB.Preload("Roles.Permissions").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("user with ID %d not found", userID)
		}
		return false, fmt.Errorf("database error checking permissions for user %d: %w", userID, err)
	}

	userPermissions := make(map[string]struct{})
	for _, role := range user.Roles {
		for _, perm := range role.Permissions {
			userPermissions[perm.Name] = struct{}{}
		}
	}

	for _, reqPerm := range requiredPermissions {
		if _, ok := userPermissions[reqPerm]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// bearerToken extracts the token string from an Authorization header value.
func bearerToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// AuthFilter creates a go-restful FilterFunction for JWT authentication.
// Tokens revoked at logout are rejected for as long as they would otherwise
// remain valid.
func AuthFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authorization header required"}, restful.MIME_JSON)
			return
		}

		tokenString, err := bearerToken(authHeader)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		claims, err := ParseAndValidateToken(tokenString)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		if revoked := tokenRevoked(req, claims); revoked {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "token has been revoked"}, restful.MIME_JSON)
			return
		}

		// Store user information in request attributes for use by handlers
		req.SetAttribute("user_id", claims.UserID)
		req.SetAttribute("email", claims.Email)
		req.SetAttribute("token_claims", claims)

		chain.ProcessFilter(req, resp)
	}
}

func tokenRevoked(req *restful.Request, claims *CustomClaims) bool {
	if denylist == nil || claims.ID == "" {
		return false
	}
	revoked, err := denylist.IsRevoked(req.Request.Context(), claims.ID)
	if err != nil {
		// Denylist unavailable: fail open, the token signature already
		// checked out.
		return false
	}
	return revoked
}
