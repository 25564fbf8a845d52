package auth

import (
	"errors"
	"net/http"

	"usercenter/database"
	"usercenter/models"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginCredentials defines the structure of the login request
type LoginCredentials struct {
	Email    string `json:"email" description:"Email address for login"`
	Password string `json:"password" description:"Password for login"`
}

// LoginResponse defines the structure of the login response
type LoginResponse struct {
	Token   string `json:"token,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewWebService builds the /auth WebService with login and logout routes.
func NewWebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/login").To(LoginRouteHandler).
		Doc("Authenticate with email and password").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(LoginCredentials{}).
		Returns(http.StatusOK, "Token issued (or caller already authenticated)", LoginResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Invalid credentials", nil))

	ws.Route(ws.POST("/logout").Filter(AuthFilter()).To(LogoutRouteHandler).
		Doc("Revoke the presented token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Returns(http.StatusOK, "Logged out", LoginResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	return ws
}

// LoginRouteHandler handles POST /auth/login. A request that already
// carries a valid token is answered with the current identity instead of a
// fresh token, mirroring the redirect-away-from-login behavior of form
// login flows.
func LoginRouteHandler(request *restful.Request, response *restful.Response) {
	if authHeader := request.HeaderParameter("Authorization"); authHeader != "" {
		if tokenString, err := bearerToken(authHeader); err == nil {
			if claims, err := ParseAndValidateToken(tokenString); err == nil && !tokenRevoked(request, claims) {
				_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{
					Email:   claims.Email,
					Message: "already authenticated",
				}, restful.MIME_JSON)
				return
			}
		}
	}

	creds := new(LoginCredentials)
	if err := request.ReadEntity(creds); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Invalid request body: " + err.Error()}, restful.MIME_JSON)
		return
	}

	if creds.Email == "" || creds.Password == "" {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Email and password are required"}, restful.MIME_JSON)
		return
	}

	var user models.User
	result := database.DB.Where("email = ?", creds.Email).First(&user)
	if result.Error != nil {
		// Avoid revealing whether the account exists
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Invalid credentials"}, restful.MIME_JSON)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusInternalServerError, LoginResponse{Message: "Internal server error"}, restful.MIME_JSON)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Invalid credentials"}, restful.MIME_JSON)
		return
	}

	if !user.Active {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Account is disabled"}, restful.MIME_JSON)
		return
	}

	token, err := GenerateToken(&user)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusInternalServerError, LoginResponse{Message: "Could not generate token"}, restful.MIME_JSON)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{Token: token, Email: user.Email}, restful.MIME_JSON)
}

// LogoutRouteHandler handles POST /auth/logout. The presented token's ID is
// denylisted until its natural expiry; without a denylist logout reduces to
// the client discarding the token.
func LogoutRouteHandler(request *restful.Request, response *restful.Response) {
	claims, ok := request.Attribute("token_claims").(*CustomClaims)
	if !ok {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Unauthorized"}, restful.MIME_JSON)
		return
	}

	if denylist != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := denylist.Revoke(request.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			_ = response.WriteHeaderAndJson(http.StatusInternalServerError, LoginResponse{Message: "Could not revoke token"}, restful.MIME_JSON)
			return
		}
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{Message: "logged out"}, restful.MIME_JSON)
}
