package services

import (
	"checkquest/config"
	"checkquest/database"
	"checkquest/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// TokenVerifier validates a Google ID token for an audience
type TokenVerifier func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// AuthService handles authentication business logic
type AuthService struct {
	repo         AuthRepository
	sessionStore SessionStore
	oauthConfig  *oauth2.Config
	userInfoURL  string
	verify       TokenVerifier
	httpClient   *http.Client
}

// NewAuthService creates a new auth service
func NewAuthService(repo AuthRepository, sessionStore SessionStore) *AuthService {
	return &AuthService{
		repo:         repo,
		sessionStore: sessionStore,
		oauthConfig: &oauth2.Config{
			ClientID:     config.AppConfig.GoogleClientID,
			ClientSecret: config.AppConfig.GoogleClientSecret,
			RedirectURL:  config.AppConfig.GoogleRedirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		verify:      idtoken.Validate,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// UserInfo represents user information from Google
type UserInfo struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// LoginResponse contains the session and the signed-in user
type LoginResponse struct {
	Session   *models.Session
	User      *models.User
	FirstUser bool
}

// LoginWithCode handles login via OAuth authorization code
func (as *AuthService) LoginWithCode(ctx context.Context, code string) (*LoginResponse, error) {
	token, err := as.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, ErrInvalidAuthCode
	}

	info, err := as.getUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return as.login(info)
}

// LoginWithIDToken handles login via Google One Tap ID token
func (as *AuthService) LoginWithIDToken(ctx context.Context, idToken string) (*LoginResponse, error) {
	info, err := as.verifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return as.login(info)
}

// Authenticate resolves a bearer ID token into a request-scoped session
// without storing anything. The user must already exist.
func (as *AuthService) Authenticate(ctx context.Context, idToken string) (*models.Session, error) {
	info, err := as.verifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	user, err := as.repo.GetUserByGoogleID(info.GoogleID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	now := time.Now()
	return &models.Session{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		Name:           user.Name,
		Picture:        user.Picture,
		Role:           user.Role,
		ExpiresAt:      now.Add(time.Hour),
		CreatedAt:      now,
		LastUsedAt:     now,
	}, nil
}

func (as *AuthService) verifyIDToken(ctx context.Context, idToken string) (*UserInfo, error) {
	payload, err := as.verify(ctx, idToken, as.oauthConfig.ClientID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	if payload.Subject == "" || email == "" {
		return nil, ErrInvalidUserInfo
	}

	return &UserInfo{
		GoogleID: payload.Subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
	}, nil
}

// login attaches the Google identity to a user in the default
// organization. The organization's first user becomes its admin.
func (as *AuthService) login(info *UserInfo) (*LoginResponse, error) {
	org, err := as.defaultOrganization()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := as.repo.GetUserByGoogleID(info.GoogleID)
	if err != nil {
		return nil, err
	}

	firstUser := false
	if user == nil {
		count, err := as.repo.CountUsers(org.ID)
		if err != nil {
			return nil, err
		}
		firstUser = count == 0
		role := models.RoleOperator
		if firstUser {
			role = models.RoleAdmin
		}
		user = &models.User{
			ID:             uuid.New().String(),
			OrganizationID: org.ID,
			GoogleID:       info.GoogleID,
			Role:           role,
			CreatedAt:      now,
		}
	}
	user.Email = info.Email
	user.Name = info.Name
	user.Picture = info.Picture
	user.LastLoginAt = now

	if err := as.repo.UpsertUser(user); err != nil {
		return nil, err
	}

	sess, err := as.sessionStore.Create(user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Session: sess, User: user, FirstUser: firstUser}, nil
}

func (as *AuthService) defaultOrganization() (*models.Organization, error) {
	slug := config.AppConfig.DefaultOrganization
	org, err := as.repo.GetOrganizationBySlug(slug)
	if err != nil {
		return nil, err
	}
	if org != nil {
		return org, nil
	}

	org = &models.Organization{
		ID:        uuid.New().String(),
		Name:      organizationName(slug),
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}
	if err := as.repo.CreateOrganization(org); err != nil {
		// Lost a race with a concurrent first login.
		if existing, lookupErr := as.repo.GetOrganizationBySlug(slug); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return org, nil
}

func organizationName(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Logout handles user logout
func (as *AuthService) Logout(sessionID string) error {
	return as.sessionStore.Delete(sessionID)
}

// GetSessionInfo returns current session information
func (as *AuthService) GetSessionInfo(sessionID string) (*models.Session, error) {
	sess, err := as.sessionStore.Get(sessionID)
	if err != nil || sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ListMembers returns the users of the actor's organization
func (as *AuthService) ListMembers(actor Actor) ([]models.User, error) {
	if !actor.Role.CanManage() {
		return nil, ErrForbidden
	}
	return as.repo.ListUsers(actor.OrganizationID)
}

// ChangeRole sets a member's role. Admins cannot demote themselves so an
// organization always keeps one.
func (as *AuthService) ChangeRole(actor Actor, userID string, role models.Role) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if userID == actor.UserID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot demote yourself", ErrForbidden)
	}

	user, err := as.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.OrganizationID != actor.OrganizationID {
		return nil, ErrUserNotFound
	}

	if err := as.repo.UpdateUserRole(userID, role); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = role
	return user, nil
}

// getUserInfo fetches user information from Google
func (as *AuthService) getUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, as.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := as.httpClient.Do(req)
	if err != nil {
		return nil, ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var data struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, ErrInvalidToken
	}
	if data.Sub == "" || data.Email == "" {
		return nil, ErrInvalidUserInfo
	}

	return &UserInfo{
		GoogleID: data.Sub,
		Email:    data.Email,
		Name:     data.Name,
		Picture:  data.Picture,
	}, nil
}
