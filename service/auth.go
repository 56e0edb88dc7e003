package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/mq"
	"golang.org/x/oauth2"
)

// New accounts start with a small allowance of assistant-chat tokens;
// paid plans bypass the token gate entirely.
const initialChatTokens = 10

const defaultTimezone = "America/Chicago"

// Provider-specific structs
type gitHubUser struct {
	Login string `json:"login"`
	ID    int    `json:"id"`
}

type googleUser struct {
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

var oauthAPIs = map[string]struct {
	URL     string
	Headers map[string]string
}{
	"github": {
		URL: "https://api.github.com/user",
		Headers: map[string]string{
			"X-GitHub-Api-Version": "2022-11-28",
		},
	},
	"google": {
		URL:     "https://openidconnect.googleapis.com/v1/userinfo",
		Headers: map[string]string{},
	},
}

var oauthConfigsTemplate = map[string]*oauth2.Config{
	"github": {
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://github.com/login/oauth/authorize",
			TokenURL: "https://github.com/login/oauth/access_token",
		},
		Scopes: []string{""},
	},
	"google": {
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"openid", "email"},
	},
}

func addOauthEndpointsAndScopes(oauthConfigs map[string]*oauth2.Config) (map[string]*oauth2.Config, error) {
	for provider := range oauthConfigs {
		template, ok := oauthConfigsTemplate[provider]
		if !ok {
			return nil, fmt.Errorf("unsupported provider: %s", provider)
		}
		oauthConfigs[provider].Endpoint = template.Endpoint
		oauthConfigs[provider].Scopes = template.Scopes
	}

	return oauthConfigs, nil
}

func (s *Service) HandleOauth(ctx context.Context, provider string, code string) (models.User, error) {
	conf, ok := s.OAuthConfigs[provider]
	if !ok {
		return models.User{}, fmt.Errorf("unsupported provider: %s", provider)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		log.Println("Error:", err)
		return models.User{}, err
	}

	client := conf.Client(ctx, tok)
	api, ok := oauthAPIs[provider]
	if !ok {
		return models.User{}, fmt.Errorf("unsupported provider: %s", provider)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", api.URL, nil)
	if err != nil {
		log.Println("Error:", err)
		return models.User{}, err
	}
	for k, v := range api.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Println("Error:", err)
		return models.User{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Println("Error:", err)
		return models.User{}, err
	}

	return parseUser(body, provider)
}

func parseUser(jsonData []byte, provider string) (models.User, error) {
	var u models.User
	u.Provider = provider

	switch provider {
	case "github":
		var gh gitHubUser
		if err := json.Unmarshal(jsonData, &gh); err != nil {
			return models.User{}, err
		}
		u.Email = gh.Login
		u.ProviderId = strconv.Itoa(gh.ID)
	case "google":
		var g googleUser
		if err := json.Unmarshal(jsonData, &g); err != nil {
			return models.User{}, err
		}
		u.Email = g.Email
		u.ProviderId = g.Sub
	default:
		return models.User{}, fmt.Errorf("unsupported provider: %s", provider)
	}

	return u, nil
}

func (s *Service) CreateJWT(userId string) (string, error) {
	claims := jwt.MapClaims{
		"uid": userId,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (s *Service) VerifyJWT(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", time.Time{}, err
	}

	if !token.Valid {
		return "", time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("invalid token claims")
	}

	uid, ok := claims["uid"].(string)
	if !ok {
		return "", time.Time{}, errors.New("missing uid claim")
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return "", time.Time{}, errors.New("missing exp claim")
	}
	expiry := time.Unix(int64(expFloat), 0)

	return uid, expiry, nil
}

func (s *Service) AuthenticateToken(ctx context.Context, token string) (models.User, error) {
	if len(token) == 0 {
		return models.User{}, errors.New("token not provided")
	}

	uid, _, err := s.VerifyJWT(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.Store.GetUser(ctx, uid)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, provider, code string) (models.User, string, error) {
	user, err := s.HandleOauth(ctx, provider, code)
	if err != nil {
		return models.User{}, "", fmt.Errorf("oauth failed: %w", err)
	}

	user.Timezone = defaultTimezone
	user.Plan = models.PlanFree
	user.ChatTokens = initialChatTokens

	ensuredUser, _, err := s.Store.EnsureUser(ctx, user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("ensure user failed: %w", err)
	}

	token, err := s.CreateJWT(ensuredUser.Id)
	if err != nil {
		return models.User{}, "", fmt.Errorf("token generation failed: %w", err)
	}

	return ensuredUser, token, nil
}

// GetUser returns the caller's profile. Authentication already loaded
// it; this exists so the read is counted by the limiter like every
// other operation.
func (s *Service) GetUser(ctx context.Context, user models.User) (models.User, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, user models.User) error {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return err
	}

	if err := s.Store.DeleteUser(ctx, user.Id); err != nil {
		return err
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		s.Cache.InvalidateStreak(context.Background(), user.Id)

		msg := mq.PurgeUserDataMessage{UserId: user.Id}
		if msgBytes, err := json.Marshal(msg); err == nil {
			if err := s.PurgeQueue.Send(context.Background(), string(msgBytes)); err != nil {
				log.Printf("Failed to enqueue purge for user %s: %v", user.Id, err)
			}
		}
	}()

	return nil
}
