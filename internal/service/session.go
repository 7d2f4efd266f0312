package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/affeed/affeed/internal/model"
	"github.com/affeed/affeed/internal/repository"
)

var ErrUnknownScreen = errors.New("unknown screen")

// SessionService is the session controller: it establishes the active
// identity from the roster, issues the session cookie, and switches
// between the feed and composer screens.
type SessionService struct {
	users        repository.UserRepository
	sessions     *repository.SessionStore
	composer     *ComposerService
	jwtSecret    string
	expiry       time.Duration
	isProduction bool
}

func NewSessionService(
	users repository.UserRepository,
	sessions *repository.SessionStore,
	composer *ComposerService,
	jwtSecret string,
	expiry time.Duration,
	isProduction bool,
) *SessionService {
	return &SessionService{
		users:        users,
		sessions:     sessions,
		composer:     composer,
		jwtSecret:    jwtSecret,
		expiry:       expiry,
		isProduction: isProduction,
	}
}

// Users returns the roster to pick an identity from.
func (s *SessionService) Users() ([]*model.User, error) {
	return s.users.All()
}

// UserByID resolves a roster identity.
func (s *SessionService) UserByID(id string) (*model.User, error) {
	return s.users.ByID(id)
}

// Login validates roster membership and opens a session for the user.
func (s *SessionService) Login(userID string) (*model.User, *repository.Session, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		return nil, nil, err
	}

	sess := s.sessions.Create(user.ID)
	return user, sess, nil
}

// Logout discards the session. The store's eviction hook releases any
// draft media still attached.
func (s *SessionService) Logout(sessionID string) {
	s.sessions.Delete(sessionID)
}

// Session returns the current session state.
func (s *SessionService) Session(sessionID string) (*repository.Session, error) {
	return s.sessions.Get(sessionID)
}

// Navigate switches the current screen. Leaving the composer without
// publishing discards the draft, preview reference included.
func (s *SessionService) Navigate(sessionID, screen string) (*repository.Session, error) {
	if screen != model.ScreenFeed && screen != model.ScreenComposer {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScreen, screen)
	}

	if screen == model.ScreenFeed {
		err := s.composer.Reset(sessionID)
		if err != nil {
			return nil, err
		}
	}

	return s.sessions.Update(sessionID, func(sess *repository.Session) error {
		sess.Screen = screen
		return nil
	})
}

func (s *SessionService) GenerateJWT(user *model.User, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"session_id": sessionID,
		"exp":        time.Now().Add(s.expiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *SessionService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *SessionService) SetJWTCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  time.Now().Add(s.expiry),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
