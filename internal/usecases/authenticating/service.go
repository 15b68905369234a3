package authenticating

import (
	"fmt"
	"strings"
	"time"

	"github.com/elcacique/ventas-core/infrastructure/repository"
	"github.com/elcacique/ventas-core/internal/config"
	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Authenticator interface {
	CreateUser(username, password string, isAdmin bool) (*domain.User, error)
	VerifyUser(username, password string) (*domain.User, error)
	LoginUser(username, password string) (string, error)
	ValidateToken(tokenString string) (*domain.Claims, error)
	ChangePassword(username, currentPassword, newPassword string) error
	EnsureDefaultAdmin() error
}

type Service struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewService(userRepo repository.UserRepository, cfg *config.Config) Authenticator {
	return &Service{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// handleUsername normaliza el nombre de usuario: minúsculas y sin
// espacios en los bordes. Dos nombres que normalizan igual son el
// mismo usuario.
func handleUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateUser registra un usuario nuevo con la contraseña hasheada con
// bcrypt. El nombre se normaliza antes de persistir.
func (s *Service) CreateUser(username, password string, isAdmin bool) (*domain.User, error) {
	username = handleUsername(username)
	if username == "" || password == "" {
		return nil, NewAuthError(ErrMissingRequiredData, "usuario y contraseña son obligatorios")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(username, string(hashedPassword), isAdmin)
	if err != nil {
		if err == repository.ErrUsernameTaken {
			return nil, NewUserAuthError(ErrUserAlreadyExists, username, "el nombre ya está registrado")
		}
		return nil, err
	}

	return user, nil
}

// VerifyUser valida usuario y contraseña. Usuario inexistente y
// contraseña incorrecta devuelven el mismo error para no filtrar qué
// nombres existen.
func (s *Service) VerifyUser(username, password string) (*domain.User, error) {
	username = handleUsername(username)
	if username == "" || password == "" {
		return nil, NewAuthError(ErrMissingRequiredData, "usuario y contraseña son obligatorios")
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUserAuthError(ErrInvalidCredentials, username, "")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewUserAuthError(ErrInvalidCredentials, username, "")
	}

	return user, nil
}

// LoginUser verifica las credenciales y emite el token de sesión.
func (s *Service) LoginUser(username, password string) (string, error) {
	user, err := s.VerifyUser(username, password)
	if err != nil {
		return "", err
	}

	token, err := generateJWT(user, s.cfg.SecretKey)
	if err != nil {
		return "", fmt.Errorf("error al generar el token de sesión: %w", err)
	}

	return token, nil
}

func generateJWT(user *domain.User, secretKey string) (string, error) {
	claims := domain.Claims{
		UserID:      user.ID,
		Username:    user.Username,
		UserIsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, NewAuthError(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ChangePassword exige la contraseña vigente antes de aceptar la nueva.
func (s *Service) ChangePassword(username, currentPassword, newPassword string) error {
	user, err := s.VerifyUser(username, currentPassword)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return NewAuthError(ErrMissingRequiredData, "la nueva contraseña no puede estar vacía")
	}
	if newPassword == currentPassword {
		return NewUserAuthError(ErrSamePassword, user.Username, "")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(user.Username, string(hashedPassword))
}

// EnsureDefaultAdmin crea el administrador inicial cuando la tabla de
// usuarios está vacía, con las credenciales configuradas. Se ejecuta en
// cada arranque y no hace nada si ya hay usuarios.
func (s *Service) EnsureDefaultAdmin() error {
	total, err := s.userRepo.CountUsers()
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	if _, err := s.CreateUser(s.cfg.DefaultAdminUser, s.cfg.DefaultAdminPassword, true); err != nil {
		return fmt.Errorf("error al crear el administrador inicial: %w", err)
	}

	logrus.Warnf("usuario administrador %q creado con la contraseña por defecto; cambiarla cuanto antes", s.cfg.DefaultAdminUser)
	return nil
}
