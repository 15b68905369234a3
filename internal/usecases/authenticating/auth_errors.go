package authenticating

import (
	"errors"
	"fmt"
)

// Errores de autenticación del dominio
var (
	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrUserAlreadyExists   = errors.New("el usuario ya existe")
	ErrInvalidToken        = errors.New("token inválido")
	ErrMissingRequiredData = errors.New("faltan datos obligatorios")
	ErrSamePassword        = errors.New("la nueva contraseña debe ser distinta de la actual")
)

// AuthError agrega contexto de usuario al error base.
type AuthError struct {
	Err      error
	Username string
	Details  string
}

// Error implementa la interfaz error
func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap devuelve el error subyacente
func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsCredentialsError distingue fallas de credenciales de errores de
// infraestructura.
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUserNotFound)
}

// NewAuthError crea un error de autenticación
func NewAuthError(baseErr error, details string) *AuthError {
	return &AuthError{
		Err:     baseErr,
		Details: details,
	}
}

// NewUserAuthError crea un error de autenticación con contexto de usuario
func NewUserAuthError(baseErr error, username string, details string) *AuthError {
	return &AuthError{
		Err:      baseErr,
		Username: username,
		Details:  details,
	}
}
