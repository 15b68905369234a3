package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/internal/domain"
	sqlitedriver "modernc.org/sqlite"
)

const usersTable = "users"

// ErrUsernameTaken indica choque con la restricción UNIQUE de username.
var ErrUsernameTaken = errors.New("nombre de usuario ya registrado")

type UserRepository interface {
	CreateUser(username, passwordHash string, isAdmin bool) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	UpdatePassword(username, passwordHash string) error
	CountUsers() (int, error)
}

type userRepository struct {
	conn *sqlite.Connection
}

func NewUserRepository(conn *sqlite.Connection) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

// CreateUser inserta el usuario; el nombre ya viene normalizado por la
// capa de autenticación. Un duplicado devuelve ErrUsernameTaken, nunca
// pisa la fila existente.
func (r *userRepository) CreateUser(username, passwordHash string, isAdmin bool) (*domain.User, error) {
	query, args, err := squirrel.
		Insert(usersTable).
		Columns("username", "password_hash", "is_admin").
		Values(username, passwordHash, boolToInt(isAdmin)).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	if _, err := r.conn.Exec(query, args...); err != nil {
		if isConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("error al crear usuario: %w", err)
	}

	return r.GetUserByUsername(username)
}

// GetUserByUsername devuelve nil sin error cuando el usuario no existe.
func (r *userRepository) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	var isAdmin int
	var createdAt string

	err := r.conn.QueryRow(
		"SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &isAdmin, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error al consultar usuario: %w", err)
	}

	user.IsAdmin = isAdmin != 0
	if when, err := time.Parse(time.DateTime, createdAt); err == nil {
		user.CreatedAt = when
	}

	return &user, nil
}

func (r *userRepository) UpdatePassword(username, passwordHash string) error {
	query, args, err := squirrel.
		Update(usersTable).
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"username": username}).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("error al construir la query: %w", err)
	}

	if _, err := r.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("error al actualizar contraseña: %w", err)
	}

	return nil
}

func (r *userRepository) CountUsers() (int, error) {
	var total int
	if err := r.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, fmt.Errorf("error al contar usuarios: %w", err)
	}
	return total, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isConstraintError detecta SQLITE_CONSTRAINT (código primario 19) en
// los errores del driver.
func isConstraintError(err error) bool {
	var serr *sqlitedriver.Error
	if errors.As(err, &serr) {
		return serr.Code()&0xff == 19
	}
	return false
}
