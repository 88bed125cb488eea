package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Author is the public profile of a registered user. Its id equals the id of
// the login row created with it.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Login is the credential record. Password holds the encoded hash; Salt is
// generated once at registration and never changes.
type Login struct {
	ID       int64
	Username string
	Password string
	Salt     string
}

// TimeMessage is one timeline entry: who said what, when.
type TimeMessage struct {
	Name    string    `json:"name"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ErrUsernameTaken is returned when registration hits the username
// uniqueness constraint.
var ErrUsernameTaken = errors.New("username already taken")

// AccountRepository persists credentials and profiles. Only AuthService may
// create accounts.
type AccountRepository interface {
	// CreateAccount inserts the credential and the profile atomically,
	// sharing the store-generated id. Returns ErrUsernameTaken on conflict.
	CreateAccount(ctx context.Context, username, name, passwordHash, salt string) (Author, error)
	// FindLogin returns nil, nil when the username is unknown.
	FindLogin(ctx context.Context, username string) (*Login, error)
	FindAuthor(ctx context.Context, id int64) (*Author, error)
	// Autocomplete returns at most limit authors whose name starts with
	// motif, in primary-key order.
	Autocomplete(ctx context.Context, motif string, limit int) ([]Author, error)
}

// MessageRepository persists messages and serves the two bounded timeline
// sub-scans.
type MessageRepository interface {
	Save(ctx context.Context, authorID int64, body string, at time.Time) error
	// RecentFromFollowed returns the newest messages from authors that
	// followerID follows, most recent first, at most limit rows.
	RecentFromFollowed(ctx context.Context, followerID int64, limit int) ([]TimeMessage, error)
	// RecentByAuthor returns the author's own newest messages, most recent
	// first, at most limit rows.
	RecentByAuthor(ctx context.Context, authorID int64, limit int) ([]TimeMessage, error)
}

// FollowRepository persists follow edges. Duplicate edges are valid rows;
// re-following is a plain insert, never an error.
type FollowRepository interface {
	Save(ctx context.Context, idAuthor, idFollower int64) error
}

// PgAccountRepository implements AccountRepository using pgxpool.
type PgAccountRepository struct {
	db *pgxpool.Pool
}

func NewPgAccountRepository(db *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{db: db}
}

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (r *PgAccountRepository) CreateAccount(ctx context.Context, username, name, passwordHash, salt string) (Author, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Author{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insLogin = `INSERT INTO login (username, password, salt) VALUES ($1,$2,$3) RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, insLogin, username, passwordHash, salt).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return Author{}, ErrUsernameTaken
		}
		return Author{}, err
	}

	const insAuthor = `INSERT INTO author (id, name) VALUES ($1,$2)`
	if _, err := tx.Exec(ctx, insAuthor, id, name); err != nil {
		return Author{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Author{}, err
	}
	return Author{ID: id, Name: name}, nil
}

func (r *PgAccountRepository) FindLogin(ctx context.Context, username string) (*Login, error) {
	const q = `SELECT id, username, password, salt FROM login WHERE username=$1`
	var l Login
	if err := r.db.QueryRow(ctx, q, username).Scan(&l.ID, &l.Username, &l.Password, &l.Salt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *PgAccountRepository) FindAuthor(ctx context.Context, id int64) (*Author, error) {
	const q = `SELECT id, name FROM author WHERE id=$1`
	var a Author
	if err := r.db.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgAccountRepository) Autocomplete(ctx context.Context, motif string, limit int) ([]Author, error) {
	const q = `SELECT id, name FROM author WHERE name LIKE $1 || '%' ORDER BY id LIMIT $2`
	rows, err := r.db.Query(ctx, q, motif, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := make([]Author, 0, limit)
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// PgMessageRepository is the pgx implementation of MessageRepository.
type PgMessageRepository struct {
	db *pgxpool.Pool
}

func NewPgMessageRepository(db *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{db: db}
}

func (r *PgMessageRepository) Save(ctx context.Context, authorID int64, body string, at time.Time) error {
	const q = `INSERT INTO message (idauthor, message, time) VALUES ($1,$2,$3)`
	_, err := r.db.Exec(ctx, q, authorID, body, at)
	return err
}

func (r *PgMessageRepository) RecentFromFollowed(ctx context.Context, followerID int64, limit int) ([]TimeMessage, error) {
	const q = `
SELECT a.name, m.message, m.time
FROM message m
JOIN author a ON a.id = m.idauthor
JOIN follow f ON f.idauthor = a.id
WHERE f.idfollower = $1
ORDER BY m.time DESC
LIMIT $2`
	return r.queryMessages(ctx, q, followerID, limit)
}

func (r *PgMessageRepository) RecentByAuthor(ctx context.Context, authorID int64, limit int) ([]TimeMessage, error) {
	const q = `
SELECT a.name, m.message, m.time
FROM message m
JOIN author a ON a.id = m.idauthor
WHERE a.id = $1
ORDER BY m.time DESC
LIMIT $2`
	return r.queryMessages(ctx, q, authorID, limit)
}

func (r *PgMessageRepository) queryMessages(ctx context.Context, q string, id int64, limit int) ([]TimeMessage, error) {
	rows, err := r.db.Query(ctx, q, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]TimeMessage, 0, limit)
	for rows.Next() {
		var m TimeMessage
		if err := rows.Scan(&m.Name, &m.Message, &m.Time); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// PgFollowRepository is the pgx implementation of FollowRepository.
type PgFollowRepository struct {
	db *pgxpool.Pool
}

func NewPgFollowRepository(db *pgxpool.Pool) *PgFollowRepository {
	return &PgFollowRepository{db: db}
}

func (r *PgFollowRepository) Save(ctx context.Context, idAuthor, idFollower int64) error {
	const q = `INSERT INTO follow (idauthor, idfollower) VALUES ($1,$2)`
	_, err := r.db.Exec(ctx, q, idAuthor, idFollower)
	return err
}
