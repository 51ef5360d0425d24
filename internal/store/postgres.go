package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicquest/backend/internal/models"
)

var (
	// ErrUsernameTaken is returned when a signup collides with an existing
	// username (unique constraint on users.username).
	ErrUsernameTaken = errors.New("username already taken")

	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
)

// PostgresStore handles user and issue CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, high_score`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.HighScore)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, high_score FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.HighScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, high_score FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.HighScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// SaveHighScore applies score to the user's high_score only if it is strictly
// greater, as a single conditional statement so concurrent submissions cannot
// regress a higher score. It returns the high score after the call and whether
// the row was updated.
func (s *PostgresStore) SaveHighScore(ctx context.Context, userID int64, score int) (int, bool, error) {
	var high int
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET high_score = $2
		 WHERE id = $1 AND high_score < $2
		 RETURNING high_score`,
		userID, score,
	).Scan(&high)
	if err == nil {
		return high, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("save high score: %w", err)
	}

	// Not higher (or user gone); report the current value unchanged.
	err = s.pool.QueryRow(ctx,
		`SELECT high_score FROM users WHERE id = $1`, userID,
	).Scan(&high)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("read high score: %w", err)
	}
	return high, false, nil
}

// TopUsers returns up to limit users ordered by high score descending, ties
// broken by id ascending so the order is stable.
func (s *PostgresStore) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, high_score FROM users
		 ORDER BY high_score DESC, id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.HighScore); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) InsertIssue(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO issues (type, location, description, status, photo_url, created_at, user_id, username)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		issue.Type, issue.Location, issue.Description, issue.Status,
		issue.PhotoURL, issue.CreatedAt, issue.UserID, issue.Username,
	).Scan(&issue.ID)
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return issue, nil
}

// ListIssues returns all issues, newest first.
func (s *PostgresStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, location, description, status, photo_url, created_at, user_id, username
		 FROM issues
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		var is models.Issue
		if err := rows.Scan(&is.ID, &is.Type, &is.Location, &is.Description,
			&is.Status, &is.PhotoURL, &is.CreatedAt, &is.UserID, &is.Username); err != nil {
			return nil, fmt.Errorf("list issues scan: %w", err)
		}
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list issues rows: %w", err)
	}
	return issues, nil
}
