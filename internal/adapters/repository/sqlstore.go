package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
	"github.com/pressly/goose/v3"

	model "github.com/okian/tally/internal/domain/model"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// SQLStore is a Store on database/sql. SQLite and PostgreSQL are supported;
// the schema is migrated with goose on open.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLStore connects, tunes and migrates the database.
func OpenSQLStore(ctx context.Context, driver, dsn string, opts ...SQLOption) (*SQLStore, error) {
	var dialect, dir string
	switch driver {
	case DriverSQLite:
		dialect, dir = "sqlite3", "migrations/sqlite3"
	case DriverPostgres:
		dialect, dir = "postgres", "migrations/postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	set := sqlSettings{maxOpenConns: 10, maxIdleConns: 5, connMaxLifetime: time.Hour}
	for _, opt := range opts {
		opt(&set)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(set.maxOpenConns)
	db.SetMaxIdleConns(set.maxIdleConns)
	db.SetConnMaxLifetime(set.connMaxLifetime)
	if driver == DriverSQLite {
		// pragmas are per connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if err := tuneSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

func tuneSQLite(ctx context.Context, db *sql.DB) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set PRAGMA %s: %w", p.name, err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) name() string {
	return "sql_" + s.driver
}

const gameColumns = "id, name, description, min_players, max_players, highest_wins, is_custom"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (model.Game, error) {
	var g model.Game
	err := r.Scan(&g.ID, &g.Name, &g.Description, &g.MinPlayers, &g.MaxPlayers, &g.HighestWins, &g.IsCustom)
	return g, err
}

func (s *SQLStore) ListGames(ctx context.Context) ([]model.Game, error) {
	defer observe(s.name(), "list_games", time.Now())
	rows, err := s.db.QueryContext(ctx, "SELECT "+gameColumns+" FROM games ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetGame(ctx context.Context, id int64) (model.Game, error) {
	defer observe(s.name(), "get_game", time.Now())
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+gameColumns+" FROM games WHERE id = ?"), id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, model.NotFound("game", id)
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

func (s *SQLStore) CreateGame(ctx context.Context, g model.Game) (model.Game, error) {
	defer observe(s.name(), "create_game", time.Now())
	q := s.rebind(`INSERT INTO games (name, description, min_players, max_players, highest_wins, is_custom)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowContext(ctx, q, g.Name, g.Description, g.MinPlayers, g.MaxPlayers, g.HighestWins, g.IsCustom).Scan(&g.ID); err != nil {
		return model.Game{}, fmt.Errorf("create game: %w", err)
	}
	return g, nil
}

func (s *SQLStore) CreateSession(ctx context.Context, sess model.Session, players []model.Player) error {
	defer observe(s.name(), "create_session", time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var limit sql.NullInt64
	if sess.ScoreLimit != nil {
		limit = sql.NullInt64{Int64: int64(*sess.ScoreLimit), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO game_sessions (id, session_code, game_id, start_time, is_complete, score_limit)
		VALUES (?, ?, ?, ?, ?, ?)`), sess.ID, sess.Code, sess.GameID, sess.StartTime.UTC(), false, limit); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, p := range players {
		if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO session_players (session_id, player_id, name) VALUES (?, ?, ?)"),
			sess.ID, p.ID, p.Name); err != nil {
			return fmt.Errorf("insert player %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (model.Session, error) {
	defer observe(s.name(), "get_session", time.Now())
	var (
		sess   model.Session
		end    sql.NullTime
		limit  sql.NullInt64
		winner sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, session_code, game_id, start_time, end_time, is_complete, score_limit, winner_id
		FROM game_sessions WHERE id = ?`), id).
		Scan(&sess.ID, &sess.Code, &sess.GameID, &sess.StartTime, &end, &sess.IsComplete, &limit, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, model.NotFound("session", id)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	sess.StartTime = sess.StartTime.UTC()
	if end.Valid {
		t := end.Time.UTC()
		sess.EndTime = &t
	}
	if limit.Valid {
		v := int(limit.Int64)
		sess.ScoreLimit = &v
	}
	if winner.Valid {
		v := int(winner.Int64)
		sess.WinnerID = &v
	}
	return sess, nil
}

func (s *SQLStore) ListPlayers(ctx context.Context, sessionID string) ([]model.Player, error) {
	defer observe(s.name(), "list_players", time.Now())
	if err := s.exists(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT player_id, name FROM session_players WHERE session_id = ? ORDER BY player_id"), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// exists returns a NotFoundError when the session is unknown.
func (s *SQLStore) exists(ctx context.Context, sessionID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT 1 FROM game_sessions WHERE id = ?"), sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound("session", sessionID)
	}
	if err != nil {
		return fmt.Errorf("lookup session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLStore) CompleteSession(ctx context.Context, id string, end time.Time, winnerID int) error {
	defer observe(s.name(), "complete_session", time.Now())
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE game_sessions SET is_complete = ?, end_time = ?, winner_id = ?
		WHERE id = ? AND is_complete = ?`), true, end.UTC(), winnerID, id, false)
	if err != nil {
		return fmt.Errorf("complete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	return model.ErrSessionClosed
}

func (s *SQLStore) AppendScore(ctx context.Context, e model.ScoreEntry) error {
	defer observe(s.name(), "append_score", time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var complete bool
	err = tx.QueryRowContext(ctx, s.rebind("SELECT is_complete FROM game_sessions WHERE id = ?"), e.SessionID).Scan(&complete)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound("session", e.SessionID)
	}
	if err != nil {
		return fmt.Errorf("lookup session %s: %w", e.SessionID, err)
	}
	if complete {
		return model.ErrSessionClosed
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO scores (id, session_id, player_id, round, score, kind, reverses, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.SessionID, e.PlayerID, e.Round, e.Amount, string(e.Kind), e.Reverses, e.Position, e.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score: %w", err)
	}
	return nil
}

const scoreColumns = "id, session_id, player_id, round, score, kind, reverses, position, created_at"

func (s *SQLStore) listScores(ctx context.Context, where string, args ...any) ([]model.ScoreEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT "+scoreColumns+" FROM scores WHERE "+where+" ORDER BY position"), args...)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []model.ScoreEntry
	for rows.Next() {
		var (
			e    model.ScoreEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.PlayerID, &e.Round, &e.Amount, &kind, &e.Reverses, &e.Position, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.Kind = model.Kind(kind)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListScoresForSession(ctx context.Context, sessionID string) ([]model.ScoreEntry, error) {
	defer observe(s.name(), "list_scores", time.Now())
	if err := s.exists(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.listScores(ctx, "session_id = ?", sessionID)
}

func (s *SQLStore) ListScoresForPlayer(ctx context.Context, sessionID string, playerID int) ([]model.ScoreEntry, error) {
	defer observe(s.name(), "list_player_scores", time.Now())
	if err := s.exists(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.listScores(ctx, "session_id = ? AND player_id = ?", sessionID, playerID)
}

// Close releases the pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
