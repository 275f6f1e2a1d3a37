package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        nome TEXT,
        preferencias TEXT,   -- JSON, e.g. {"tom":"formal","resposta_curta":true}
        dados_pessoais TEXT, -- JSON, e.g. {"aniversario":"2025-09-05"}
        password_hash TEXT
    );

    CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'model')),
        content TEXT NOT NULL,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS summaries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        summary TEXT NOT NULL,
        start_msg_id INTEGER NOT NULL,
        end_msg_id INTEGER NOT NULL,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS embeddings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        message_id INTEGER NOT NULL,
        vector BLOB, -- JSON-encoded []float32
        FOREIGN KEY (message_id) REFERENCES messages (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id);
    CREATE INDEX IF NOT EXISTS idx_embeddings_msg ON embeddings(message_id);
    CREATE INDEX IF NOT EXISTS idx_summaries_user ON summaries(user_id, id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// DefaultPreferences returns the preference map new users start with.
func DefaultPreferences() map[string]any {
	return map[string]any{"tom": "formal", "resposta_curta": true}
}

// User methods

// GetUser returns nil without error when the user does not exist.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var (
		user         User
		name         sql.NullString
		prefsJSON    sql.NullString
		factsJSON    sql.NullString
		passwordHash sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, nome, preferencias, dados_pessoais, password_hash FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &name, &prefsJSON, &factsJSON, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.Name = name.String
	user.PasswordHash = passwordHash.String
	user.Preferences, err = decodeJSONMap(prefsJSON.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preferences for user %s: %w", userID, err)
	}
	user.PersonalFacts, err = decodeJSONMap(factsJSON.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode personal facts for user %s: %w", userID, err)
	}
	return &user, nil
}

// GetOrCreateUser fetches a user, creating it with the default
// preferences on first reference.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return s.CreateUser(ctx, userID, "")
}

// CreateUser inserts a fresh user row. The password hash is empty for
// local CLI sessions and set by the HTTP signup flow.
func (s *SQLiteStore) CreateUser(ctx context.Context, userID, passwordHash string) (*User, error) {
	prefs := DefaultPreferences()
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, nome, preferencias, dados_pessoais, password_hash) VALUES (?, ?, ?, ?, ?)",
		userID, "", string(prefsJSON), "{}", passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &User{
		ID:            userID,
		Preferences:   prefs,
		PersonalFacts: map[string]any{},
		PasswordHash:  passwordHash,
	}, nil
}

func (s *SQLiteStore) SetUserName(ctx context.Context, userID, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET nome = ? WHERE id = ?", name, userID)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found, name not updated")
	}
	return nil
}

// MergeUserProfile applies a shallow key-wise overwrite to the user's
// preference and personal-fact maps. Keys not mentioned are left
// untouched; there is no way to unset a key here.
func (s *SQLiteStore) MergeUserProfile(ctx context.Context, userID string, prefs, facts map[string]any) error {
	if len(prefs) == 0 && len(facts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin profile update: %w", err)
	}
	defer tx.Rollback()

	var prefsJSON, factsJSON sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT preferencias, dados_pessoais FROM users WHERE id = ?", userID,
	).Scan(&prefsJSON, &factsJSON)
	if err != nil {
		return fmt.Errorf("failed to read profile for merge: %w", err)
	}

	currentPrefs, err := decodeJSONMap(prefsJSON.String)
	if err != nil {
		return fmt.Errorf("failed to decode preferences for merge: %w", err)
	}
	currentFacts, err := decodeJSONMap(factsJSON.String)
	if err != nil {
		return fmt.Errorf("failed to decode personal facts for merge: %w", err)
	}

	for k, v := range prefs {
		currentPrefs[k] = v
	}
	for k, v := range facts {
		currentFacts[k] = v
	}

	newPrefs, err := json.Marshal(currentPrefs)
	if err != nil {
		return fmt.Errorf("failed to marshal merged preferences: %w", err)
	}
	newFacts, err := json.Marshal(currentFacts)
	if err != nil {
		return fmt.Errorf("failed to marshal merged personal facts: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET preferencias = ?, dados_pessoais = ? WHERE id = ?",
		string(newPrefs), string(newFacts), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to write merged profile: %w", err)
	}
	return tx.Commit()
}

// Message methods

func (s *SQLiteStore) SaveMessage(ctx context.Context, userID, role, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)",
		userID, role, content,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get message id: %w", err)
	}
	return id, nil
}

// RecentMessages returns the last n messages in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, userID string, n int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, role, content, timestamp
        FROM messages
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Rows come newest-first; flip back to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MessagesAfter returns all messages with id > afterID, ascending.
// Used by the summarizer to find the unsummarized tail.
func (s *SQLiteStore) MessagesAfter(ctx context.Context, userID string, afterID int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, role, content, timestamp
        FROM messages
        WHERE user_id = ? AND id > ?
        ORDER BY id ASC`,
		userID, afterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Summary methods

// LastSummarizedID returns the highest end_msg_id across the user's
// summaries, or 0 when no summary exists yet.
func (s *SQLiteStore) LastSummarizedID(ctx context.Context, userID string) (int64, error) {
	var lastEnd sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(end_msg_id) FROM summaries WHERE user_id = ?", userID,
	).Scan(&lastEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to query last summarized id: %w", err)
	}
	return lastEnd.Int64, nil
}

func (s *SQLiteStore) AddSummary(ctx context.Context, userID, summary string, startID, endID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO summaries (user_id, summary, start_msg_id, end_msg_id) VALUES (?, ?, ?, ?)",
		userID, summary, startID, endID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// RecentSummaries returns the texts of the last n summaries, oldest of
// that window first.
func (s *SQLiteStore) RecentSummaries(ctx context.Context, userID string, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT summary
        FROM summaries
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent summaries: %w", err)
	}
	defer rows.Close()

	var summaries []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}
	return summaries, nil
}

// Summaries returns all summary records for a user in creation order.
func (s *SQLiteStore) Summaries(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, summary, start_msg_id, end_msg_id, timestamp
        FROM summaries
        WHERE user_id = ?
        ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Summary, &sum.StartMsgID, &sum.EndMsgID, &sum.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Embedding methods

func (s *SQLiteStore) SaveEmbedding(ctx context.Context, messageID int64, vector []float32) error {
	blob, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO embeddings (message_id, vector) VALUES (?, ?)",
		messageID, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// EmbeddingsByUser returns every (message_id, vector, content) triple
// for the user's messages that have an embedding, ordered by message
// id ascending. Messages without an embedding are simply absent.
func (s *SQLiteStore) EmbeddingsByUser(ctx context.Context, userID string) ([]MessageEmbedding, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.message_id, e.vector, m.content
        FROM embeddings e
        JOIN messages m ON m.id = e.message_id
        WHERE m.user_id = ?
        ORDER BY e.message_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var out []MessageEmbedding
	for rows.Next() {
		var (
			entry MessageEmbedding
			blob  []byte
		)
		if err := rows.Scan(&entry.MessageID, &blob, &entry.Content); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		if len(blob) > 0 {
			if err := json.Unmarshal(blob, &entry.Vector); err != nil {
				// A corrupt vector should not take retrieval down with it.
				entry.Vector = nil
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func decodeJSONMap(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
