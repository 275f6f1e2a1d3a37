package store

import "time"

// User identity is an opaque external string (e.g. "default" for the
// local CLI session, or a UUID minted at signup). Preferences and
// personal facts are free-form JSON objects merged key-wise.
type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"nome"`
	Preferences   map[string]any `json:"preferencias"`
	PersonalFacts map[string]any `json:"dados_pessoais"`
	PasswordHash  string         `json:"-"` // Do not expose this in JSON responses
}

type Message struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // "user" or "model"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary compresses the contiguous message block
// [StartMsgID, EndMsgID] into a few sentences. Blocks never overlap
// and together cover a prefix of the user's message sequence.
type Summary struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Summary    string    `json:"summary"`
	StartMsgID int64     `json:"start_msg_id"`
	EndMsgID   int64     `json:"end_msg_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageEmbedding pairs a stored vector with the message it belongs
// to. Not every message has one; a failed embedding call just leaves
// the message out of the retrieval corpus.
type MessageEmbedding struct {
	MessageID int64     `json:"message_id"`
	Vector    []float32 `json:"-"`
	Content   string    `json:"content"`
}
