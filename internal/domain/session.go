package domain

import "fmt"

// Session is the full state of one learner's interaction, from app load to
// reload. It is never persisted.
type Session struct {
	ID       SessionID `json:"id"`
	View     View      `json:"view"`
	Grade    Grade     `json:"grade,omitempty"`
	Mode     Mode      `json:"mode,omitempty"`
	Topic    Topic     `json:"topic,omitempty"`
	Language Language  `json:"language"`

	// Generation is bumped on every view transition. Responses dispatched
	// under an older generation are discarded.
	Generation uint64 `json:"generation"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

func NewSession(id SessionID, now Timestamp) *Session {
	return &Session{
		ID:        id,
		View:      ViewWelcome,
		Language:  LangArabic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChatMessage is one transcript entry. Messages are not mutated after being
// appended, except for image placeholders which are resolved in place.
type ChatMessage struct {
	ID       MessageID `json:"id"`
	Role     Role      `json:"role"`
	Text     string    `json:"text"`
	ImageURL string    `json:"image_url,omitempty"`
	Images   []string  `json:"images,omitempty"`
	IsError  bool      `json:"is_error,omitempty"`

	CreatedAt Timestamp `json:"created_at"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

func (q QuizQuestion) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("quiz question has no text")
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("quiz question %q has no options", q.Question)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("quiz question %q: correct answer %d out of range [0,%d)", q.Question, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// Media is an inline binary payload (recorded audio, uploaded image).
type Media struct {
	MimeType string
	Data     []byte
}
