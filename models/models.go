package models

import "time"

type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

type User struct {
	Id         string
	Provider   string
	ProviderId string
	Email      string
	Timezone   string
	Plan       Plan
	ChatTokens int
	Created    int64
	Streak     StreakState
}

// StreakState tracks consecutive daily logs for one user.
// LastCompletedDate is an ISO date string (YYYY-MM-DD), empty when the
// user has never logged. LongestStreak >= CurrentStreak always.
type StreakState struct {
	CurrentStreak     int
	LongestStreak     int
	LastCompletedDate string
}

type DailyLog struct {
	LogId               string    `json:"logId"`
	UserId              string    `json:"userId"`
	Date                string    `json:"date"`
	Content             string    `json:"content"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	AiFeedbackGenerated bool      `json:"aiFeedbackGenerated"`
}

type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

type Goal struct {
	GoalId    string     `json:"goalId"`
	UserId    string     `json:"userId"`
	Text      string     `json:"text"`
	Tags      []string   `json:"tags"`
	Status    GoalStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

type AIFeedback struct {
	FeedbackId   string    `json:"feedbackId"`
	LogId        string    `json:"logId"`
	UserId       string    `json:"userId"`
	Content      string    `json:"content"`
	ModelVersion string    `json:"modelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type ChatMessage struct {
	MessageId string    `json:"messageId"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Chat struct {
	ChatId     string        `json:"chatId"`
	UserId     string        `json:"userId"`
	ChatName   string        `json:"chatName"`
	FeedbackId string        `json:"feedbackId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	Messages   []ChatMessage `json:"messages,omitempty"`
}

// RateWindow is the fixed-window counter for one (userId, limitKey)
// pair. Ephemeral: losing it only restarts counting.
type RateWindow struct {
	Count       int
	WindowStart time.Time
}

type CalendarDay struct {
	Day         int    `json:"day"`
	LogId       string `json:"logId,omitempty"`
	HasFeedback bool   `json:"hasFeedback"`
}

// CalendarMonth is the per-month index of a user's logs. Days is keyed
// by zero-based day index as a string to match the wire format clients
// already consume.
type CalendarMonth struct {
	UserId       string                 `json:"-"`
	Year         int                    `json:"year"`
	Month        int                    `json:"month"`
	FirstWeekday int                    `json:"firstWeekday"` // 0 = Monday
	Days         map[string]CalendarDay `json:"days"`
}
