package dynamo

import (
	"strings"
	"time"

	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

func formatSortTime(t time.Time) string {
	return store.FormatSortTime(t)
}

func parseSortTime(s string) time.Time {
	t, err := time.Parse(store.SortTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func userPK(userId string) string { return "USER#" + userId }
func identPK(provider, providerId string) string {
	return "IDENT#" + provider + "#" + providerId
}
func chatMsgPK(chatId string) string { return "CHATMSG#" + chatId }

type dynamoUser struct {
	PK                string `dynamodbav:"PK"`
	SK                string `dynamodbav:"SK"`
	DocId             string `dynamodbav:"DocId"`
	Provider          string `dynamodbav:"Provider"`
	ProviderId        string `dynamodbav:"ProviderId"`
	Email             string `dynamodbav:"Email"`
	Timezone          string `dynamodbav:"Timezone"`
	Plan              string `dynamodbav:"Plan"`
	ChatTokens        int    `dynamodbav:"ChatTokens"`
	Created           int64  `dynamodbav:"Created"`
	CurrentStreak     int    `dynamodbav:"CurrentStreak"`
	LongestStreak     int    `dynamodbav:"LongestStreak"`
	LastCompletedDate string `dynamodbav:"LastCompletedDate"`
}

func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:                userPK(u.Id),
		SK:                "PROFILE",
		DocId:             u.Id,
		Provider:          u.Provider,
		ProviderId:        u.ProviderId,
		Email:             u.Email,
		Timezone:          u.Timezone,
		Plan:              string(u.Plan),
		ChatTokens:        u.ChatTokens,
		Created:           u.Created,
		CurrentStreak:     u.Streak.CurrentStreak,
		LongestStreak:     u.Streak.LongestStreak,
		LastCompletedDate: u.Streak.LastCompletedDate,
	}
}

func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Id:         du.DocId,
		Provider:   du.Provider,
		ProviderId: du.ProviderId,
		Email:      du.Email,
		Timezone:   du.Timezone,
		Plan:       models.Plan(du.Plan),
		ChatTokens: du.ChatTokens,
		Created:    du.Created,
		Streak: models.StreakState{
			CurrentStreak:     du.CurrentStreak,
			LongestStreak:     du.LongestStreak,
			LastCompletedDate: du.LastCompletedDate,
		},
	}
}

// dynamoIdentity maps an OAuth identity to the owning user id so login
// can find an existing account.
type dynamoIdentity struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	UserId string `dynamodbav:"UserId"`
}

type dynamoLog struct {
	PK                  string `dynamodbav:"PK"`
	SK                  string `dynamodbav:"SK"`
	DocId               string `dynamodbav:"DocId"`
	UserId              string `dynamodbav:"UserId"`
	Date                string `dynamodbav:"Date"`
	Content             string `dynamodbav:"Content"`
	CreatedAt           string `dynamodbav:"CreatedAt"`
	UpdatedAt           string `dynamodbav:"UpdatedAt"`
	AiFeedbackGenerated bool   `dynamodbav:"AiFeedbackGenerated"`
}

// The sort key is the log date, which is what enforces one log per
// user per day at write time.
func logToDynamo(l models.DailyLog) dynamoLog {
	return dynamoLog{
		PK:                  userPK(l.UserId),
		SK:                  "LOG#" + l.Date,
		DocId:               l.LogId,
		UserId:              l.UserId,
		Date:                l.Date,
		Content:             l.Content,
		CreatedAt:           formatSortTime(l.CreatedAt),
		UpdatedAt:           formatSortTime(l.UpdatedAt),
		AiFeedbackGenerated: l.AiFeedbackGenerated,
	}
}

func logFromDynamo(dl dynamoLog) models.DailyLog {
	return models.DailyLog{
		LogId:               dl.DocId,
		UserId:              dl.UserId,
		Date:                dl.Date,
		Content:             dl.Content,
		CreatedAt:           parseSortTime(dl.CreatedAt),
		UpdatedAt:           parseSortTime(dl.UpdatedAt),
		AiFeedbackGenerated: dl.AiFeedbackGenerated,
	}
}

type dynamoGoal struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	DocId      string   `dynamodbav:"DocId"`
	UserId     string   `dynamodbav:"UserId"`
	Text       string   `dynamodbav:"Text"`
	Tags       []string `dynamodbav:"Tags"`
	GoalStatus string   `dynamodbav:"GoalStatus"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
}

func goalToDynamo(g models.Goal) dynamoGoal {
	created := formatSortTime(g.CreatedAt)
	return dynamoGoal{
		PK:         userPK(g.UserId),
		SK:         "GOAL#" + created + "#" + g.GoalId,
		DocId:      g.GoalId,
		UserId:     g.UserId,
		Text:       g.Text,
		Tags:       g.Tags,
		GoalStatus: string(g.Status),
		CreatedAt:  created,
	}
}

func goalFromDynamo(dg dynamoGoal) models.Goal {
	return models.Goal{
		GoalId:    dg.DocId,
		UserId:    dg.UserId,
		Text:      dg.Text,
		Tags:      dg.Tags,
		Status:    models.GoalStatus(dg.GoalStatus),
		CreatedAt: parseSortTime(dg.CreatedAt),
	}
}

type dynamoFeedback struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	DocId        string `dynamodbav:"DocId"`
	UserId       string `dynamodbav:"UserId"`
	LogId        string `dynamodbav:"LogId"`
	Content      string `dynamodbav:"Content"`
	ModelVersion string `dynamodbav:"ModelVersion"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

func feedbackToDynamo(f models.AIFeedback) dynamoFeedback {
	return dynamoFeedback{
		PK:           userPK(f.UserId),
		SK:           "FEEDBACK#" + f.LogId,
		DocId:        f.FeedbackId,
		UserId:       f.UserId,
		LogId:        f.LogId,
		Content:      f.Content,
		ModelVersion: f.ModelVersion,
		CreatedAt:    formatSortTime(f.CreatedAt),
	}
}

func feedbackFromDynamo(df dynamoFeedback) models.AIFeedback {
	return models.AIFeedback{
		FeedbackId:   df.DocId,
		LogId:        df.LogId,
		UserId:       df.UserId,
		Content:      df.Content,
		ModelVersion: df.ModelVersion,
		CreatedAt:    parseSortTime(df.CreatedAt),
	}
}

type dynamoChat struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	DocId      string `dynamodbav:"DocId"`
	UserId     string `dynamodbav:"UserId"`
	ChatName   string `dynamodbav:"ChatName"`
	FeedbackId string `dynamodbav:"FeedbackId"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func chatToDynamo(c models.Chat) dynamoChat {
	created := formatSortTime(c.CreatedAt)
	return dynamoChat{
		PK:         userPK(c.UserId),
		SK:         "CHAT#" + created + "#" + c.ChatId,
		DocId:      c.ChatId,
		UserId:     c.UserId,
		ChatName:   c.ChatName,
		FeedbackId: c.FeedbackId,
		CreatedAt:  created,
	}
}

func chatFromDynamo(dc dynamoChat) models.Chat {
	return models.Chat{
		ChatId:     dc.DocId,
		UserId:     dc.UserId,
		ChatName:   dc.ChatName,
		FeedbackId: dc.FeedbackId,
		CreatedAt:  parseSortTime(dc.CreatedAt),
	}
}

type dynamoMessage struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	DocId     string `dynamodbav:"DocId"`
	Sender    string `dynamodbav:"Sender"`
	Message   string `dynamodbav:"Message"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

func messageToDynamo(chatId string, m models.ChatMessage) dynamoMessage {
	created := formatSortTime(m.CreatedAt)
	return dynamoMessage{
		PK:        chatMsgPK(chatId),
		SK:        "MSG#" + created + "#" + m.MessageId,
		DocId:     m.MessageId,
		Sender:    string(m.Sender),
		Message:   m.Message,
		CreatedAt: created,
	}
}

func messageFromDynamo(dm dynamoMessage) models.ChatMessage {
	return models.ChatMessage{
		MessageId: dm.DocId,
		Sender:    models.Sender(dm.Sender),
		Message:   dm.Message,
		CreatedAt: parseSortTime(dm.CreatedAt),
	}
}

type dynamoCalendarDay struct {
	Day         int    `dynamodbav:"Day"`
	LogId       string `dynamodbav:"LogId"`
	HasFeedback bool   `dynamodbav:"HasFeedback"`
}

type dynamoCalendarMonth struct {
	PK           string                       `dynamodbav:"PK"`
	SK           string                       `dynamodbav:"SK"`
	UserId       string                       `dynamodbav:"UserId"`
	Year         int                          `dynamodbav:"Year"`
	Month        int                          `dynamodbav:"Month"`
	FirstWeekday int                          `dynamodbav:"FirstWeekday"`
	Days         map[string]dynamoCalendarDay `dynamodbav:"Days"`
}

func calendarSK(year, month int) string {
	return "CAL#" + formatYearMonth(year, month)
}

func formatYearMonth(year, month int) string {
	ys := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return ys.Format("2006-01")
}

func calendarFromDynamo(dm dynamoCalendarMonth) models.CalendarMonth {
	days := make(map[string]models.CalendarDay, len(dm.Days))
	for k, v := range dm.Days {
		days[k] = models.CalendarDay{Day: v.Day, LogId: v.LogId, HasFeedback: v.HasFeedback}
	}
	return models.CalendarMonth{
		UserId:       dm.UserId,
		Year:         dm.Year,
		Month:        dm.Month,
		FirstWeekday: dm.FirstWeekday,
		Days:         days,
	}
}

// skDocID extracts the trailing document id from composite sort keys of
// the form PREFIX#<ts>#<id>.
func skDocID(sk string) string {
	i := strings.LastIndex(sk, "#")
	if i < 0 {
		return ""
	}
	return sk[i+1:]
}
