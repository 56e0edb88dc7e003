package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofrs/uuid/v5"

	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
)

const gsiDocId = "GSI_DocId"

// skHighBound sorts after every timestamp/date/id suffix we generate
// ('~' is 0x7E, above digits, letters and '#').
const skHighBound = "~"

type DynamoDaybookStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoDaybookStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoDaybookStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoDaybookStore{client: client, tableName: tableName}, nil
}

// EnsureUser returns the account for the user's OAuth identity, creating
// it on first login. The bool reports whether the user is new. A racing
// first login loses the conditional identity write and adopts the
// winner's account.
func (s *DynamoDaybookStore) EnsureUser(ctx context.Context, user models.User) (models.User, bool, error) {
	ipk := identPK(user.Provider, user.ProviderId)

	ident, err := getItem[dynamoIdentity](s, ctx, ipk, "PROFILE", false)
	if err == nil {
		existing, err := s.GetUser(ctx, ident.UserId)
		return existing, false, err
	}
	if !errors.Is(err, store.ErrItemNotFound) {
		return models.User{}, false, err
	}

	userId, err := uuid.NewV4()
	if err != nil {
		return models.User{}, false, err
	}
	user.Id = userId.String()
	user.Created = time.Now().Unix()
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}

	if err := putItemIfAbsent(s, ctx, dynamoIdentity{PK: ipk, SK: "PROFILE", UserId: user.Id}); err != nil {
		if errors.Is(err, store.ErrItemExists) {
			// Lost the race: another request just created this account.
			ident, err := getItem[dynamoIdentity](s, ctx, ipk, "PROFILE", true)
			if err != nil {
				return models.User{}, false, err
			}
			existing, err := s.GetUser(ctx, ident.UserId)
			return existing, false, err
		}
		return models.User{}, false, err
	}

	if err := putItemIfAbsent(s, ctx, userToDynamo(user)); err != nil {
		return models.User{}, false, err
	}

	return user, true, nil
}

func (s *DynamoDaybookStore) GetUser(ctx context.Context, userId string) (models.User, error) {
	du, err := getItem[dynamoUser](s, ctx, userPK(userId), "PROFILE", false)
	if err != nil {
		return models.User{}, err
	}
	return userFromDynamo(du), nil
}

func (s *DynamoDaybookStore) DeleteUser(ctx context.Context, userId string) error {
	user, err := s.GetUser(ctx, userId)
	if err != nil {
		return err
	}

	if err := deleteItem(s, ctx, identPK(user.Provider, user.ProviderId), "PROFILE"); err != nil {
		return err
	}
	return deleteItem(s, ctx, userPK(userId), "PROFILE")
}

func (s *DynamoDaybookStore) AddChatTokens(ctx context.Context, userId string, delta int) error {
	return incrementCounter(s, ctx, userPK(userId), "PROFILE", "ChatTokens", delta)
}

func (s *DynamoDaybookStore) GetStreak(ctx context.Context, userId string) (models.StreakState, error) {
	du, err := getItem[dynamoUser](s, ctx, userPK(userId), "PROFILE", true)
	if err != nil {
		return models.StreakState{}, err
	}
	return models.StreakState{
		CurrentStreak:     du.CurrentStreak,
		LongestStreak:     du.LongestStreak,
		LastCompletedDate: du.LastCompletedDate,
	}, nil
}

// UpdateStreak is the compare-and-swap adapter for the streak engine:
// the write only succeeds while the stored state still equals prev.
func (s *DynamoDaybookStore) UpdateStreak(ctx context.Context, userId string, prev, next models.StreakState) error {
	set := map[string]types.AttributeValue{
		"CurrentStreak":     &types.AttributeValueMemberN{Value: strconv.Itoa(next.CurrentStreak)},
		"LongestStreak":     &types.AttributeValueMemberN{Value: strconv.Itoa(next.LongestStreak)},
		"LastCompletedDate": &types.AttributeValueMemberS{Value: next.LastCompletedDate},
	}

	var cond string
	condValues := map[string]types.AttributeValue{}
	if prev.LastCompletedDate == "" {
		cond = "attribute_not_exists(LastCompletedDate) OR LastCompletedDate = :prevLast"
		condValues[":prevLast"] = &types.AttributeValueMemberS{Value: ""}
	} else {
		cond = "LastCompletedDate = :prevLast AND CurrentStreak = :prevCur AND LongestStreak = :prevLong"
		condValues[":prevLast"] = &types.AttributeValueMemberS{Value: prev.LastCompletedDate}
		condValues[":prevCur"] = &types.AttributeValueMemberN{Value: strconv.Itoa(prev.CurrentStreak)}
		condValues[":prevLong"] = &types.AttributeValueMemberN{Value: strconv.Itoa(prev.LongestStreak)}
	}

	return updateFields(s, ctx, userPK(userId), "PROFILE", set, cond, condValues, false)
}

func (s *DynamoDaybookStore) CreateLog(ctx context.Context, log models.DailyLog) error {
	return putItemIfAbsent(s, ctx, logToDynamo(log))
}

func (s *DynamoDaybookStore) GetLog(ctx context.Context, logId string) (models.DailyLog, error) {
	dl, err := getByDocId[dynamoLog](s, ctx, logId)
	if err != nil {
		return models.DailyLog{}, err
	}
	return logFromDynamo(dl), nil
}

func (s *DynamoDaybookStore) ListLogs(ctx context.Context, userId string, startDate, endDate string, pageSize int, startAfter *store.Position) ([]models.DailyLog, error) {
	skLow := "LOG#"
	if startDate != "" {
		skLow += startDate
	}
	skHigh := "LOG#" + skHighBound
	if endDate != "" {
		skHigh = "LOG#" + endDate
	}

	startAfterSK := ""
	if startAfter != nil {
		startAfterSK = "LOG#" + startAfter.SortValue
	}

	dls, err := querySortRange[dynamoLog](s, ctx, userPK(userId), skLow, skHigh, true, int32(pageSize), startAfterSK, "", nil)
	if err != nil {
		return nil, err
	}

	logs := make([]models.DailyLog, 0, len(dls))
	for _, dl := range dls {
		logs = append(logs, logFromDynamo(dl))
	}
	return logs, nil
}

func (s *DynamoDaybookStore) UpdateLogContent(ctx context.Context, log models.DailyLog) (models.DailyLog, error) {
	log.UpdatedAt = time.Now()
	set := map[string]types.AttributeValue{
		"Content":   &types.AttributeValueMemberS{Value: log.Content},
		"UpdatedAt": &types.AttributeValueMemberS{Value: formatSortTime(log.UpdatedAt)},
	}

	err := updateFields(s, ctx, userPK(log.UserId), "LOG#"+log.Date, set, "", nil, true)
	if errors.Is(err, store.ErrConditionFailed) {
		return models.DailyLog{}, store.ErrItemNotFound
	}
	if err != nil {
		return models.DailyLog{}, err
	}
	return log, nil
}

func (s *DynamoDaybookStore) MarkLogFeedbackGenerated(ctx context.Context, userId string, date string) error {
	set := map[string]types.AttributeValue{
		"AiFeedbackGenerated": &types.AttributeValueMemberBOOL{Value: true},
	}
	err := updateFields(s, ctx, userPK(userId), "LOG#"+date, set, "", nil, true)
	if errors.Is(err, store.ErrConditionFailed) {
		return store.ErrItemNotFound
	}
	return err
}

func (s *DynamoDaybookStore) CreateGoal(ctx context.Context, goal models.Goal) error {
	return putItemIfAbsent(s, ctx, goalToDynamo(goal))
}

func (s *DynamoDaybookStore) GetGoal(ctx context.Context, goalId string) (models.Goal, error) {
	dg, err := getByDocId[dynamoGoal](s, ctx, goalId)
	if err != nil {
		return models.Goal{}, err
	}
	return goalFromDynamo(dg), nil
}

func (s *DynamoDaybookStore) ListGoals(ctx context.Context, userId string, status models.GoalStatus, pageSize int, startAfter *store.Position) ([]models.Goal, error) {
	startAfterSK := ""
	if startAfter != nil {
		startAfterSK = "GOAL#" + startAfter.SortValue + "#" + startAfter.DocID
	}

	filterExpr := ""
	var filterValues map[string]types.AttributeValue
	if status != "" {
		filterExpr = "GoalStatus = :status"
		filterValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		}
	}

	dgs, err := querySortRange[dynamoGoal](s, ctx, userPK(userId), "GOAL#", "GOAL#"+skHighBound, true, int32(pageSize), startAfterSK, filterExpr, filterValues)
	if err != nil {
		return nil, err
	}

	goals := make([]models.Goal, 0, len(dgs))
	for _, dg := range dgs {
		goals = append(goals, goalFromDynamo(dg))
	}
	return goals, nil
}

func (s *DynamoDaybookStore) UpdateGoal(ctx context.Context, goal models.Goal) error {
	dg := goalToDynamo(goal)
	set := map[string]types.AttributeValue{
		"Text":       &types.AttributeValueMemberS{Value: dg.Text},
		"GoalStatus": &types.AttributeValueMemberS{Value: dg.GoalStatus},
	}
	if goal.Tags != nil {
		tagList := make([]types.AttributeValue, 0, len(goal.Tags))
		for _, tag := range goal.Tags {
			tagList = append(tagList, &types.AttributeValueMemberS{Value: tag})
		}
		set["Tags"] = &types.AttributeValueMemberL{Value: tagList}
	}

	err := updateFields(s, ctx, dg.PK, dg.SK, set, "", nil, true)
	if errors.Is(err, store.ErrConditionFailed) {
		return store.ErrItemNotFound
	}
	return err
}

func (s *DynamoDaybookStore) DeleteGoal(ctx context.Context, goal models.Goal) error {
	dg := goalToDynamo(goal)
	return deleteItem(s, ctx, dg.PK, dg.SK)
}

func (s *DynamoDaybookStore) CreateFeedback(ctx context.Context, feedback models.AIFeedback) error {
	return putItemIfAbsent(s, ctx, feedbackToDynamo(feedback))
}

func (s *DynamoDaybookStore) GetFeedbackForLog(ctx context.Context, userId string, logId string) (models.AIFeedback, error) {
	df, err := getItem[dynamoFeedback](s, ctx, userPK(userId), "FEEDBACK#"+logId, false)
	if err != nil {
		return models.AIFeedback{}, err
	}
	return feedbackFromDynamo(df), nil
}

func (s *DynamoDaybookStore) GetFeedback(ctx context.Context, feedbackId string) (models.AIFeedback, error) {
	df, err := getByDocId[dynamoFeedback](s, ctx, feedbackId)
	if err != nil {
		return models.AIFeedback{}, err
	}
	return feedbackFromDynamo(df), nil
}

func (s *DynamoDaybookStore) CreateChat(ctx context.Context, chat models.Chat) error {
	return putItemIfAbsent(s, ctx, chatToDynamo(chat))
}

func (s *DynamoDaybookStore) GetChat(ctx context.Context, chatId string) (models.Chat, error) {
	dc, err := getByDocId[dynamoChat](s, ctx, chatId)
	if err != nil {
		return models.Chat{}, err
	}
	chat := chatFromDynamo(dc)

	// Messages in chronological order
	dms, err := querySortRange[dynamoMessage](s, ctx, chatMsgPK(chat.ChatId), "MSG#", "MSG#"+skHighBound, false, 0, "", "", nil)
	if err != nil {
		return models.Chat{}, err
	}
	chat.Messages = make([]models.ChatMessage, 0, len(dms))
	for _, dm := range dms {
		chat.Messages = append(chat.Messages, messageFromDynamo(dm))
	}

	return chat, nil
}

func (s *DynamoDaybookStore) ListChats(ctx context.Context, userId string, pageSize int, startAfter *store.Position) ([]models.Chat, error) {
	startAfterSK := ""
	if startAfter != nil {
		startAfterSK = "CHAT#" + startAfter.SortValue + "#" + startAfter.DocID
	}

	dcs, err := querySortRange[dynamoChat](s, ctx, userPK(userId), "CHAT#", "CHAT#"+skHighBound, true, int32(pageSize), startAfterSK, "", nil)
	if err != nil {
		return nil, err
	}

	chats := make([]models.Chat, 0, len(dcs))
	for _, dc := range dcs {
		chats = append(chats, chatFromDynamo(dc))
	}
	return chats, nil
}

func (s *DynamoDaybookStore) AddChatMessage(ctx context.Context, chatId string, msg models.ChatMessage) error {
	return putItemIfAbsent(s, ctx, messageToDynamo(chatId, msg))
}

func (s *DynamoDaybookStore) GetCalendarMonth(ctx context.Context, userId string, year, month int) (models.CalendarMonth, error) {
	dm, err := getItem[dynamoCalendarMonth](s, ctx, userPK(userId), calendarSK(year, month), false)
	if err != nil {
		return models.CalendarMonth{}, err
	}
	return calendarFromDynamo(dm), nil
}

// SetCalendarDay records a log id on the month document, creating the
// month on first write. day is 1-based.
func (s *DynamoDaybookStore) SetCalendarDay(ctx context.Context, userId string, year, month, day int, logId string, hasFeedback bool) error {
	dayIndex := strconv.Itoa(day - 1)

	update := func() error {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        aws.String(s.tableName),
			Key:              keyOf(userPK(userId), calendarSK(year, month)),
			UpdateExpression: aws.String("SET Days.#d = :cd"),
			ExpressionAttributeNames: map[string]string{
				"#d": dayIndex,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cd": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
					"Day":         &types.AttributeValueMemberN{Value: strconv.Itoa(day)},
					"LogId":       &types.AttributeValueMemberS{Value: logId},
					"HasFeedback": &types.AttributeValueMemberBOOL{Value: hasFeedback},
				}},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if err != nil {
			var cce *types.ConditionalCheckFailedException
			if errors.As(err, &cce) {
				return store.ErrConditionFailed
			}
			return fmt.Errorf("update calendar day failed: %w", err)
		}
		return nil
	}

	err := update()
	if !errors.Is(err, store.ErrConditionFailed) {
		return err
	}

	// Month document does not exist yet: create it with this day set.
	doc := emptyCalendarMonth(userId, year, month)
	doc.Days[dayIndex] = dynamoCalendarDay{Day: day, LogId: logId, HasFeedback: hasFeedback}
	err = putItemIfAbsent(s, ctx, doc)
	if errors.Is(err, store.ErrItemExists) {
		// Raced with another writer creating the month; the path
		// update works now.
		return update()
	}
	return err
}

func (s *DynamoDaybookStore) MarkCalendarFeedback(ctx context.Context, userId string, year, month, day int) error {
	dayIndex := strconv.Itoa(day - 1)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              keyOf(userPK(userId), calendarSK(year, month)),
		UpdateExpression: aws.String("SET Days.#d.HasFeedback = :t"),
		ExpressionAttributeNames: map[string]string{
			"#d": dayIndex,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
		ConditionExpression: aws.String("attribute_exists(Days.#d)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrItemNotFound
		}
		return fmt.Errorf("mark calendar feedback failed: %w", err)
	}
	return nil
}

func emptyCalendarMonth(userId string, year, month int) dynamoCalendarMonth {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	// time.Weekday starts at Sunday; clients expect 0 = Monday
	firstWeekday := (int(first.Weekday()) + 6) % 7

	days := make(map[string]dynamoCalendarDay, daysInMonth)
	for i := 0; i < daysInMonth; i++ {
		days[strconv.Itoa(i)] = dynamoCalendarDay{Day: i + 1}
	}

	return dynamoCalendarMonth{
		PK:           userPK(userId),
		SK:           calendarSK(year, month),
		UserId:       userId,
		Year:         year,
		Month:        month,
		FirstWeekday: firstWeekday,
		Days:         days,
	}
}

// PurgeUserData removes everything the user owns: the USER# partition
// (logs, goals, feedback, chats, calendar months) and each chat's
// message partition. Throttled so a large account does not starve
// foreground traffic.
func (s *DynamoDaybookStore) PurgeUserData(ctx context.Context, userId string) error {
	deletedSKs, err := deletePartitionThrottled(s, ctx, userPK(userId), 50*time.Millisecond)
	if err != nil {
		return err
	}

	for _, sk := range deletedSKs {
		if !strings.HasPrefix(sk, "CHAT#") {
			continue
		}
		chatId := skDocID(sk)
		if chatId == "" {
			continue
		}
		if _, err := deletePartitionThrottled(s, ctx, chatMsgPK(chatId), 50*time.Millisecond); err != nil {
			return err
		}
	}

	return nil
}
