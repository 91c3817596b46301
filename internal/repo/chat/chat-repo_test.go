package chat_repo

import (
	"context"
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "in-memory sqlite should open")

	require.NoError(t, db.AutoMigrate(&entity.Chat{}, &entity.Message{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestFindOrCreateActiveChat_CreatesOnce(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, created, err := repo.FindOrCreateActiveChat(ctx, "cust-1", strPtr("Bestellung fehlt"))
	require.Nil(t, err)
	require.True(t, created, "first contact creates a chat")
	assert.Equal(t, entity.ChatStatusOpen, chat.Status)
	assert.Equal(t, "cust-1", chat.CustomerID)

	again, created, err := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, err)
	assert.False(t, created, "an active chat is reused, not duplicated")
	assert.Equal(t, chat.ID, again.ID)
}

func TestFindOrCreateActiveChat_ClosedChatGetsReplaced(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	first, created, err := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, err)
	require.True(t, created)

	_, err = repo.UpdateChatStatus(ctx, first.ID, entity.ChatStatusClosed, nil)
	require.Nil(t, err)

	second, created, err := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, err)
	assert.True(t, created, "a closed chat no longer counts as active")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAppendMessage_MonotonicIDs(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, err := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, err)

	var lastID int64
	for i := 0; i < 5; i++ {
		msg, err := repo.AppendMessage(ctx, chat.ID, "cust-1", "hello", false)
		require.Nil(t, err)
		assert.Greater(t, msg.ID, lastID, "message ids must increase with accept order")
		lastID = msg.ID
	}
}

func TestAppendMessage_StaleChatCommitsNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()

	msg, err := repo.AppendMessage(ctx, uuid.New(), "cust-1", "into the void", false)

	require.NotNil(t, err, "sending into a nonexistent chat must fail")
	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Nil(t, msg)

	// the whole send is one transaction, so nothing may be left behind for a
	// retry to duplicate
	var leftover int64
	require.NoError(t, db.Model(&entity.Message{}).Count(&leftover).Error)
	assert.Zero(t, leftover, "a failed send commits no message row")
}

func TestAppendMessage_UnreadCounter(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)

	// three customer messages
	for i := 0; i < 3; i++ {
		_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "ping", false)
		require.Nil(t, appErr)
	}

	current, appErr := repo.FindChatByID(ctx, chat.ID)
	require.Nil(t, appErr)
	assert.Equal(t, int64(3), current.UnreadCount, "each customer message increments by exactly one")

	// agent reply clears the counter
	_, appErr = repo.AppendMessage(ctx, chat.ID, "agent-1", "pong", true)
	require.Nil(t, appErr)

	current, appErr = repo.FindChatByID(ctx, chat.ID)
	require.Nil(t, appErr)
	assert.Equal(t, int64(0), current.UnreadCount)
	assert.False(t, current.LastMessageAt.IsZero())
}

func TestAcknowledgeRead_OneDirectionalAndIdempotent(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)

	_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "question", false)
	require.Nil(t, appErr)
	_, appErr = repo.AppendMessage(ctx, chat.ID, "agent-1", "answer", true)
	require.Nil(t, appErr)
	_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "thanks", false)
	require.Nil(t, appErr)

	// the agent reader flips the customer's messages and zeroes the counter
	// in one go
	require.Nil(t, repo.AcknowledgeRead(ctx, chat.ID, true))

	full, appErr := repo.GetChatWithMessages(ctx, chat.ID)
	require.Nil(t, appErr)
	require.Len(t, full.Messages, 3)
	assert.True(t, full.Messages[0].IsRead, "customer-authored message flips to read")
	assert.False(t, full.Messages[1].IsRead, "agent-authored message is untouched")
	assert.True(t, full.Messages[2].IsRead)
	assert.Equal(t, int64(0), full.UnreadCount, "agent read zeroes the unread counter")

	// repeating the call changes nothing
	require.Nil(t, repo.AcknowledgeRead(ctx, chat.ID, true))

	again, appErr := repo.GetChatWithMessages(ctx, chat.ID)
	require.Nil(t, appErr)
	assert.True(t, again.Messages[0].IsRead)
	assert.False(t, again.Messages[1].IsRead)
}

func TestAcknowledgeRead_CustomerKeepsCounter(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)

	_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "anyone?", false)
	require.Nil(t, appErr)
	_, appErr = repo.AppendMessage(ctx, chat.ID, "agent-1", "here", true)
	require.Nil(t, appErr)
	_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "great", false)
	require.Nil(t, appErr)

	// a customer reader acknowledges the agent's messages only
	require.Nil(t, repo.AcknowledgeRead(ctx, chat.ID, false))

	full, appErr := repo.GetChatWithMessages(ctx, chat.ID)
	require.Nil(t, appErr)
	require.Len(t, full.Messages, 3)
	assert.False(t, full.Messages[0].IsRead)
	assert.True(t, full.Messages[1].IsRead, "agent-authored message flips to read")
	assert.Equal(t, int64(1), full.UnreadCount, "the agent-facing counter is not touched by customer reads")
}

func TestGetChatWithMessages_OrderedByID(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", content, false)
		require.Nil(t, appErr)
	}

	full, appErr := repo.GetChatWithMessages(ctx, chat.ID)
	require.Nil(t, appErr)
	require.Len(t, full.Messages, 3)
	for i, content := range contents {
		assert.Equal(t, content, full.Messages[i].Content, "history must come back in send order")
	}
}

func TestUpdateChatStatus(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)

	agent := "a3a5e1d0-0000-4000-8000-000000000001"
	updated, appErr := repo.UpdateChatStatus(ctx, chat.ID, entity.ChatStatusInProgress, &agent)
	require.Nil(t, appErr)
	assert.Equal(t, entity.ChatStatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, agent, *updated.AssignedTo)

	// transitions go in any direction, including back to open
	reopened, appErr := repo.UpdateChatStatus(ctx, chat.ID, entity.ChatStatusOpen, nil)
	require.Nil(t, appErr)
	assert.Equal(t, entity.ChatStatusOpen, reopened.Status)

	_, appErr = repo.UpdateChatStatus(ctx, chat.ID, "archived", nil)
	require.NotNil(t, appErr, "unknown status values are rejected")
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	_, appErr = repo.UpdateChatStatus(ctx, uuid.New(), entity.ChatStatusClosed, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestDeleteChat_RemovesMessages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepo(db)
	ctx := context.Background()

	chat, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)
	_, appErr = repo.AppendMessage(ctx, chat.ID, "cust-1", "bye", false)
	require.Nil(t, appErr)

	require.Nil(t, repo.DeleteChat(ctx, chat.ID))

	_, appErr = repo.FindChatByID(ctx, chat.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	var orphaned int64
	require.NoError(t, db.Model(&entity.Message{}).Where("chat_id = ?", chat.ID).Count(&orphaned).Error)
	assert.Zero(t, orphaned, "messages go down with their chat")

	appErr = repo.DeleteChat(ctx, chat.ID)
	require.NotNil(t, appErr, "deleting twice reports not found")
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestListChats_RecentFirst(t *testing.T) {
	repo := NewChatRepo(setupTestDB(t))
	ctx := context.Background()

	older, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-1", nil)
	require.Nil(t, appErr)
	newer, _, appErr := repo.FindOrCreateActiveChat(ctx, "cust-2", nil)
	require.Nil(t, appErr)

	// bump the newer chat's last_message_at past the older one's
	_, appErr = repo.AppendMessage(ctx, newer.ID, "cust-2", "newest", false)
	require.Nil(t, appErr)

	chats, appErr := repo.ListChats(ctx)
	require.Nil(t, appErr)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.ID, chats[0].ID, "most recently active chat comes first")
	assert.Equal(t, older.ID, chats[1].ID)
}
