package websocket

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	chat_repo "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/repo/chat"
	user_repo "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/repo/user"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const authorCacheTTL = 5 * time.Minute

// Router is the sole writer of chat and message mutations. Every inbound
// event is fully applied (validate, persist, counters, broadcast) before the
// same chat accepts the next one: a striped lock is held across the persist
// and the broadcast, so accepted order, commit order and broadcast order
// coincide per chat. Chats on different stripes proceed in parallel.
// chatLockStripes bounds the lock table: chats hashing to the same stripe
// serialize together, which keeps memory constant over the process lifetime
// regardless of how many chats have ever been touched.
const chatLockStripes = 64

type Router struct {
	hub      *Hub
	chats    chat_repo.ChatRepoContract
	users    user_repo.UserRepoContract
	rdb      *redis.Client
	validate *validator.Validate

	chatLocks [chatLockStripes]sync.Mutex
}

func NewRouter(hub *Hub, chats chat_repo.ChatRepoContract, users user_repo.UserRepoContract, rdb *redis.Client) *Router {
	return &Router{
		hub:      hub,
		chats:    chats,
		users:    users,
		rdb:      rdb,
		validate: validator.New(),
	}
}

// Dispatch routes one decoded event. All failures are local to the
// originating connection; room peers never observe another client's error.
func (r *Router) Dispatch(ctx context.Context, c *Client, ev Inbound) {
	switch e := ev.(type) {
	case *JoinChatEvent:
		r.handleJoinChat(c, e)
	case *LeaveChatEvent:
		r.handleLeaveChat(c, e)
	case *JoinAdminEvent:
		r.handleJoinAdmin(c)
	case *SendMessageEvent:
		r.handleSendMessage(ctx, c, e)
	case *MarkReadEvent:
		r.handleMarkRead(ctx, c, e)
	case *TypingEvent:
		r.handleTyping(c, e)
	default:
		c.SendEvent(ErrorEvent{Message: fmt.Sprintf("unhandled event %q", ev.EventName())})
	}
}

func (r *Router) handleJoinChat(c *Client, ev *JoinChatEvent) {
	if err := r.validate.Struct(ev); err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}
	r.hub.Join(c, ChatRoom(ev.ChatID))
}

func (r *Router) handleLeaveChat(c *Client, ev *LeaveChatEvent) {
	if err := r.validate.Struct(ev); err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}
	r.hub.Leave(c, ChatRoom(ev.ChatID))
}

func (r *Router) handleJoinAdmin(c *Client) {
	if !c.IsAgent {
		c.SendEvent(ErrorEvent{Message: "admin room is restricted to support agents"})
		return
	}
	r.hub.Join(c, AdminRoom)
}

func (r *Router) handleSendMessage(ctx context.Context, c *Client, ev *SendMessageEvent) {
	if err := r.validate.Struct(ev); err != nil {
		c.SendEvent(ErrorEvent{Message: "message must not be empty and needs a valid chat id"})
		return
	}

	chatID, err := uuid.Parse(ev.ChatID)
	if err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}

	// Sender identity comes from the authenticated actor, never the payload.
	isAdmin := c.IsAgent

	lock := r.chatLock(ev.ChatID)
	lock.Lock()
	defer lock.Unlock()

	// One transaction covers the message row and the chat counters: a failed
	// send leaves nothing behind, so the caller can retry the whole
	// operation without duplicating the message.
	msg, appErr := r.chats.AppendMessage(ctx, chatID, c.UserID, ev.Content, isAdmin)
	if appErr != nil {
		c.SendEvent(ErrorEvent{Message: appErr.Message})
		return
	}

	out := NewMessageEvent{
		MessageResponse: chat_dto.FromMessage(msg),
		Author:          r.lookupAuthor(ctx, c.UserID),
	}

	// Broadcast strictly follows durability, still under the chat lock.
	r.hub.Broadcast(ChatRoom(ev.ChatID), out)

	if !isAdmin {
		// Dashboards refresh their chat list off this hint without needing
		// the message payload.
		r.hub.Broadcast(AdminRoom, ChatUpdateEvent{ChatID: ev.ChatID, Type: UpdateNewMessage})
	}
}

func (r *Router) handleMarkRead(ctx context.Context, c *Client, ev *MarkReadEvent) {
	if err := r.validate.Struct(ev); err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}

	chatID, err := uuid.Parse(ev.ChatID)
	if err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}

	readerIsAdmin := c.IsAgent

	lock := r.chatLock(ev.ChatID)
	lock.Lock()
	defer lock.Unlock()

	// The reader acknowledges the other side's messages; for an agent the
	// unread counter reset rides the same transaction.
	if appErr := r.chats.AcknowledgeRead(ctx, chatID, readerIsAdmin); appErr != nil {
		c.SendEvent(ErrorEvent{Message: appErr.Message})
		return
	}

	r.hub.Broadcast(ChatRoom(ev.ChatID), MessagesReadEvent{ChatID: ev.ChatID})
}

func (r *Router) handleTyping(c *Client, ev *TypingEvent) {
	if err := r.validate.Struct(ev); err != nil {
		c.SendEvent(ErrorEvent{Message: "invalid chat id"})
		return
	}

	// Transient, no persistence, and the sender already knows it is typing.
	r.hub.BroadcastExcept(ChatRoom(ev.ChatID), UserTypingEvent{
		ChatID:   ev.ChatID,
		UserID:   c.UserID,
		IsTyping: ev.IsTyping,
	}, c)
}

func (r *Router) chatLock(chatID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(chatID))
	return &r.chatLocks[h.Sum32()%chatLockStripes]
}

// lookupAuthor resolves the sender's public fields, cached briefly in redis
// since agents send bursts of messages. A miss degrades to an anonymous
// author rather than failing the send.
func (r *Router) lookupAuthor(ctx context.Context, userID string) *entity.PublicUser {
	cacheKey := "chat:author:" + userID

	if r.rdb != nil {
		cached, appErr := utils.GetCacheData[entity.PublicUser](ctx, r.rdb, cacheKey)
		if appErr == nil && cached != nil {
			return cached
		}
	}

	user, appErr := r.users.FindUserByID(ctx, userID)
	if appErr != nil {
		log.Warn().Str("userID", userID).Msg("ws: author lookup failed, broadcasting without public fields")
		return nil
	}

	public := user.Public()
	if r.rdb != nil {
		if err := utils.SetCacheData(ctx, r.rdb, cacheKey, &public, authorCacheTTL); err != nil {
			log.Warn().Err(err).Msg("ws: failed to cache author profile")
		}
	}
	return &public
}
