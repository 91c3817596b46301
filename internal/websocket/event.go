package websocket

import (
	"fmt"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/dtos/chat_dto"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Room naming. Every chat has its own fan-out room; agent dashboards all sit
// in the shared admin room for cross-chat notifications.
const AdminRoom = "admin-room"

func ChatRoom(chatID string) string {
	return "chat-" + chatID
}

// Wire vocabulary. All events, both directions, travel through the single /ws
// endpoint wrapped in an Envelope.
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventJoinAdmin   = "join-admin"
	EventSendMessage = "send-message"
	EventMarkRead    = "mark-read"
	EventTyping      = "typing"

	EventNewMessage   = "new-message"
	EventMessagesRead = "messages-read"
	EventChatUpdate   = "chat-update"
	EventUserTyping   = "user-typing"
	EventError        = "error"
)

// Kinds carried in ChatUpdateEvent.Type, telling agent dashboards why a chat
// row needs a refresh.
const (
	UpdateNewMessage    = "new-message"
	UpdateChatOpened    = "chat-opened"
	UpdateStatusChanged = "status-changed"
	UpdateChatDeleted   = "chat-deleted"
)

type Envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed set of client-to-server events. Decoding goes through
// DecodeInbound so an unknown event name can never reach the router.
type Inbound interface {
	inbound()
	EventName() string
}

type JoinChatEvent struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

type LeaveChatEvent struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

type JoinAdminEvent struct{}

type SendMessageEvent struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
	// UserID and IsAdmin are part of the wire shape but the router always
	// substitutes the authenticated actor; a client cannot impersonate.
	UserID  string `json:"userId"`
	Content string `json:"content" validate:"required,min=1"`
	IsAdmin bool   `json:"isAdmin"`
}

type MarkReadEvent struct {
	ChatID  string `json:"chatId" validate:"required,uuid"`
	IsAdmin bool   `json:"isAdmin"`
}

type TypingEvent struct {
	ChatID   string `json:"chatId" validate:"required,uuid"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func (JoinChatEvent) inbound()    {}
func (LeaveChatEvent) inbound()   {}
func (JoinAdminEvent) inbound()   {}
func (SendMessageEvent) inbound() {}
func (MarkReadEvent) inbound()    {}
func (TypingEvent) inbound()      {}

func (JoinChatEvent) EventName() string    { return EventJoinChat }
func (LeaveChatEvent) EventName() string   { return EventLeaveChat }
func (JoinAdminEvent) EventName() string   { return EventJoinAdmin }
func (SendMessageEvent) EventName() string { return EventSendMessage }
func (MarkReadEvent) EventName() string    { return EventMarkRead }
func (TypingEvent) EventName() string      { return EventTyping }

// DecodeInbound parses one wire frame into its typed event.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}

	var ev Inbound
	switch env.Event {
	case EventJoinChat:
		ev = &JoinChatEvent{}
	case EventLeaveChat:
		ev = &LeaveChatEvent{}
	case EventJoinAdmin:
		return &JoinAdminEvent{}, nil
	case EventSendMessage:
		ev = &SendMessageEvent{}
	case EventMarkRead:
		ev = &MarkReadEvent{}
	case EventTyping:
		ev = &TypingEvent{}
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
	}
	return ev, nil
}

// Outbound is the closed set of server-to-client events.
type Outbound interface {
	EventName() string
}

type NewMessageEvent struct {
	chat_dto.MessageResponse
	Author *entity.PublicUser `json:"author,omitempty"`
}

type MessagesReadEvent struct {
	ChatID string `json:"chatId"`
}

type ChatUpdateEvent struct {
	ChatID string `json:"chatId"`
	Type   string `json:"type"`
}

type UserTypingEvent struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (NewMessageEvent) EventName() string   { return EventNewMessage }
func (MessagesReadEvent) EventName() string { return EventMessagesRead }
func (ChatUpdateEvent) EventName() string   { return EventChatUpdate }
func (UserTypingEvent) EventName() string   { return EventUserTyping }
func (ErrorEvent) EventName() string        { return EventError }

func EncodeOutbound(ev Outbound) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", ev.EventName(), err)
	}
	return json.Marshal(Envelope{Event: ev.EventName(), Data: data})
}
