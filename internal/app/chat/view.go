package chat

import (
	"context"

	"wschat/internal/app/user"
)

// View renders session events. Every method is called from the Session event loop,
// never concurrently with another View call made by the Session.
type View interface {
	// LeaveLogin starts the login screen's exit transition.
	LeaveLogin()

	// EnterChat shows the chat screen once the transition is over.
	EnterChat()

	// RenderUserList replaces the online user list.
	RenderUserList(users []user.User)

	// RenderUserInfo shows who the local user is logged in as.
	RenderUserInfo(self user.User)

	// RenderSystemMessage appends a centered system badge.
	RenderSystemMessage(content string)

	// RenderChatMessage appends a chat bubble. Self bubbles are right-aligned.
	RenderChatMessage(msg ChatMessage, isSelf bool)

	// ScrollToBottom brings the latest rendered entry into view.
	ScrollToBottom()
}

// Notifier delivers best-effort desktop notifications.
type Notifier interface {
	// RequestPermission asks for permission to notify, at most once per session.
	RequestPermission(ctx context.Context)

	// Show displays a notification if permission was granted and the user is away.
	Show(title, body, icon string)
}

// Input is the chat form's text field.
type Input interface {
	Value() string
	Clear()
}

type nopNotifier struct{}

func (nopNotifier) RequestPermission(context.Context) {}
func (nopNotifier) Show(string, string, string)       {}
