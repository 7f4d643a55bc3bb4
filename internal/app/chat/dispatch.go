package chat

import (
	"fmt"
	"net/url"
	"strings"
)

// joinAnnouncement is the phrase the server uses when someone enters the room.
const joinAnnouncement = "entrou no chat"

const (
	joinNotificationTitle = "Novo usuário!"
	joinNotificationIcon  = "https://placehold.co/64x64/34D399/FFFFFF?text=🎉"
)

// dispatch decodes one inbound frame and routes it to the matching handler.
func (s *Session) dispatch(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		s.logger.Warn().Err(err).
			Int("frame_len", len(data)).
			Msg("Server sent invalid JSON")
		return
	}

	switch env.Type {
	case TypeChatHistory:
		s.handleChatHistory(env.Messages)

	case TypeUserListUpdate:
		s.handleUserListUpdate(env)

	case TypeSystemMessage:
		s.handleSystemMessage(env.Content)

	case TypeChatMessage:
		s.handleChatMessage(env.ChatMessage())

	case TypeLogin:
		s.logger.Debug().Msg("Server acknowledged login.")

	default:
		s.logger.Warn().Str("msg_type", string(env.Type)).Msg("Server sent unsupported message type")
	}
}

// handleChatHistory renders the backlog and scrolls once at the end.
func (s *Session) handleChatHistory(messages []ChatMessage) {
	for _, msg := range messages {
		s.view.RenderChatMessage(msg, s.self.IsSender(msg.Sender))
	}
	s.view.ScrollToBottom()

	s.logger.Debug().Int("count", len(messages)).Msg("Rendered chat history.")
}

// handleUserListUpdate replaces the user list and adopts the server id for self.
func (s *Session) handleUserListUpdate(env InboundEnvelope) {
	s.view.RenderUserList(env.Users)

	if s.self.HasID() {
		return
	}

	current, ok := s.self.FindIn(env.Users)
	if ok && s.self.AdoptID(current.ID) {
		s.logger.Info().Str("user_id", s.self.ID).Msg("Adopted server-assigned id.")
		s.view.RenderUserInfo(s.self.User)
	}
}

func (s *Session) handleSystemMessage(content string) {
	s.view.RenderSystemMessage(content)
	s.view.ScrollToBottom()

	if strings.Contains(content, joinAnnouncement) && !s.self.IsMentionedFirst(content) {
		s.notifier.Show(joinNotificationTitle, content, joinNotificationIcon)
	}
}

func (s *Session) handleChatMessage(msg ChatMessage) {
	isSelf := s.self.IsSender(msg.Sender)

	s.view.RenderChatMessage(msg, isSelf)
	s.view.ScrollToBottom()

	if !isSelf {
		s.notifier.Show(msg.Sender.Name, msg.Content, AvatarIconURL(msg.Sender.Color, msg.Sender.Initial()))
	}
}

// AvatarIconURL returns a placeholder avatar image with the given background color
// and initial.
func AvatarIconURL(color, initial string) string {
	return fmt.Sprintf("https://placehold.co/64x64/%s/FFFFFF?text=%s",
		strings.TrimPrefix(color, "#"),
		url.QueryEscape(initial),
	)
}
