package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimMessage is one message held by the ChatSim.
type SimMessage struct {
	Ref     MessageRef
	Content string
	Rows    [][]Control
}

// SimNotice is one self-deleting notice recorded by the ChatSim.
type SimNotice struct {
	Channel string
	Content string
	TTL     time.Duration
}

// SimReply is one interaction reply recorded by the ChatSim.
type SimReply struct {
	User      string
	Content   string
	Ephemeral bool
}

// ChatSim is an in-memory Messenger and UserResolver used by tests and the
// playground. It stores messages per channel and delivers control clicks to
// a configurable sink, standing in for the real platform's event stream.
type ChatSim struct {
	mu       sync.Mutex
	users    map[string]User
	messages map[string]*SimMessage
	order    map[string][]string
	notices  []SimNotice
	replies  []SimReply
	sink     func(Interaction)
}

// NewChatSim returns an empty simulator.
func NewChatSim() *ChatSim {
	return &ChatSim{
		users:    make(map[string]User),
		messages: make(map[string]*SimMessage),
		order:    make(map[string][]string),
	}
}

// AddUser registers a resolvable user.
func (s *ChatSim) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// RemoveUser unregisters a user, simulating a purged account.
func (s *ChatSim) RemoveUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// SetSink installs the interaction dispatch target. Clicks delivered before
// a sink is installed are dropped.
func (s *ChatSim) SetSink(fn func(Interaction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = fn
}

func (s *ChatSim) Send(ctx context.Context, channel, content string, rows [][]Control) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := MessageRef{Channel: channel, ID: uuid.NewString()}
	s.messages[ref.ID] = &SimMessage{Ref: ref, Content: content, Rows: rows}
	s.order[channel] = append(s.order[channel], ref.ID)
	return ref, nil
}

func (s *ChatSim) Edit(ctx context.Context, ref MessageRef, content string, rows [][]Control) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[ref.ID]
	if !ok {
		return fmt.Errorf("unknown message %s", ref.ID)
	}
	msg.Content = content
	msg.Rows = rows
	return nil
}

func (s *ChatSim) Delete(ctx context.Context, ref MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[ref.ID]; !ok {
		return fmt.Errorf("unknown message %s", ref.ID)
	}
	delete(s.messages, ref.ID)
	ids := s.order[ref.Channel]
	for i, id := range ids {
		if id == ref.ID {
			s.order[ref.Channel] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ChatSim) Notify(ctx context.Context, channel, content string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, SimNotice{Channel: channel, Content: content, TTL: ttl})
	return nil
}

func (s *ChatSim) ResolveUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("unknown user %s", id)
	}
	return u, nil
}

// Click delivers a control interaction to the sink, as the platform would on
// a button press. The reply callback records into the simulator.
func (s *ChatSim) Click(messageID, token, userID string) error {
	s.mu.Lock()
	msg, ok := s.messages[messageID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown message %s", messageID)
	}
	user, ok := s.users[userID]
	if !ok {
		user = User{ID: userID, Name: userID}
	}
	sink := s.sink
	ref := msg.Ref
	s.mu.Unlock()

	if sink == nil {
		return nil
	}
	ic := NewInteraction(token, ref, user, func(content string, ephemeral bool) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.replies = append(s.replies, SimReply{User: userID, Content: content, Ephemeral: ephemeral})
		return nil
	})
	sink(ic)
	return nil
}

// Message returns the stored message with the given ID.
func (s *ChatSim) Message(id string) (SimMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return SimMessage{}, false
	}
	return *msg, true
}

// ChannelMessages returns the channel's messages in posting order.
func (s *ChatSim) ChannelMessages(channel string) []SimMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SimMessage, 0, len(s.order[channel]))
	for _, id := range s.order[channel] {
		out = append(out, *s.messages[id])
	}
	return out
}

// LastMessage returns the most recent message in the channel.
func (s *ChatSim) LastMessage(channel string) (SimMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.order[channel]
	if len(ids) == 0 {
		return SimMessage{}, false
	}
	return *s.messages[ids[len(ids)-1]], true
}

// Notices returns every recorded self-deleting notice.
func (s *ChatSim) Notices() []SimNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimNotice(nil), s.notices...)
}

// Replies returns every recorded interaction reply.
func (s *ChatSim) Replies() []SimReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimReply(nil), s.replies...)
}
