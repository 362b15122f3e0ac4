package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu         sync.Mutex
	writes     []outbound
	failWrites bool
	closed     bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("broken pipe")
	}
	if out, ok := v.(outbound); ok {
		f.writes = append(f.writes, out)
	}
	return nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error { return nil }
func (f *fakeConn) ReadMessage() (int, []byte, error)               { return 0, nil, errors.New("eof") }
func (f *fakeConn) SetReadLimit(limit int64)                        {}
func (f *fakeConn) SetReadDeadline(t time.Time) error               { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error              { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error)             {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.writes))
	for i, w := range f.writes {
		names[i] = w.Event
	}
	return names
}

type stubGuard struct {
	members map[uint]map[uint]bool // projectID -> userID -> member
	err     error
}

func (s *stubGuard) IsParticipant(projectID uint, userID uint) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.members[projectID][userID], nil
}

func memberGuard(projectID uint, userIDs ...uint) *stubGuard {
	users := make(map[uint]bool)
	for _, id := range userIDs {
		users[id] = true
	}
	return &stubGuard{members: map[uint]map[uint]bool{projectID: users}}
}

func TestRegisterTracksMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub(memberGuard(1))

	tab1 := NewClient(&fakeConn{}, 7)
	tab2 := NewClient(&fakeConn{}, 7)
	hub.Register(tab1)
	hub.Register(tab2)

	if got := hub.UserConnections(7); got != 2 {
		t.Fatalf("UserConnections = %d, want 2", got)
	}

	hub.Unregister(tab1)
	if got := hub.UserConnections(7); got != 1 {
		t.Fatalf("after one disconnect UserConnections = %d, want 1", got)
	}

	hub.Unregister(tab2)
	if got := hub.UserConnections(7); got != 0 {
		t.Fatalf("after full disconnect UserConnections = %d, want 0", got)
	}
}

func TestJoinRequiresParticipation(t *testing.T) {
	hub := NewHub(memberGuard(1, 7))

	member := NewClient(&fakeConn{}, 7)
	outsider := NewClient(&fakeConn{}, 9)
	hub.Register(member)
	hub.Register(outsider)

	hub.Join(member, 1)
	hub.Join(outsider, 1)

	if got := hub.RoomSize(1); got != 1 {
		t.Fatalf("RoomSize = %d, want 1", got)
	}

	memberEvents := member.conn.(*fakeConn).events()
	if len(memberEvents) == 0 || memberEvents[len(memberEvents)-1] != EventJoinedProject {
		t.Fatalf("member events = %v, want trailing %q", memberEvents, EventJoinedProject)
	}

	outsiderEvents := outsider.conn.(*fakeConn).events()
	if len(outsiderEvents) == 0 || outsiderEvents[len(outsiderEvents)-1] != EventError {
		t.Fatalf("outsider events = %v, want trailing %q", outsiderEvents, EventError)
	}
	// The failed join must not terminate the connection.
	if outsider.conn.(*fakeConn).closed {
		t.Fatal("outsider connection was closed on join authorization failure")
	}
}

func TestToProjectReachesOnlySubscribers(t *testing.T) {
	hub := NewHub(memberGuard(1, 7, 8))

	subscribed := NewClient(&fakeConn{}, 7)
	connectedOnly := NewClient(&fakeConn{}, 8)
	hub.Register(subscribed)
	hub.Register(connectedOnly)
	hub.Join(subscribed, 1)

	hub.ToProject(1, "task:moved", map[string]uint{"taskId": 3})

	if events := subscribed.conn.(*fakeConn).events(); events[len(events)-1] != "task:moved" {
		t.Fatalf("subscriber events = %v, want task:moved", events)
	}
	for _, ev := range connectedOnly.conn.(*fakeConn).events() {
		if ev == "task:moved" {
			t.Fatal("non-subscriber received a project-room event")
		}
	}
}

func TestToUserReachesEveryConnection(t *testing.T) {
	hub := NewHub(memberGuard(1))

	tab1 := NewClient(&fakeConn{}, 7)
	tab2 := NewClient(&fakeConn{}, 7)
	other := NewClient(&fakeConn{}, 9)
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	hub.ToUser(7, "user:removed-from-project", map[string]any{"projectId": 1})

	for _, c := range []*Client{tab1, tab2} {
		events := c.conn.(*fakeConn).events()
		if len(events) == 0 || events[len(events)-1] != "user:removed-from-project" {
			t.Fatalf("connection %s events = %v", c.ID, events)
		}
	}
	for _, ev := range other.conn.(*fakeConn).events() {
		if ev == "user:removed-from-project" {
			t.Fatal("direct event leaked to another user")
		}
	}
}

func TestFailedWriteEvictsConnection(t *testing.T) {
	hub := NewHub(memberGuard(1, 7))

	broken := &fakeConn{}
	c := NewClient(broken, 7)
	hub.Register(c)
	hub.Join(c, 1)

	broken.mu.Lock()
	broken.failWrites = true
	broken.mu.Unlock()

	hub.ToProject(1, "column:created", nil)

	if got := hub.RoomSize(1); got != 0 {
		t.Fatalf("RoomSize after eviction = %d, want 0", got)
	}
	if got := hub.UserConnections(7); got != 0 {
		t.Fatalf("UserConnections after eviction = %d, want 0", got)
	}
	if !broken.closed {
		t.Fatal("evicted connection was not closed")
	}
}

func TestDispatchRoutesJoinAndLeave(t *testing.T) {
	hub := NewHub(memberGuard(1, 7))

	c := NewClient(&fakeConn{}, 7)
	hub.Register(c)

	hub.dispatch(c, Message{Event: MsgJoinProject, Data: json.RawMessage(`{"projectId":1}`)})
	if got := hub.RoomSize(1); got != 1 {
		t.Fatalf("RoomSize after join = %d, want 1", got)
	}

	hub.dispatch(c, Message{Event: MsgLeaveProject, Data: json.RawMessage(`{"projectId":1}`)})
	if got := hub.RoomSize(1); got != 0 {
		t.Fatalf("RoomSize after leave = %d, want 0", got)
	}

	hub.dispatch(c, Message{Event: "nonsense", Data: json.RawMessage(`{"projectId":1}`)})
	events := c.conn.(*fakeConn).events()
	if events[len(events)-1] != EventError {
		t.Fatalf("events = %v, want trailing %q", events, EventError)
	}
}
