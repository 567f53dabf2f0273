package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fakeBot struct {
	ready bool
}

func (f *fakeBot) Ready() bool             { return f.ready }
func (f *fakeBot) Username() string        { return "testbot" }
func (f *fakeBot) Latency() time.Duration  { return 42 * time.Millisecond }
func (f *fakeBot) Stats() StatsSnapshot    { return StatsSnapshot{Total: 10} }
func (f *fakeBot) Guild() (GuildInfo, error) {
	return GuildInfo{ID: "1", Name: "Test"}, nil
}
func (f *fakeBot) Channels() ([]ChannelInfo, error)              { return nil, nil }
func (f *fakeBot) Roles() ([]RoleInfo, error)                    { return nil, nil }
func (f *fakeBot) MemberRoleIDs(string) ([]string, error)        { return nil, nil }
func (f *fakeBot) Members() ([]MemberInfo, error)                { return nil, nil }
func (f *fakeBot) SearchMembers(string, int) ([]MemberInfo, error) { return nil, nil }
func (f *fakeBot) AssignRole(string, string) error               { return nil }
func (f *fakeBot) DirectMessage(string, string) error            { return nil }
func (f *fakeBot) Announce(string, string, *discordgo.MessageEmbed) (string, error) {
	return "msg-1", nil
}

func TestGetBeforeSet(t *testing.T) {
	Clear()
	if _, err := Get(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestGetNotReady(t *testing.T) {
	Set(&fakeBot{ready: false})
	defer Clear()

	if _, err := Get(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("not-ready bot should be unavailable, got %v", err)
	}
}

func TestSetGetClear(t *testing.T) {
	Set(&fakeBot{ready: true})

	b, err := Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Stats().Total != 10 {
		t.Errorf("wrong bot returned")
	}

	Clear()
	if _, err := Get(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("after clear: got %v, want ErrUnavailable", err)
	}
}
