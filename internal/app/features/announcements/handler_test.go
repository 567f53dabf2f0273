// internal/app/features/announcements/handler_test.go
package announcements

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	announcementstore "github.com/maestros-community/backend/internal/app/store/announcements"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/domain/models"
	"github.com/maestros-community/backend/internal/testutil"
)

type fakeBot struct {
	announceErr   error
	lastContent   string
	lastEmbed     *discordgo.MessageEmbed
	lastChannelID string
}

func (b *fakeBot) Ready() bool            { return true }
func (b *fakeBot) Username() string       { return "maestros-bot" }
func (b *fakeBot) Latency() time.Duration { return 25 * time.Millisecond }
func (b *fakeBot) Stats() bridge.StatsSnapshot {
	return bridge.StatsSnapshot{}
}
func (b *fakeBot) Guild() (bridge.GuildInfo, error) {
	return bridge.GuildInfo{ID: "guild-1", Name: "Maestros"}, nil
}
func (b *fakeBot) Channels() ([]bridge.ChannelInfo, error) {
	return []bridge.ChannelInfo{
		{ID: "ch-1", Name: "announcements", Category: "info", Position: 0},
		{ID: "ch-2", Name: "general", Category: "chat", Position: 1},
	}, nil
}
func (b *fakeBot) Roles() ([]bridge.RoleInfo, error) {
	return []bridge.RoleInfo{{ID: "role-1", Name: "Member", Position: 3}}, nil
}
func (b *fakeBot) MemberRoleIDs(string) ([]string, error) { return nil, nil }
func (b *fakeBot) Members() ([]bridge.MemberInfo, error)  { return nil, nil }
func (b *fakeBot) SearchMembers(query string, limit int) ([]bridge.MemberInfo, error) {
	return []bridge.MemberInfo{{DiscordID: "m-1", Username: "alpha"}}, nil
}
func (b *fakeBot) AssignRole(string, string) error    { return nil }
func (b *fakeBot) DirectMessage(string, string) error { return nil }
func (b *fakeBot) Announce(channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	b.lastChannelID = channelID
	b.lastContent = content
	b.lastEmbed = embed
	if b.announceErr != nil {
		return "", b.announceErr
	}
	return "msg-1", nil
}

func testHandler(t *testing.T) (*Handler, *fakeBot) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	checker := authz.New(
		testutil.TestCEORoleID,
		testutil.TestManagerRoleID,
		testutil.TestMemberRoleID,
		[]string{testutil.TestAdminID},
	)
	bot := &fakeBot{}
	bridge.Set(bot)
	t.Cleanup(bridge.Clear)
	return NewHandler(announcementstore.New(db), checker, zap.NewNop()), bot
}

func TestServeGuilds(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/announcements/guilds"), testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeGuilds(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Maestros")
}

func TestServeGuildsRequiresBot(t *testing.T) {
	h, _ := testHandler(t)
	bridge.Clear()

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/announcements/guilds"), testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeGuilds(rec, req)

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	rec.AssertContains(t, "Discord bot not connected")
}

func TestServeChannelsWrongGuild(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/announcements/guilds/other/channels"),
		"guild_id", "other")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeChannels(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeMemberSearch(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/announcements/guilds/guild-1/members/search?query=al"),
		"guild_id", "guild-1")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeMemberSearch(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "alpha")
}

func TestServeMemberSearchRequiresQuery(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/announcements/guilds/guild-1/members/search"),
		"guild_id", "guild-1")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeMemberSearch(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeSend(t *testing.T) {
	h, bot := testHandler(t)
	ctx := testutil.TestContext(t)

	body := `{
		"channel_id": "ch-1",
		"content": "Patch day!",
		"embed": {
			"title": "Season 4",
			"description": "New ranked season starts tonight.",
			"color": "#FF0000",
			"fields": [{"name": "Start", "value": "20:00 UTC", "inline": true}]
		},
		"mentions": {"everyone": true, "role_ids": ["role-1"]}
	}`
	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/announcements/send", body),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeSend(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Success     bool   `json:"success"`
		MessageID   string `json:"message_id"`
		ChannelName string `json:"channel_name"`
		MessageURL  string `json:"message_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.MessageID != "msg-1" || resp.ChannelName != "announcements" {
		t.Errorf("response: %+v", resp)
	}
	if resp.MessageURL != "https://discord.com/channels/guild-1/ch-1/msg-1" {
		t.Errorf("message_url = %q", resp.MessageURL)
	}

	if bot.lastContent != "@everyone <@&role-1>\nPatch day!" {
		t.Errorf("content = %q", bot.lastContent)
	}
	if bot.lastEmbed == nil || bot.lastEmbed.Color != 0xFF0000 || len(bot.lastEmbed.Fields) != 1 {
		t.Errorf("embed: %+v", bot.lastEmbed)
	}

	logs, err := h.Logs.Recent(ctx, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || !logs[0].Success || logs[0].ChannelName != "announcements" {
		t.Errorf("audit: %+v", logs)
	}
}

func TestServeSendUnknownChannel(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/announcements/send",
			`{"channel_id":"ch-404","content":"hello"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeSend(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Channel not found")
}

func TestServeSendFailureIsAudited(t *testing.T) {
	h, bot := testHandler(t)
	ctx := testutil.TestContext(t)
	bot.announceErr = errors.New("missing permissions")

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/announcements/send",
			`{"channel_id":"ch-1","content":"hello"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeSend(rec, req)

	rec.AssertStatus(t, http.StatusBadGateway)

	logs, err := h.Logs.Recent(ctx, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Success || logs[0].ErrorMessage != "missing permissions" {
		t.Errorf("audit: %+v", logs)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]int{
		"#FF0000": 0xFF0000,
		"5865F2":  0x5865F2,
		"":        defaultEmbedColor,
		"zzz":     defaultEmbedColor,
	}
	for in, want := range cases {
		if got := parseColor(in); got != want {
			t.Errorf("parseColor(%q) = %#x, want %#x", in, got, want)
		}
	}
}

func TestBuildEmbedEmpty(t *testing.T) {
	if buildEmbed(models.Embed{Color: "#123456"}) != nil {
		t.Error("expected nil embed for empty composer state")
	}
}

func TestServeLogByID(t *testing.T) {
	h, _ := testHandler(t)
	ctx := testutil.TestContext(t)

	entry := &models.AnnouncementLog{
		ManagerID:   "mgr-1",
		ChannelName: "announcements",
		Success:     true,
	}
	if err := h.Logs.Record(ctx, entry); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/announcements/logs/x"),
		"log_id", entry.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeLogByID(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "announcements")
}

func TestServeLogByIDNotFound(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/announcements/logs/x"),
		"log_id", "not-a-hex-id")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeLogByID(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}
