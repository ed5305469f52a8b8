// Package discord posts newly seen alerts and void fissures to a Discord
// channel as message embeds.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/poller"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// Embed sidebar colours.
const (
	embedColorAlert        = 0xE67E22
	embedColorFissure      = 0x3498DB
	embedColorSteelFissure = 0xC0392B
)

// Sender is the subset of [*discordgo.Session] the notifier uses.
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config holds the notifier's dependencies.
type Config struct {
	Sender    Sender
	ChannelID string

	// Metrics counts sent notifications. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Now overrides the clock used for relative expiry times. Default:
	// [time.Now].
	Now func() time.Time
}

// Notifier turns poller events into Discord messages. It is safe for
// concurrent use.
type Notifier struct {
	cfg Config
}

// NewSession creates a REST-only discordgo session for token. No gateway
// connection is opened; sending messages does not need one.
func NewSession(token string) (*discordgo.Session, error) {
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return s, nil
}

// New creates a Notifier.
func New(cfg Config) (*Notifier, error) {
	if cfg.Sender == nil || cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord: sender and channel id are required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Notifier{cfg: cfg}, nil
}

// Run posts every new alert and fissure of each event until events is
// closed or ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, events <-chan poller.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			n.Notify(ctx, ev)
		}
	}
}

// Notify posts the embeds for one event. Send failures are logged and
// counted; they never stop the remaining sends.
func (n *Notifier) Notify(ctx context.Context, ev poller.Event) {
	now := n.cfg.Now()
	for _, a := range ev.NewAlerts {
		n.send(ctx, "alert", alertEmbed(a, now))
	}
	for _, f := range ev.NewFissures {
		n.send(ctx, "fissure", fissureEmbed(f, now))
	}
}

func (n *Notifier) send(ctx context.Context, kind string, embed *discordgo.MessageEmbed) {
	_, err := n.cfg.Sender.ChannelMessageSendEmbed(n.cfg.ChannelID, embed, discordgo.WithContext(ctx))
	n.cfg.Metrics.RecordNotification(ctx, kind, err)
	if err != nil {
		slog.Warn("discord: failed to send embed", "kind", kind, "channel", n.cfg.ChannelID, "err", err)
		return
	}
	slog.Debug("discord: embed sent", "kind", kind, "title", embed.Title)
}

// ─────────────────────────────────────────────────────────────────────────────
// Embeds
// ─────────────────────────────────────────────────────────────────────────────

func nodeLabel(n *worldstate.Node) string {
	if n == nil {
		return "Unknown node"
	}
	if n.Planet == "" {
		return n.Name
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Planet)
}

func expiresField(expiry, now time.Time) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:   "Expires",
		Value:  humanize.RelTime(expiry, now, "ago", "from now"),
		Inline: true,
	}
}

// alertEmbed renders a newly seen alert.
func alertEmbed(a worldstate.Alert, now time.Time) *discordgo.MessageEmbed {
	m := a.MissionInfo
	fields := []*discordgo.MessageEmbedField{
		{Name: "Node", Value: nodeLabel(m.Node), Inline: true},
		{Name: "Faction", Value: m.Faction.String(), Inline: true},
		{Name: "Level", Value: fmt.Sprintf("%d-%d", m.MinEnemyLevel, m.MaxEnemyLevel), Inline: true},
	}
	if reward := rewardText(m.MissionReward); reward != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reward", Value: reward})
	}
	fields = append(fields, expiresField(a.Expiry, now))

	return &discordgo.MessageEmbed{
		Title:     "Alert: " + m.MissionType.String(),
		Color:     embedColorAlert,
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: a.ID},
		Timestamp: a.Activation.UTC().Format(time.RFC3339),
	}
}

func rewardText(r worldstate.MissionReward) string {
	var parts []string
	if r.Credits != nil && *r.Credits > 0 {
		parts = append(parts, humanize.Comma(int64(*r.Credits))+" credits")
	}
	parts = append(parts, r.Items...)
	for _, c := range r.CountedItems {
		parts = append(parts, fmt.Sprintf("%dx %s", c.ItemCount, c.ItemType))
	}
	return strings.Join(parts, ", ")
}

// fissureEmbed renders a newly seen void fissure.
func fissureEmbed(f worldstate.Fissure, now time.Time) *discordgo.MessageEmbed {
	title := fmt.Sprintf("%s Fissure", f.Tier)
	color := embedColorFissure
	if f.IsSteelPath {
		title = "Steel Path " + title
		color = embedColorSteelFissure
	}
	mission := "Unknown"
	if f.Node != nil {
		mission = f.Node.MissionType.String()
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Node", Value: nodeLabel(f.Node), Inline: true},
			{Name: "Mission", Value: mission, Inline: true},
			expiresField(f.Expiry, now),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: f.ID},
		Timestamp: f.Activation.UTC().Format(time.RFC3339),
	}
}
