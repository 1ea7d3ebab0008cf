package bot

import (
	"context"
	"fmt"
	"time"

	"roulette/bot/common"
	"roulette/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string

	// CommandTimeout bounds how long a single command may run
	CommandTimeout time.Duration
}

type Bot struct {
	config  Config
	session *discordgo.Session
	casino  service.CasinoService
}

// New connects to Discord and registers the slash commands
func New(config Config, casino service.CasinoService) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	if config.CommandTimeout <= 0 {
		config.CommandTimeout = 10 * time.Second
	}

	bot := &Bot{
		config:  config,
		session: dg,
		casino:  casino,
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("guildId", config.GuildID).Info("Discord bot connected")
	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// handleCommands answers slash commands
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmd := commandFromInteraction(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), b.config.CommandTimeout)
	defer cancel()

	reply := dispatch(ctx, b.casino, cmd)
	if err := common.RespondText(s, i, reply.content, reply.ephemeral); err != nil {
		log.WithFields(log.Fields{
			"command": cmd.name,
			"user":    cmd.user,
			"error":   err,
		}).Error("Failed to respond to command")
	}
}

// commandFromInteraction extracts the caller and options from a slash command
func commandFromInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) command {
	data := i.ApplicationCommandData()

	var caller string
	if i.Member != nil && i.Member.User != nil {
		caller = i.Member.User.Username
	} else if i.User != nil {
		caller = i.User.Username
	}

	cmd := command{
		name:    data.Name,
		user:    caller,
		strings: make(map[string]string),
		ints:    make(map[string]int64),
	}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			cmd.strings[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			cmd.ints[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionUser:
			if u := opt.UserValue(s); u != nil {
				cmd.strings[opt.Name] = u.Username
			}
		}
	}
	return cmd
}
