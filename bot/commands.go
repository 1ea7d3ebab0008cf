package bot

import (
	"fmt"

	"roulette/models"

	"github.com/bwmarrin/discordgo"
)

var minBet = 1.0

// commandDefinitions lists the slash commands exposed by the bot
func commandDefinitions() []*discordgo.ApplicationCommand {
	colorChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.Colors))
	for _, c := range models.Colors {
		colorChoices = append(colorChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(c),
			Value: string(c),
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "roulette",
			Description: "Bet on red, black or green",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "color",
					Description: "Color to bet on",
					Required:    true,
					Choices:     colorChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "bet",
					Description: "Amount to bet",
					Required:    true,
					MinValue:    &minBet,
				},
			},
		},
		{
			Name:        "balance",
			Description: "Check your current balance",
		},
		{
			Name:        "bonus",
			Description: "Claim your daily bonus",
		},
		{
			Name:        "activity",
			Description: "Claim your activity reward",
		},
		{
			Name:        "top",
			Description: "Display the richest players",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many players to show (default 10)",
					Required:    false,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Display balance and win/loss record",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to check stats for (defaults to you)",
					Required:    false,
				},
			},
		},
		{
			Name:        "admin",
			Description: "Adjust a player's balance (admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "What to do",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "add", Value: string(models.AdminActionAdd)},
						{Name: "remove", Value: string(models.AdminActionRemove)},
						{Name: "set", Value: string(models.AdminActionSet)},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Player to adjust",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount",
					Required:    true,
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}
