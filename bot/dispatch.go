package bot

import (
	"context"
	"errors"

	"roulette/common"
	"roulette/models"
	"roulette/service"

	log "github.com/sirupsen/logrus"
)

// command is a slash command reduced to the values the casino needs
type command struct {
	name    string
	user    string
	strings map[string]string
	ints    map[string]int64
}

type reply struct {
	content   string
	ephemeral bool
}

// dispatch runs cmd against the casino and renders the reply
func dispatch(ctx context.Context, casino service.CasinoService, cmd command) reply {
	content, err := run(ctx, casino, cmd)
	if err == nil || errors.Is(err, models.ErrPersistence) {
		return reply{content: content}
	}

	msg, userFacing := common.FormatError(cmd.user, err)
	if !userFacing {
		log.WithFields(log.Fields{
			"command": cmd.name,
			"user":    cmd.user,
			"error":   err,
		}).Error("Command failed")
	}
	return reply{content: msg, ephemeral: true}
}

func run(ctx context.Context, casino service.CasinoService, cmd command) (string, error) {
	switch cmd.name {
	case "roulette":
		result, err := casino.PlaceBet(ctx, cmd.user, cmd.strings["color"], cmd.ints["bet"])
		if result == nil {
			return "", err
		}
		return common.FormatBetResult(result), err

	case "balance":
		balance, err := casino.CheckBalance(ctx, cmd.user)
		return common.FormatBalanceReply(cmd.user, balance), err

	case "bonus", "activity":
		kind, err := models.ParseRewardKind(cmd.name)
		if err != nil {
			return "", err
		}
		result, err := casino.ClaimBonus(ctx, cmd.user, kind)
		if result == nil || !result.Granted {
			return "", err
		}
		return common.FormatGrantResult(cmd.user, result), err

	case "top":
		entries, err := casino.Leaderboard(ctx, int(cmd.ints["count"]))
		if err != nil {
			return "", err
		}
		return common.FormatLeaderboard(entries), nil

	case "stats":
		user := cmd.user
		if target := cmd.strings["user"]; target != "" {
			user = target
		}
		acc, err := casino.Stats(ctx, user)
		return common.FormatStats(user, acc), err

	case "admin":
		action, err := models.ParseAdminAction(cmd.strings["action"])
		if err != nil {
			return "", err
		}
		target, amount := cmd.strings["user"], cmd.ints["amount"]
		balance, err := casino.AdminAdjust(ctx, cmd.user, target, action, amount)
		return common.FormatAdminResult(target, action, amount, balance), err
	}

	return "", models.ErrInvalidInput
}
