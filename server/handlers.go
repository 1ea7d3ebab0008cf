package server

import (
	"errors"
	"net/http"
	"strconv"

	"roulette/common"
	"roulette/models"

	log "github.com/sirupsen/logrus"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Stream roulette is running!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// replyError answers with a chat reply for expected errors and a 500 otherwise.
// Persistence warnings never reach here; handlers treat them as success.
func (s *Server) replyError(w http.ResponseWriter, r *http.Request, user string, err error) {
	reply, ok := common.FormatError(user, err)
	if ok {
		writeText(w, http.StatusOK, reply)
		return
	}

	log.WithFields(log.Fields{
		"requestId": r.Context().Value(requestIDKey),
		"path":      r.URL.Path,
		"user":      user,
		"error":     err,
	}).Error("Command failed")
	writeText(w, http.StatusInternalServerError, reply)
}

// failed reports whether err should abort the handler
func failed(err error) bool {
	return err != nil && !errors.Is(err, models.ErrPersistence)
}

func (s *Server) handleRoulette(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, color, rawBet := q.Get("user"), q.Get("color"), q.Get("bet")
	if user == "" || color == "" || rawBet == "" {
		writeText(w, http.StatusOK, "Usage: !roulette <red|black|green> <bet>")
		return
	}

	amount, err := common.ParseAmount(rawBet)
	if err != nil {
		s.replyError(w, r, user, err)
		return
	}

	result, err := s.casino.PlaceBet(r.Context(), user, color, amount)
	if failed(err) {
		s.replyError(w, r, user, err)
		return
	}
	writeText(w, http.StatusOK, common.FormatBetResult(result))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeText(w, http.StatusOK, "Usage: ?user=<name>")
		return
	}

	balance, err := s.casino.CheckBalance(r.Context(), user)
	if failed(err) {
		s.replyError(w, r, user, err)
		return
	}
	writeText(w, http.StatusOK, common.FormatBalanceReply(user, balance))
}

func (s *Server) handleBonus(w http.ResponseWriter, r *http.Request) {
	s.claim(w, r, models.RewardDaily)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	s.claim(w, r, models.RewardActivity)
}

func (s *Server) claim(w http.ResponseWriter, r *http.Request, kind models.RewardKind) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeText(w, http.StatusOK, "Usage: ?user=<name>")
		return
	}

	result, err := s.casino.ClaimBonus(r.Context(), user, kind)
	if failed(err) {
		s.replyError(w, r, user, err)
		return
	}
	writeText(w, http.StatusOK, common.FormatGrantResult(user, result))
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.replyError(w, r, "", models.ErrInvalidAmount)
			return
		}
		n = parsed
	}

	entries, err := s.casino.Leaderboard(r.Context(), n)
	if err != nil {
		s.replyError(w, r, "", err)
		return
	}
	writeText(w, http.StatusOK, common.FormatLeaderboard(entries))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeText(w, http.StatusOK, "Usage: ?user=<name>")
		return
	}

	acc, err := s.casino.Stats(r.Context(), user)
	if failed(err) {
		s.replyError(w, r, user, err)
		return
	}
	writeText(w, http.StatusOK, common.FormatStats(user, acc))
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	caller, target, rawAction, rawAmount := q.Get("caller"), q.Get("target"), q.Get("action"), q.Get("amount")
	if caller == "" || target == "" || rawAction == "" || rawAmount == "" {
		writeText(w, http.StatusOK, "Usage: !admin <add|remove|set> <user> <amount>")
		return
	}

	action, err := models.ParseAdminAction(rawAction)
	if err != nil {
		s.replyError(w, r, caller, err)
		return
	}

	// Set accepts zero, so parse without the positive check
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		s.replyError(w, r, caller, models.ErrInvalidAmount)
		return
	}

	balance, err := s.casino.AdminAdjust(r.Context(), caller, target, action, amount)
	if failed(err) {
		s.replyError(w, r, caller, err)
		return
	}
	writeText(w, http.StatusOK, common.FormatAdminResult(target, action, amount, balance))
}
