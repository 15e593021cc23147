package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirorogo/fusaikanri/internal/ledger"
	"github.com/hirorogo/fusaikanri/internal/models"
)

type addDebtRequest struct {
	Creditor int64  `json:"creditor,string"`
	Debtor   int64  `json:"debtor,string"`
	Amount   int64  `json:"amount"`
	Note     string `json:"note"`
}

type payDebtRequest struct {
	Creditor int64 `json:"creditor,string"`
	Debtor   int64 `json:"debtor,string"`
	Amount   int64 `json:"amount"`
}

type payOnBehalfRequest struct {
	Payer    int64 `json:"payer,string"`
	Creditor int64 `json:"creditor,string"`
	Debtor   int64 `json:"debtor,string"`
	Amount   int64 `json:"amount"`
}

type transferRequest struct {
	Creditor    int64 `json:"creditor,string"`
	Debtor      int64 `json:"debtor,string"`
	NewCreditor int64 `json:"new_creditor,string"`
	Amount      int64 `json:"amount"`
}

func (s *Server) addDebt(c *gin.Context) {
	var req addDebtRequest
	if !bindJSON(c, &req) {
		return
	}

	total, err := s.ledger.AddDebt(c.Request.Context(), req.Creditor, req.Debtor, req.Amount, req.Note)
	if err != nil {
		s.fail(c, "add_debt", err)
		return
	}

	slog.Info("Debt added",
		"creditor", req.Creditor, "debtor", req.Debtor,
		"amount", req.Amount, "total", total,
	)
	ledgerOps.WithLabelValues("add_debt", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (s *Server) payDebt(c *gin.Context) {
	var req payDebtRequest
	if !bindJSON(c, &req) {
		return
	}

	remaining, err := s.ledger.PayDebt(c.Request.Context(), req.Creditor, req.Debtor, req.Amount)
	if err != nil {
		s.fail(c, "pay_debt", err)
		return
	}

	slog.Info("Debt paid",
		"creditor", req.Creditor, "debtor", req.Debtor,
		"amount", req.Amount, "remaining", remaining,
	)
	ledgerOps.WithLabelValues("pay_debt", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

func (s *Server) payOnBehalf(c *gin.Context) {
	var req payOnBehalfRequest
	if !bindJSON(c, &req) {
		return
	}

	remaining, err := s.ledger.PayOnBehalf(c.Request.Context(), req.Payer, req.Creditor, req.Debtor, req.Amount)
	if err != nil {
		s.fail(c, "pay_on_behalf", err)
		return
	}

	slog.Info("Debt paid on behalf",
		"payer", req.Payer, "creditor", req.Creditor,
		"debtor", req.Debtor, "amount", req.Amount, "remaining", remaining,
	)
	ledgerOps.WithLabelValues("pay_on_behalf", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

func (s *Server) transferDebt(c *gin.Context) {
	var req transferRequest
	if !bindJSON(c, &req) {
		return
	}

	remaining, err := s.ledger.TransferDebt(c.Request.Context(), req.Creditor, req.Debtor, req.NewCreditor, req.Amount)
	if err != nil {
		s.fail(c, "transfer_debt", err)
		return
	}

	slog.Info("Debt transferred",
		"creditor", req.Creditor, "debtor", req.Debtor,
		"new_creditor", req.NewCreditor, "amount", req.Amount, "remaining", remaining,
	)
	ledgerOps.WithLabelValues("transfer_debt", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

func (s *Server) balance(c *gin.Context) {
	creditor, ok := queryID(c, "creditor")
	if !ok {
		return
	}
	debtor, ok := queryID(c, "debtor")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": s.ledger.Balance(creditor, debtor)})
}

func (s *Server) userDebts(c *gin.Context) {
	user, ok := paramID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.ledger.UserDebts(user))
}

func (s *Server) history(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	var records []models.HistoryRecord
	if raw := c.Query("user"); raw != "" {
		user, err := models.ParseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user must be a decimal ID"})
			return
		}
		records = s.ledger.UserHistory(user, limit)
	} else {
		records = s.ledger.History(limit)
	}

	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (s *Server) summary(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Summary())
}

func (s *Server) transferEnabled(c *gin.Context) {
	user, ok := paramID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": s.ledger.TransferEnabled(user)})
}

func (s *Server) setTransferEnabled(c *gin.Context) {
	user, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := s.ledger.SetTransferEnabled(c.Request.Context(), user, req.Enabled); err != nil {
		s.fail(c, "set_transfer_enabled", err)
		return
	}

	slog.Info("Transfer flag updated", "user", user, "enabled", req.Enabled)
	ledgerOps.WithLabelValues("set_transfer_enabled", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled})
}

func (s *Server) logChannel(c *gin.Context) {
	guild, ok := paramID(c)
	if !ok {
		return
	}

	channel, found := s.ledger.LogChannel(guild)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no log channel configured for this guild"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": models.FormatID(channel)})
}

func (s *Server) setLogChannel(c *gin.Context) {
	guild, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Channel int64 `json:"channel,string"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := s.ledger.SetLogChannel(c.Request.Context(), guild, req.Channel); err != nil {
		s.fail(c, "set_log_channel", err)
		return
	}

	slog.Info("Log channel updated", "guild", guild, "channel", req.Channel)
	ledgerOps.WithLabelValues("set_log_channel", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"channel": models.FormatID(req.Channel)})
}

// fail maps a ledger error to an HTTP status and a short specific message.
// Validation failures and store failures are kept distinguishable so callers
// can decide whether a retry makes sense.
func (s *Server) fail(c *gin.Context, op string, err error) {
	var insufficient *ledger.InsufficientDebtError
	var storeErr *ledger.StoreIOError

	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfReference):
		ledgerOps.WithLabelValues(op, "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNoSuchDebt):
		ledgerOps.WithLabelValues(op, "not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrTransferDisabled):
		ledgerOps.WithLabelValues(op, "forbidden").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		ledgerOps.WithLabelValues(op, "insufficient").Inc()
		c.JSON(http.StatusConflict, gin.H{
			"error":   insufficient.Error(),
			"balance": insufficient.Balance,
		})
	case errors.As(err, &storeErr):
		ledgerOps.WithLabelValues(op, "store_error").Inc()
		slog.Error("Ledger persistence failed", "op", op, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "ledger could not be saved, state unchanged",
			"retryable": true,
		})
	default:
		ledgerOps.WithLabelValues(op, "error").Inc()
		slog.Error("Ledger operation failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := models.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a decimal ID"})
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := models.ParseID(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a decimal ID"})
		return 0, false
	}
	return id, true
}
