package models

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeBetWin      TransactionType = "bet_win"
	TransactionTypeBetLoss     TransactionType = "bet_loss"
	TransactionTypeBonus       TransactionType = "bonus"
	TransactionTypeAdminAdjust TransactionType = "admin_adjust"
)
