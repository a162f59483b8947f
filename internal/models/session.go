package models

// LedgerEntry records one round's payout: the loser owes the winner the
// difference between their rolls.
type LedgerEntry struct {
	Debtor   string
	Creditor string
	Amount   int64
}

// RoundResult summarizes one resolved round.
type RoundResult struct {
	Stake      int64
	Winner     string
	WinnerRoll int64
	Loser      string
	LoserRoll  int64
}
