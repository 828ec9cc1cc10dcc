package models

// Participant is a member of the shared expense group. Credit is a
// pre-existing balance adjustment: positive credit reduces what the
// participant is owed (or owes) at settlement time.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Credit float64 `json:"credit"`
}

// GroupExpense is a shared expense paid by one participant and split evenly
// across ParticipantsIDs.
type GroupExpense struct {
	ID              string   `json:"id"`
	Description     string   `json:"description"`
	Amount          float64  `json:"amount"`
	PaidByID        string   `json:"paidById"`
	ParticipantsIDs []string `json:"participantsIds"`
}

// ParticipantBalance is the per-participant reconciliation view.
type ParticipantBalance struct {
	Name    string  `json:"name"`
	Paid    float64 `json:"paid"`
	Credit  float64 `json:"credit"`
	Owed    float64 `json:"owed"`
	Balance float64 `json:"balance"`
}

// Transfer is a single cash movement in the settlement plan.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// CreditSettlement records a participant whose shortfall was covered by
// their own credit instead of a cash transfer.
type CreditSettlement struct {
	Name string `json:"name"`
}

// SettlementResult is the full output of the settlement computation.
type SettlementResult struct {
	Transfers         []Transfer         `json:"transfers"`
	CreditSettlements []CreditSettlement `json:"creditSettlements"`
}
