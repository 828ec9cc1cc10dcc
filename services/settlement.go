package services

import (
	"financeiro/backend/models"
)

// SettlementEpsilon is the cent-level tolerance below which a remaining
// balance counts as settled.
const SettlementEpsilon = 0.01

// ComputeBalances reconciles the group: for every participant, how much
// they paid, their share of every expense involving them (equal split), and
// the resulting balance including pre-existing credit. Expenses referencing
// unknown participant ids or an empty participant list contribute nothing.
func ComputeBalances(participants []models.Participant, expenses []models.GroupExpense) map[string]models.ParticipantBalance {
	balances := make(map[string]models.ParticipantBalance, len(participants))
	known := make(map[string]bool, len(participants))
	paid := make(map[string]float64)
	owed := make(map[string]float64)

	for _, p := range participants {
		known[p.ID] = true
	}

	for _, exp := range expenses {
		if len(exp.ParticipantsIDs) == 0 {
			continue
		}
		if known[exp.PaidByID] {
			paid[exp.PaidByID] += exp.Amount
		}
		share := exp.Amount / float64(len(exp.ParticipantsIDs))
		for _, id := range exp.ParticipantsIDs {
			if known[id] {
				owed[id] += share
			}
		}
	}

	for _, p := range participants {
		balances[p.ID] = models.ParticipantBalance{
			Name:    p.Name,
			Paid:    paid[p.ID],
			Credit:  p.Credit,
			Owed:    owed[p.ID],
			Balance: paid[p.ID] + p.Credit - owed[p.ID],
		}
	}

	return balances
}

type cashPosition struct {
	name   string
	amount float64
}

// ComputeSettlement turns the group's balances into a settlement plan: a
// minimal list of pairwise transfers that zero out every cash imbalance,
// plus the participants whose shortfall was absorbed by their own credit.
//
// Credit is not a cash movement. A participant whose owed exceeds paid but
// whose credit covers the difference is reported as settled via credit and
// never enters the debtor pool. The greedy matcher walks debtors and
// creditors in the order of the participants slice, so results are
// deterministic for a given input ordering; it terminates in at most
// len(participants)-1 transfers.
func ComputeSettlement(participants []models.Participant, expenses []models.GroupExpense) models.SettlementResult {
	result := models.SettlementResult{
		Transfers:         []models.Transfer{},
		CreditSettlements: []models.CreditSettlement{},
	}
	if len(participants) == 0 || len(expenses) == 0 {
		return result
	}

	balances := ComputeBalances(participants, expenses)

	var debtors, creditors []cashPosition
	for _, p := range participants {
		b := balances[p.ID]
		cashFlow := b.Paid - b.Owed
		switch {
		case cashFlow < -SettlementEpsilon:
			// A shortfall covered by the participant's own credit is a
			// credit settlement, not a cash debt.
			if b.Balance >= -SettlementEpsilon {
				result.CreditSettlements = append(result.CreditSettlements, models.CreditSettlement{Name: p.Name})
				continue
			}
			debtors = append(debtors, cashPosition{name: p.Name, amount: -cashFlow})
		case cashFlow > SettlementEpsilon:
			creditors = append(creditors, cashPosition{name: p.Name, amount: cashFlow})
		}
	}

	for len(debtors) > 0 && len(creditors) > 0 {
		debtor := &debtors[0]
		creditor := &creditors[0]

		amount := debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		result.Transfers = append(result.Transfers, models.Transfer{
			From:   debtor.name,
			To:     creditor.name,
			Amount: amount,
		})

		debtor.amount -= amount
		creditor.amount -= amount

		if debtor.amount < SettlementEpsilon {
			debtors = debtors[1:]
		}
		if creditor.amount < SettlementEpsilon {
			creditors = creditors[1:]
		}
	}

	return result
}
