package models

// Card is a named credit card holding its own expense list.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CardExpense is a single credit card charge. Type selects the monthly
// ledger bucket its mirror lands in. Installments of one purchase share an
// InstallmentID and carry a " (k/n)" suffix on the description.
type CardExpense struct {
	ID                string  `json:"id"`
	CardID            string  `json:"cardId"`
	Date              string  `json:"date"` // YYYY-MM-DD
	Description       string  `json:"description"`
	Value             float64 `json:"value"`
	Category          string  `json:"category"`
	Type              string  `json:"type"`
	IsInstallment     bool    `json:"isInstallment,omitempty"`
	InstallmentID     string  `json:"installmentId,omitempty"`
	TotalInstallments int     `json:"totalInstallments,omitempty"`
}

// InstallmentPurchase describes a purchase to be expanded into monthly
// installments. Value is the per-installment amount, not the purchase total.
type InstallmentPurchase struct {
	CardID             string  `json:"cardId"`
	Description        string  `json:"description"`
	Value              float64 `json:"value"`
	StartDate          string  `json:"startDate"` // YYYY-MM-DD
	CurrentInstallment int     `json:"currentInstallment"`
	TotalInstallments  int     `json:"totalInstallments"`
	Category           string  `json:"category"`
	Type               string  `json:"type"`
}
