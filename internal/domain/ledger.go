package domain

import "time"

// LedgerDay es el consolidado diario de un extracto debe/haber.
// NetFlow = haber - debe; Accumulated es la suma corrida en orden
// cronológico.
type LedgerDay struct {
	Date        time.Time `json:"date"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
	NetFlow     float64   `json:"net_flow"`
	Accumulated float64   `json:"accumulated"`
}
