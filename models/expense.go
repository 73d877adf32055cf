package models

// Expense holds one month of categorized spending totals for a user. These
// rows feed the prediction feature vectors; Month uses the "Jan-2006" form.
type Expense struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index;not null"`
	Month         string `gorm:"size:16;not null"`
	Rent          float64
	LoanRepayment float64
	Insurance     float64
	Groceries     float64
	Transport     float64
	EatingOut     float64
	Entertainment float64
	Utilities     float64
	Healthcare    float64
	Education     float64
	Miscellaneous float64
	TotalExpense  float64
}

// CategoryValues returns the per-category amounts in the fixed order the
// pre-trained models were fitted with.
func (e Expense) CategoryValues() []float64 {
	return []float64{
		e.Rent, e.LoanRepayment, e.Insurance, e.Groceries, e.Transport,
		e.EatingOut, e.Entertainment, e.Utilities, e.Healthcare,
		e.Education, e.Miscellaneous,
	}
}
