package models

// ContractCombo is one (calls sold, puts sold) pair under evaluation.
type ContractCombo struct {
	Calls int
	Puts  int
}

// CellStats are the three reductions computed for a single
// (combo, call strike, put strike) cell.
type CellStats struct {
	PercentInMoney float64 // weighted share of samples with positive payoff, in [0,100]
	AvgReturn      float64 // weighted mean payoff per contract
	RiskMoney      float64 // weighted mean payoff over non-positive samples, <= 0
}

// PayoffCube holds the simulator output for one (data date, expiry) pair:
// a page per contract combo, each page an SxS grid over
// (call strike index, put strike index). Backing storage is flat so pages
// can be filled independently without per-cell allocation.
type PayoffCube struct {
	Combos  []ContractCombo
	Strikes int

	cells []CellStats
}

// NewPayoffCube allocates a zeroed cube for the given combo enumeration and
// strike count.
func NewPayoffCube(combos []ContractCombo, strikes int) *PayoffCube {
	return &PayoffCube{
		Combos:  combos,
		Strikes: strikes,
		cells:   make([]CellStats, len(combos)*strikes*strikes),
	}
}

func (c *PayoffCube) idx(page, call, put int) int {
	return (page*c.Strikes+call)*c.Strikes + put
}

// At returns the stats for a (combo page, call strike, put strike) cell.
func (c *PayoffCube) At(page, call, put int) CellStats {
	return c.cells[c.idx(page, call, put)]
}

// Set stores the stats for a cell.
func (c *PayoffCube) Set(page, call, put int, s CellStats) {
	c.cells[c.idx(page, call, put)] = s
}
