package mlservice

// The ML service speaks snake_case JSON. These types mirror its restock
// strategy contract verbatim; the application layer maps them onto domain
// data.

// Goal is the optimization strategy requested from the service
type Goal string

const (
	GoalProfit   Goal = "profit"
	GoalVolume   Goal = "volume"
	GoalBalanced Goal = "balanced"
)

// IsValid returns true if the goal is one the service accepts
func (g Goal) IsValid() bool {
	switch g {
	case GoalProfit, GoalVolume, GoalBalanced:
		return true
	default:
		return false
	}
}

// ProductInput is one product in a strategy request. Price and cost must be
// strictly positive; the service rejects anything else.
type ProductInput struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Cost          float64 `json:"cost"`
	Stock         int     `json:"stock"`
	Category      string  `json:"category,omitempty"`
	AvgDailySales float64 `json:"avg_daily_sales"`
	ProfitMargin  float64 `json:"profit_margin"`
	MinOrderQty   int     `json:"min_order_qty"`
	MaxOrderQty   *int    `json:"max_order_qty,omitempty"`
}

// StrategyRequest is the POST body for a strategy computation
type StrategyRequest struct {
	ShopID          string         `json:"shop_id"`
	Budget          float64        `json:"budget"`
	Goal            Goal           `json:"goal"`
	Products        []ProductInput `json:"products"`
	RestockDays     int            `json:"restock_days"`
	IsPayday        bool           `json:"is_payday"`
	UpcomingHoliday string         `json:"upcoming_holiday,omitempty"`
}

// StrategyItem is one recommended purchase line
type StrategyItem struct {
	ProductID       string  `json:"product_id"`
	Name            string  `json:"name"`
	Qty             int     `json:"qty"`
	UnitCost        float64 `json:"unit_cost"`
	TotalCost       float64 `json:"total_cost"`
	ExpectedProfit  float64 `json:"expected_profit"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	DaysOfStock     float64 `json:"days_of_stock"`
	PriorityScore   float64 `json:"priority_score"`
	Reasoning       string  `json:"reasoning,omitempty"`
}

// StrategyTotals summarizes the whole recommendation
type StrategyTotals struct {
	TotalItems      int     `json:"total_items"`
	TotalQty        int     `json:"total_qty"`
	TotalCost       float64 `json:"total_cost"`
	BudgetUsedPct   float64 `json:"budget_used_pct"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	ExpectedProfit  float64 `json:"expected_profit"`
	ExpectedROI     float64 `json:"expected_roi"`
	AvgDaysOfStock  float64 `json:"avg_days_of_stock"`
}

// StrategyResponse is the service's full strategy payload. Totals is a
// pointer so an absent totals object is distinguishable from an all-zero one.
type StrategyResponse struct {
	Strategy  Goal            `json:"strategy"`
	ShopID    string          `json:"shop_id"`
	Budget    float64         `json:"budget"`
	Items     []StrategyItem  `json:"items"`
	Totals    *StrategyTotals `json:"totals"`
	Reasoning []string        `json:"reasoning"`
	Warnings  []string        `json:"warnings"`
	Meta      map[string]any  `json:"meta"`
}

// HealthResponse is the service's health check payload
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
