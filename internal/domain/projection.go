package domain

// SalesProjection is the financial estimate of an event. TotalRevenue,
// TotalCosts and ProjectedProfit are derived from the other fields and are
// rewritten by Recompute.
type SalesProjection struct {
	EstimatedTickets   int     `json:"estimatedTickets" bson:"estimatedTickets"`
	AverageTicketPrice float64 `json:"averageTicketPrice" bson:"averageTicketPrice"`
	Costs              Costs   `json:"costs" bson:"costs"`
	TotalRevenue       float64 `json:"totalRevenue" bson:"totalRevenue"`
	TotalCosts         float64 `json:"totalCosts" bson:"totalCosts"`
	ProjectedProfit    float64 `json:"projectedProfit" bson:"projectedProfit"`
}

// Costs are the projected cost categories
type Costs struct {
	Ticketing     float64 `json:"ticketing" bson:"ticketing"`
	Accommodation float64 `json:"accommodation" bson:"accommodation"`
	Fuel          float64 `json:"fuel" bson:"fuel"`
	AccessControl float64 `json:"accessControl" bson:"accessControl"`
}

// Total sums every cost category
func (c Costs) Total() float64 {
	return c.Ticketing + c.Accommodation + c.Fuel + c.AccessControl
}

// Add returns the category-wise sum of c and o
func (c Costs) Add(o Costs) Costs {
	return Costs{
		Ticketing:     c.Ticketing + o.Ticketing,
		Accommodation: c.Accommodation + o.Accommodation,
		Fuel:          c.Fuel + o.Fuel,
		AccessControl: c.AccessControl + o.AccessControl,
	}
}

// Recompute rewrites the derived totals from tickets, price and costs
func (p *SalesProjection) Recompute() {
	p.TotalRevenue = float64(p.EstimatedTickets) * p.AverageTicketPrice
	p.TotalCosts = p.Costs.Total()
	p.ProjectedProfit = p.TotalRevenue - p.TotalCosts
}
