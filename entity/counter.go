package entity

// Counter is the single capacity-bounded ticket sequence.
// Current only grows through the atomic claim and goes back to zero on reset.
type Counter struct {
	Key     string `json:"key" bson:"_id"`
	Current int    `json:"current" bson:"current"`
	Total   int    `json:"total" bson:"total"`
}

func (c *Counter) Left() int {
	left := c.Total - c.Current
	if left < 0 {
		return 0
	}
	return left
}

func (c *Counter) SoldOut() bool {
	return c.Current >= c.Total
}
