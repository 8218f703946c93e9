package model

// EntityCluster groups surface-form mentions that resolve to one canonical
// entity. Variants are append-only: new mentions may be added, none removed.
type EntityCluster struct {
	ID         string   `json:"id"`                 // Cluster identifier (UUID)
	Canonical  string   `json:"canonical"`          // Canonical name
	Variants   []string `json:"variants"`           // Observed surface forms
	Confidence float64  `json:"confidence"`         // Resolution confidence (0-1)
	NeedsReview bool    `json:"needs_review,omitempty"` // Human disambiguation required
}

// HasVariant reports whether the cluster already contains the surface form
func (c *EntityCluster) HasVariant(mention string) bool {
	for _, v := range c.Variants {
		if v == mention {
			return true
		}
	}
	return false
}

// AddVariant appends a surface form if not already present
func (c *EntityCluster) AddVariant(mention string) {
	if !c.HasVariant(mention) {
		c.Variants = append(c.Variants, mention)
	}
}
