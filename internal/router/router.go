// Package router decides where in the vault a classified post lands.
package router

import (
	"github.com/amarchal/shotbox/internal/domain"
	"github.com/amarchal/shotbox/internal/vault"
)

// Router applies the confidence-gated destination table.
type Router struct {
	threshold float64
}

// New creates a Router with the given confidence threshold.
func New(threshold float64) *Router {
	return &Router{threshold: threshold}
}

// Route picks the destination. Low confidence wins over category: anything
// below the threshold goes to review regardless of its category.
func (r *Router) Route(post *domain.Post) vault.Destination {
	if post.Confidence < r.threshold {
		return vault.DestReview
	}
	if post.Category == domain.CategoryResource {
		return vault.DestResources
	}
	return vault.DestProjects
}
