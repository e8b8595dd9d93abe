// Package campaign defines the seller, campaign, and form values exchanged
// with the campaign backend.
package campaign

import (
	"math"
	"strings"
)

// MinBid is the smallest bid price the backend accepts per keyword click.
const MinBid = 1.00

// MinAmount is the exclusive lower bound for add-funds amounts.
const MinAmount = 0.01

// Profile is the signed-in seller as returned by /sellers/me.
type Profile struct {
	ID        int64    `json:"id,omitempty"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	Balance   float64  `json:"balance"`
	Campaigns []string `json:"campaigns,omitempty"`
}

// Campaign is a server-confirmed campaign. Radius is a pointer because
// not every backend response carries it.
type Campaign struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Keywords   []string `json:"keywordsNames"`
	Price      float64  `json:"price"`
	Fund       float64  `json:"fund"`
	Status     bool     `json:"status"`
	City       string   `json:"city"`
	Radius     *float64 `json:"radius,omitempty"`
	SellerName string   `json:"sellerName,omitempty"`
}

// City is one entry of the backend's city dictionary.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Registration is the body of POST /home/register.
type Registration struct {
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Balance  float64 `json:"balance" validate:"gte=0"`
}

// Draft is the editable value behind the create and edit forms.
type Draft struct {
	Name     string   `json:"name" validate:"required"`
	Keywords []string `json:"keywordsNames" validate:"min=1,dive,required"`
	BidPrice float64  `json:"price" validate:"minbid"`
	Fund     float64  `json:"fund" validate:"gt=0"`
	Active   bool     `json:"status"`
	City     string   `json:"city" validate:"required"`
	Radius   *int     `json:"radius" validate:"omitempty,min=1"`
}

// Payload is the wire body for create and edit requests.
type Payload struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywordsNames"`
	Price    float64  `json:"price"`
	Fund     float64  `json:"fund"`
	Status   bool     `json:"status"`
	City     string   `json:"city"`
	Radius   *int     `json:"radius,omitempty"`
}

// Payload converts the draft to its submission body. Keywords are copied
// so later edits to the draft do not alias the request.
func (d Draft) Payload() Payload {
	p := Payload{
		Name:     strings.TrimSpace(d.Name),
		Keywords: append([]string{}, d.Keywords...),
		Price:    d.BidPrice,
		Fund:     d.Fund,
		Status:   d.Active,
		City:     strings.TrimSpace(d.City),
	}
	if d.Radius != nil {
		r := *d.Radius
		p.Radius = &r
	}
	return p
}

// DraftFrom seeds an edit form from a confirmed campaign.
func DraftFrom(c Campaign) Draft {
	d := Draft{
		Name:     c.Name,
		Keywords: append([]string{}, c.Keywords...),
		BidPrice: c.Price,
		Fund:     c.Fund,
		Active:   c.Status,
		City:     c.City,
	}
	if c.Radius != nil {
		r := int(math.Round(*c.Radius))
		d.Radius = &r
	}
	return d
}

// RadiusLabel renders the campaign radius, or "n/a" when the backend
// did not send one.
func (c Campaign) RadiusLabel() string {
	if c.Radius == nil {
		return "n/a"
	}
	return formatRadius(*c.Radius)
}
