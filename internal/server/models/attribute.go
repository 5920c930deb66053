package models

// Attribute is an owned name record. Tags and ingredients share this shape.
type Attribute struct {
	ID     int64
	UserID int64
	Name   string
}

// AttributeFilter narrows attribute listings.
type AttributeFilter struct {
	// AssignedOnly keeps attributes linked to at least one of the owner's recipes.
	AssignedOnly bool
}
