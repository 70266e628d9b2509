package model

// Roles recognized by the service.  The role travels in the JWT "role"
// claim and is passed explicitly into every core call; the engine never
// reads an ambient current user.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)
