package models

// Account is one row of the staff account table.
type Account struct {
	Account  string `json:"account"`
	Password string `json:"-"`
	RoleRaw  string `json:"role"`
	Name     string `json:"name"`
	Scope    string `json:"scope"`
}
