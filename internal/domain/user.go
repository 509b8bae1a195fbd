package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
	RoleOwner = "OWNER"
)

type User struct {
	ID       string  `db:"id"`
	Phone    string  `db:"phone"`
	Name     string  `db:"name"`
	Hash     string  `db:"password_hash"`
	Role     string  `db:"role"`
	Address  string  `db:"address"`
	PostCode string  `db:"post_code"`
	TotalBuy float64 `db:"total_buy"`
}

// Staff reports whether the user may perform privileged operations.
func (u *User) Staff() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleOwner)
}
