package domain

// Alias redirects mail for Address to the mailbox Goto.
// (Address, Goto) pairs are unique; Domain is copied from Goto's domain.
type Alias struct {
	Address string `json:"address" gorm:"column:address;primaryKey;type:varchar(255)"`
	Goto    string `json:"goto" gorm:"column:goto;primaryKey;type:varchar(255)"`
	Domain  string `json:"domain" gorm:"column:domain;type:varchar(255);index"`
}

// TableName maps Alias onto the iRedMail `alias` table.
func (Alias) TableName() string { return "alias" }

// IsSelf reports whether the alias is the mailbox's own self-referential entry.
func (a *Alias) IsSelf() bool {
	return a.Address == a.Goto
}
