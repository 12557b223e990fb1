package domain

// Domain is a hosted mail domain. Rows live in the externally owned `domain` table.
type Domain struct {
	Name        string `json:"domain" gorm:"column:domain;primaryKey;type:varchar(255)"`
	Description string `json:"description" gorm:"column:description;type:text"`
}

// TableName maps Domain onto the iRedMail `domain` table.
func (Domain) TableName() string { return "domain" }
