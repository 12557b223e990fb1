package domain

// UsedQuota is the storage accounting row maintained by the mail server for a mailbox.
type UsedQuota struct {
	Address  string `json:"username" gorm:"column:username;primaryKey;type:varchar(255)"`
	Domain   string `json:"domain" gorm:"column:domain;type:varchar(255);index"`
	Bytes    int64  `json:"bytes" gorm:"column:bytes"`
	Messages int64  `json:"messages" gorm:"column:messages"`
}

// TableName maps UsedQuota onto the `used_quota` table.
func (UsedQuota) TableName() string { return "used_quota" }

// QuotaTotals aggregates UsedQuota rows, e.g. across a domain.
type QuotaTotals struct {
	Bytes    int64 `json:"bytes"`
	Messages int64 `json:"messages"`
}
