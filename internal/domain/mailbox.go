package domain

import (
	"path"
	"time"
)

// Mailbox is a virtual mail user backed by a maildir on a storage node.
// Every mailbox owns a self-referential alias (Address -> Address).
type Mailbox struct {
	Address             string    `json:"username" gorm:"column:username;primaryKey;type:varchar(255)"`
	PasswordHash        string    `json:"-" gorm:"column:password;type:varchar(255)"`
	DisplayName         string    `json:"name" gorm:"column:name;type:varchar(255)"`
	LocalPart           string    `json:"localPart" gorm:"column:local_part;type:varchar(255)"`
	Domain              string    `json:"domain" gorm:"column:domain;type:varchar(255);index"`
	Maildir             string    `json:"maildir" gorm:"column:maildir;type:varchar(255)"`
	QuotaMB             int64     `json:"quota" gorm:"column:quota"` // 0 means unlimited
	Language            string    `json:"language" gorm:"column:language;type:varchar(5)"`
	StorageBaseDir      string    `json:"storageBaseDirectory" gorm:"column:storagebasedirectory;type:varchar(255)"`
	StorageNode         string    `json:"storageNode" gorm:"column:storagenode;type:varchar(255)"`
	Active              bool      `json:"active" gorm:"column:active"`
	CreatedAt           time.Time `json:"created" gorm:"column:created"`
	ModifiedAt          time.Time `json:"modified" gorm:"column:modified"`
	PasswordLastChanged time.Time `json:"passwordLastChanged" gorm:"column:passwordlastchanged"`
}

// TableName maps Mailbox onto the iRedMail `mailbox` table.
func (Mailbox) TableName() string { return "mailbox" }

// FullMaildir returns the on-disk maildir location,
// <storagebasedirectory>/<storagenode>/<maildir>/.
func (m *Mailbox) FullMaildir() string {
	return path.Join(m.StorageBaseDir, m.StorageNode, m.Maildir) + "/"
}
