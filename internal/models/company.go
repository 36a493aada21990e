package models

import "time"

type Company struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	CorpCode         string    `gorm:"uniqueIndex;size:8" json:"corp_code"`
	CorpName         string    `gorm:"index" json:"corp_name"`
	CorpEngName      string    `json:"corp_eng_name"`
	StockCode        string    `json:"stock_code"`
	LastModifiedDate time.Time `json:"last_modified_date"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}
