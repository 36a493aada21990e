package models

import "time"

// RawReport caches a fnlttSinglAcnt.json body per company, year and report.
type RawReport struct {
	ID        uint   `gorm:"primaryKey"`
	CorpCode  string `gorm:"uniqueIndex:idx_raw_report_key;size:8"`
	BsnsYear  string `gorm:"uniqueIndex:idx_raw_report_key;size:4"`
	ReprtCode string `gorm:"uniqueIndex:idx_raw_report_key;size:5"`
	BlobData  []byte
	BlobSize  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
