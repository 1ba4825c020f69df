package specification

import "gorm.io/gorm"

// BySourceName filters documents by their logical source name
type BySourceName struct {
	SourceName string
}

func (s BySourceName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_name = ?", s.SourceName)
}

// ByFormat filters documents by ingested format tag
type ByFormat struct {
	Format string
}

func (s ByFormat) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("format = ?", s.Format)
}
