package specification

import "gorm.io/gorm"

// PageSearchQuery matches the title or the flattened page text, case-insensitive
type PageSearchQuery struct {
	Query string
}

func (s PageSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR plain_text ILIKE ?", pattern, pattern)
}

type ByPageTitle struct {
	Title string
}

func (s ByPageTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title ILIKE ?", "%"+s.Title+"%")
}

// BySlugPrefix backs the /slug: search filter
type BySlugPrefix struct {
	Prefix string
}

func (s BySlugPrefix) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug LIKE ?", s.Prefix+"%")
}
