package models

// DailyStats stores the visitor count for one UTC calendar day.
type DailyStats struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	// Date is kept as YYYY-MM-DD text; drivers rewrite native date columns into timestamps.
	Date       string `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	Visitors   int64  `gorm:"not null;default:0" json:"visitors"`
	BuildingID *uint  `gorm:"index" json:"building"`
}

// TableName keeps the plural table name stable across naming strategies.
func (DailyStats) TableName() string {
	return "daily_stats"
}
