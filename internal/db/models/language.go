package models

// Language is a user interface language a user can pick.
type Language struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;size:10;not null"`
	Name string `gorm:"size:100;not null"`
}

// TableName specifies the database table name for the Language model.
func (Language) TableName() string {
	return "languages"
}
