package models

// Session is a persisted web session used by the database session backend.
type Session struct {
	// ID is the session id handed out in the session cookie.
	ID string `gorm:"primaryKey;size:64"`
	// Value is the encoded session payload.
	Value []byte
	// ExpiresAt is the unix expiry time in seconds, 0 means no expiry.
	ExpiresAt int64 `gorm:"index;not null;default:0"`
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
