package models

import "time"

const InviteCodeLength = 6

// Couple is pending until User2ID is set by a successful join.
type Couple struct {
	ID          uint   `gorm:"primaryKey"`
	User1ID     uint   `gorm:"not null;index"`
	User2ID     *uint  `gorm:"index"`
	InviteCode  string `gorm:"size:6;uniqueIndex;not null"`
	ConnectedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

// CoupleMember has one row per paired user. Its primary key is what keeps a
// user in at most one couple.
type CoupleMember struct {
	UserID   uint      `gorm:"primaryKey;autoIncrement:false"`
	CoupleID uint      `gorm:"not null;index"`
	JoinedAt time.Time `gorm:"not null"`
}

func (couple Couple) IsPaired() bool {
	return couple.User2ID != nil && *couple.User2ID != 0
}

func (couple Couple) PartnerOf(userID uint) (uint, bool) {
	if !couple.IsPaired() {
		return 0, false
	}
	switch userID {
	case couple.User1ID:
		return *couple.User2ID, true
	case *couple.User2ID:
		return couple.User1ID, true
	default:
		return 0, false
	}
}
