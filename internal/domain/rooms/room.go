package rooms

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoomAvailable   = "available"
	RoomReserved    = "reserved"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
)

type Room struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RoomNumber  string         `gorm:"column:room_number;uniqueIndex;not null" json:"room_number"`
	Building    string         `gorm:"column:building" json:"building"`
	Floor       int            `gorm:"column:floor" json:"floor"`
	RoomType    string         `gorm:"column:room_type" json:"room_type"`
	Price       float64        `gorm:"column:price;not null" json:"price"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Amenities   datatypes.JSON `gorm:"column:amenities" json:"amenities,omitempty"`
	Promotion   string         `gorm:"column:promotion" json:"promotion,omitempty"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Room) TableName() string { return "room" }
