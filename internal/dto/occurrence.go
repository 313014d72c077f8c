package dto

// WeeklyOccurrenceQuery selects the week starting at WeekStart.
type WeeklyOccurrenceQuery struct {
	WeekStart    string `form:"weekStart" binding:"required"`
	DepartmentID string `form:"departmentId"`
	ClassID      string `form:"classId"`
	TeacherID    string `form:"teacherId"`
	RoomID       string `form:"roomId"`
	Format       string `form:"format"`
}

// AvailableRoomsQuery searches rooms free on one date and slot.
type AvailableRoomsQuery struct {
	Date        string `form:"date" binding:"required"`
	TimeSlotID  string `form:"timeSlotId" binding:"required"`
	MinCapacity int    `form:"minCapacity"`
	ClassID     string `form:"classId"`
	ClassTypeID string `form:"classTypeId"`
	RoomType    string `form:"roomType"`
	Building    string `form:"building"`
}

// RoomQuery filters the room catalog.
type RoomQuery struct {
	RoomType     string `form:"roomType"`
	Building     string `form:"building"`
	Status       string `form:"status"`
	DepartmentID string `form:"departmentId"`
	MinCapacity  int    `form:"minCapacity"`
}
