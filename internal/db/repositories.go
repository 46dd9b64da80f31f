package db

import "gorm.io/gorm"

type Repositories struct {
	Users         *UserRepository
	Couples       *CoupleRepository
	Questions     *QuestionRepository
	Assignments   *AssignmentRepository
	Answers       *AnswerRepository
	Notifications *NotificationRepository
	Moods         *MoodRepository
	Memories      *MemoryRepository
	DDays         *DDayRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(database),
		Couples:       NewCoupleRepository(database),
		Questions:     NewQuestionRepository(database),
		Assignments:   NewAssignmentRepository(database),
		Answers:       NewAnswerRepository(database),
		Notifications: NewNotificationRepository(database),
		Moods:         NewMoodRepository(database),
		Memories:      NewMemoryRepository(database),
		DDays:         NewDDayRepository(database),
	}
}
