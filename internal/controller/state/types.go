package state

// UserState текущий шаг диалога пользователя
type UserState string

const (
	StateNone UserState = "" // Нет активного диалога

	// Шаги создания поста
	StateNewPostTitle       UserState = "new_post_title"
	StateNewPostDescription UserState = "new_post_description"
	StateNewPostSubject     UserState = "new_post_subject"
	StateNewPostLocation    UserState = "new_post_location"
	StateNewPostGrade       UserState = "new_post_grade"
	StateNewPostSchedules   UserState = "new_post_schedules"
	StateNewPostPeriod      UserState = "new_post_period"
	StateNewPostCapacity    UserState = "new_post_capacity"
)

// UserData хранит шаг диалога и черновые данные
type UserData struct {
	State UserState
	Data  map[string]any
}
