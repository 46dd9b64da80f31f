package models

// AnswerQuery narrows a user's answer history. Zero values disable a filter.
type AnswerQuery struct {
	Category string
	FromDay  string
	ToDay    string
	Limit    int
	Offset   int
}

type NotificationQuery struct {
	Type        string
	IncludeRead bool
	Limit       int
	Offset      int
}
