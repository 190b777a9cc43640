package api

// Course is a course offered by the service.
type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Lesson is a unit of material within a course.
type Lesson struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// PointsSummary aggregates the points earned in a course.
type PointsSummary struct {
	CourseID  int64   `json:"course_id"`
	Earned    float64 `json:"earned"`
	Available float64 `json:"available"`
}
