package level

type Level struct {
	LevelNumber int    `json:"level_number" db:"level_number"`
	Title       string `json:"title" db:"title"`
	MinPoints   int    `json:"min_points" db:"min_points"`
	Color       string `json:"color" db:"color"`
}

type Progress struct {
	CurrentLevel Level  `json:"current_level"`
	NextLevel    *Level `json:"next_level"`
	Progress     int    `json:"progress"`
	PointsToNext int    `json:"points_to_next"`
	TotalPoints  int    `json:"total_points"`
}
