package domain

// JobType 是只读的参照数据，ID 越小排班优先级越高
type JobType struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
