package model

import "time"

type Submissions []Submission

// Submission is one recorded bsub submission in submission_table. It
// captures the descriptor as submitted plus the identifiers and state
// the scheduler assigned afterwards.
type Submission struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	JobID      string    `gorm:"column:job_id;index" json:"job_id"`
	Name       string    `gorm:"column:name" json:"name"`
	Project    string    `gorm:"column:project" json:"project"`
	Queue      string    `gorm:"column:queue" json:"queue"`
	OutputPath string    `gorm:"column:output_path" json:"output_path"`
	WallClock  string    `gorm:"column:wall_clock" json:"wall_clock"`
	MemoryMB   int       `gorm:"column:memory_mb" json:"memory_mb"`
	WorkDir    string    `gorm:"column:work_dir" json:"work_dir"`
	CondaEnv   string    `gorm:"column:conda_env" json:"conda_env"`
	Command    string    `gorm:"column:command" json:"command"`
	User       string    `gorm:"column:user" json:"user"`
	Mail       string    `gorm:"column:mail" json:"mail"`
	State      string    `gorm:"column:state;index" json:"state"`
	Script     string    `gorm:"column:script;type:text" json:"script,omitempty"`
	SubmitTime time.Time `gorm:"column:submit_time" json:"submit_time"`
	UpdateTime time.Time `gorm:"column:update_time" json:"update_time"`
}

func (Submission) TableName() string { return "submission_table" }

// Terminal reports whether the recorded state is final and no longer
// needs refreshing from the scheduler.
func (s Submission) Terminal() bool {
	switch s.State {
	case "DONE", "EXIT", "ZOMBI":
		return true
	}
	return false
}
