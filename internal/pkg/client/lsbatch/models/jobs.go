package models

// LSF job states as reported by bjobs.
const (
	StatePend  = "PEND"
	StateRun   = "RUN"
	StateDone  = "DONE"
	StateExit  = "EXIT"
	StatePsusp = "PSUSP"
	StateUsusp = "USUSP"
	StateSsusp = "SSUSP"
)

type Jobs []Job

// Job is one row of bjobs output.
type Job struct {
	JobID      string `json:"jobid"`
	State      string `json:"state"`
	User       string `json:"user"`
	Queue      string `json:"queue"`
	Name       string `json:"name"`
	SubmitTime string `json:"submit_time"`
	ExecHost   string `json:"exec_host"`
}

type Queues []Queue

// Queue is one row of bqueues output.
type Queue struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Status   string `json:"status"`
	NJobs    int    `json:"njobs"`
	Pend     int    `json:"pend"`
	Run      int    `json:"run"`
}
