package statuses

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)
