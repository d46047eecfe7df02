package entity

import "time"

type JobStatus string

const (
	JobStatusApplied   JobStatus = "Applied"
	JobStatusInterview JobStatus = "Interview"
	JobStatusRejected  JobStatus = "Rejected"
	JobStatusOffer     JobStatus = "Offer"
)

// JobStatuses lists the statuses in pipeline order.
var JobStatuses = []JobStatus{JobStatusApplied, JobStatusInterview, JobStatusRejected, JobStatusOffer}

func (s JobStatus) Valid() bool {
	for _, v := range JobStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const DefaultJobSource = "LinkedIn"

// Job is a single tracked application owned by a user.
// ResumeKey and JDKey reference objects in the attachment store.
type Job struct {
	ID        string
	UserID    string
	Company   string
	Position  string
	Status    JobStatus
	Source    string
	Deadline  *time.Time
	Notes     string
	ResumeKey string
	JDKey     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
