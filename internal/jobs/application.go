package jobs

import "fmt"

// ApplicationStatus tracks a candidate's progress on one job.
//
//	applied ──► interviewing ──► offer ──► hired
//	   │             │             │
//	   └─────────────┴─────────────┴──► rejected
type ApplicationStatus string

const (
	ApplicationApplied      ApplicationStatus = "applied"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationOffer        ApplicationStatus = "offer"
	ApplicationHired        ApplicationStatus = "hired"
	ApplicationRejected     ApplicationStatus = "rejected"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationApplied:      {ApplicationInterviewing, ApplicationRejected},
	ApplicationInterviewing: {ApplicationOffer, ApplicationRejected},
	ApplicationOffer:        {ApplicationHired, ApplicationRejected},
}

// ParseApplicationStatus rejects unknown values.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationApplied, ApplicationInterviewing, ApplicationOffer, ApplicationHired, ApplicationRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// CanMoveApplication reports whether from -> to is allowed. hired and
// rejected are terminal.
func CanMoveApplication(from, to ApplicationStatus) bool {
	for _, s := range applicationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
