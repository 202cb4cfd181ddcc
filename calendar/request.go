package calendar

import "github.com/cockroachdb/errors"

var ErrNegativeDuration = errors.New("negative meeting duration")

// MeetingRequest describes the meeting we are looking for time for. Required attendees must all
// be free. Optional attendees are honoured only when doing so leaves at least one slot.
type MeetingRequest struct {
	Duration int       `json:"duration" yaml:"duration"`
	Required Attendees `json:"required" yaml:"required"`
	Optional Attendees `json:"optional" yaml:"optional"`
}

func NewMeetingRequest(duration int, required, optional []string) (MeetingRequest, error) {
	if duration < 0 {
		return MeetingRequest{}, errors.Wrapf(ErrNegativeDuration, "duration %d", duration)
	}
	return MeetingRequest{
		Duration: duration,
		Required: NewAttendees(required...),
		Optional: NewAttendees(optional...),
	}, nil
}
