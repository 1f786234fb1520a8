package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

type Outcome struct {
	Status  OutcomeStatus
	Reason  ErrorKind
	Message string
}

func Succeeded() Outcome {
	return Outcome{Status: OutcomeSuccess}
}

func Failed(err error) Outcome {
	if err == nil {
		return Outcome{Status: OutcomeFailure, Reason: KindUnknown}
	}
	return Outcome{Status: OutcomeFailure, Reason: KindOf(err), Message: err.Error()}
}

func (o Outcome) OK() bool {
	return o.Status == OutcomeSuccess
}

func (o Outcome) String() string {
	if o.OK() {
		return string(OutcomeSuccess)
	}
	return fmt.Sprintf("failure(%s)", o.Reason)
}

// Target selects the accounts a broadcast runs against. An empty target means
// every configured account.
type Target struct {
	Accounts []AccountID
	Group    GroupID
}

func (t Target) All() bool {
	return len(t.Accounts) == 0 && t.Group == ""
}

type PostRequest struct {
	CorrelationID string
	Content       string
	Target        Target
}

// ValidatePostContent rejects content the platform would refuse before any
// page is touched.
func ValidatePostContent(content string, maxUnits int) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is empty", ErrInputValidation)
	}
	units := utf8.RuneCountInString(content)
	if maxUnits > 0 && units > maxUnits {
		return fmt.Errorf("%w: content has %d characters, limit is %d", ErrInputValidation, units, maxUnits)
	}
	return nil
}

type PostResult struct {
	CorrelationID string
	AccountID     AccountID
	Outcome       Outcome
	ContentID     string
	ContentURL    string
	Timestamp     time.Time
}

type EngagementRequest struct {
	CorrelationID string
	Term          string
	Cap           int
	Target        Target
}

type EngagementResult struct {
	CorrelationID string
	AccountID     AccountID
	Term          string
	Outcome       Outcome
	Liked         int
	Skipped       int
	Failed        int
	LikedIDs      []string
	Timestamp     time.Time
}

type PostReport struct {
	CorrelationID string
	Results       []PostResult
	Success       bool
}

type EngagementReport struct {
	CorrelationID string
	Results       []EngagementResult
	Success       bool
}

func NewPostReport(correlationID string, results []PostResult) PostReport {
	success := false
	for _, result := range results {
		if result.Outcome.OK() {
			success = true
			break
		}
	}
	return PostReport{CorrelationID: correlationID, Results: results, Success: success}
}

func NewEngagementReport(correlationID string, results []EngagementResult) EngagementReport {
	success := false
	for _, result := range results {
		if result.Outcome.OK() {
			success = true
			break
		}
	}
	return EngagementReport{CorrelationID: correlationID, Results: results, Success: success}
}
