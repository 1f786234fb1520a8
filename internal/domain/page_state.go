package domain

type PageState string

const (
	PageStateLoggedOut PageState = "logged_out"
	PageStateLoggedIn  PageState = "logged_in"
	PageStateUnknown   PageState = "unknown"
)

type ChallengeKind string

const (
	ChallengeNone     ChallengeKind = ""
	ChallengeMFA      ChallengeKind = "mfa"
	ChallengeBotCheck ChallengeKind = "bot_check"
)

// PageClassification is the result of one page inspection. It is never stored
// as truth beyond the check that produced it.
type PageClassification struct {
	State       PageState
	Challenge   ChallengeKind
	RateLimited bool
	URL         string
}

func (c PageClassification) NeedsOperator() bool {
	return c.Challenge != ChallengeNone
}

func (c PageClassification) LoggedIn() bool {
	return c.State == PageStateLoggedIn && !c.NeedsOperator()
}
