package audit

// Action enumerates every auditable privileged action. The set is closed:
// Recorder rejects any value not listed here, so a free-form string can
// never reach the store and break downstream querying.
type Action string

const (
	ActionSignIn             Action = "sign_in"
	ActionSignOut            Action = "sign_out"
	ActionUploadVoterRoster  Action = "upload_voter_roster"
	ActionReviewAspirant     Action = "review_aspirant"
	ActionVerifyPayment      Action = "verify_payment"
	ActionScheduleScreening  Action = "schedule_screening"
	ActionCompleteScreening  Action = "complete_screening"
	ActionPromoteCandidate   Action = "promote_candidate"
	ActionDisqualifyAspirant Action = "disqualify_aspirant"
	ActionAddCandidate       Action = "add_candidate"
	ActionEditCandidate      Action = "edit_candidate"
	ActionDeleteCandidate    Action = "delete_candidate"
	ActionCreatePosition     Action = "create_position"
	ActionUpdatePosition     Action = "update_position"
	ActionTogglePosition     Action = "toggle_position"
	ActionCreateTimeline     Action = "create_timeline"
	ActionUpdateTimeline     Action = "update_timeline"
	ActionToggleTimeline     Action = "toggle_timeline"
	ActionStartVoting        Action = "start_voting"
	ActionPauseVoting        Action = "pause_voting"
	ActionResumeVoting       Action = "resume_voting"
	ActionCloseVoting        Action = "close_voting"
	ActionPublishResults     Action = "publish_results"
	ActionRegisterVoter      Action = "register_voter"
	ActionCastVote           Action = "cast_vote"
)

var knownActions = map[Action]struct{}{
	ActionSignIn:             {},
	ActionSignOut:            {},
	ActionUploadVoterRoster:  {},
	ActionReviewAspirant:     {},
	ActionVerifyPayment:      {},
	ActionScheduleScreening:  {},
	ActionCompleteScreening:  {},
	ActionPromoteCandidate:   {},
	ActionDisqualifyAspirant: {},
	ActionAddCandidate:       {},
	ActionEditCandidate:      {},
	ActionDeleteCandidate:    {},
	ActionCreatePosition:     {},
	ActionUpdatePosition:     {},
	ActionTogglePosition:     {},
	ActionCreateTimeline:     {},
	ActionUpdateTimeline:     {},
	ActionToggleTimeline:     {},
	ActionStartVoting:        {},
	ActionPauseVoting:        {},
	ActionResumeVoting:       {},
	ActionCloseVoting:        {},
	ActionPublishResults:     {},
	ActionRegisterVoter:      {},
	ActionCastVote:           {},
}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}
