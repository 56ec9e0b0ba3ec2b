package models

// Karma policy constants. Each action adjusts the affected user's karma by a
// fixed amount; upvote removal undoes exactly what the upvote granted.
const (
	KarmaReportIssue  = 10
	KarmaUpvote       = 5
	KarmaResolveIssue = 15
)

// Leaderboard and listing caps
const (
	LeaderboardLimit = 20
	IssueListLimit   = 100
)
