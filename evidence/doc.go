// Package evidence gathers the candidate's verifiable work so drafts can cite
// real projects instead of invented ones.
//
// Sources:
//   - GitHubSource: repositories and recent commits of a user (search API)
//   - GitLabSource: projects of a user, or those the token owns
//
// A Collector merges every source, newest first, and reuses the result for a
// TTL so the draft loop does not hit the APIs on every retry.
package evidence
