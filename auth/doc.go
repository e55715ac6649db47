// Package auth issues and checks the bearer tokens of the resumeflow HTTP API.
//
// Tokens are HS256 JWTs signed with the configured jwt_secret, issued by
// "resumeflow", and carry scopes:
//
//	cfg := auth.Config{Secret: []byte(secret)}
//	token, err := auth.Issue(cfg, "ci-bot", auth.ScopeRunsCreate)
//
//	router.Use(auth.Require(cfg, auth.ScopeRunsCreate, writeError))
package auth
