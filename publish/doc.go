// Package publish hands a finished application essay and its interview
// questions off to a destination: a markdown file, a Google Doc, or both.
package publish
