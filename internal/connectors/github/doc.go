// Package github lists a GitHub repository's file tree as a document
// hierarchy using the GitHub REST API.
package github
