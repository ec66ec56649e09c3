// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
)

// Repository is the subset of a GitHub repository listing the portfolio cares about.
// Values are taken verbatim from the API response and never mutated.
type Repository struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Topics      []string `json:"topics"`
	Language    *string  `json:"language"`
	HasPages    bool     `json:"has_pages"`
	Fork        bool     `json:"fork"`
}

// GetDescription returns the description, or "" if it is absent.
func (r Repository) GetDescription() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// GetLanguage returns the primary language, or "" if it is absent.
func (r Repository) GetLanguage() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// Profile identifies the owner of the portfolio.
type Profile struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// DisplayName returns the profile name, falling back to the login.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}

// PagesURL returns the GitHub Pages address of a project site.
func PagesURL(user, repo string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", user, repo)
}

// UserSiteName returns the name of the repository that hosts the user's own site.
func UserSiteName(user string) string {
	return strings.ToLower(user) + ".github.io"
}
