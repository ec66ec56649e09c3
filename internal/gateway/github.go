// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pages-portfolio/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// perPage is the largest page size the repository listing endpoint accepts.
const perPage = 100

// ListOptions controls how repositories are listed.
type ListOptions struct {
	// AllPages walks page=1,2,... until an empty page is returned.
	// Otherwise a single page of up to 100 repositories is fetched.
	AllPages bool
	// Sort is passed through as the "sort" query parameter when set (e.g. "updated").
	Sort string
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchRepositories(ctx context.Context, user string, opts ListOptions) ([]domain.Repository, error)
	FetchProfile(ctx context.Context, user string) (*domain.Profile, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// profileQuery fetches the public identity of a user.
type profileQuery struct {
	User struct {
		Login string
		Name  string
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token yields an unauthenticated client; baseURL selects a GitHub Enterprise host.
func NewGitHubGateway(token, baseURL string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Minute, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if baseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient(graphqlURL(restClient.BaseURL), httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// FetchRepositories lists the public repositories owned by user.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, user string, opts ListOptions) ([]domain.Repository, error) {
	g.logger.Printf("Fetching repositories for user: %s\n", user)
	listOpts := &github.RepositoryListByUserOptions{
		Sort:        opts.Sort,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	if opts.AllPages {
		listOpts.Page = 1
	}

	repos := make([]domain.Repository, 0)
	for {
		result, _, err := g.restClient.Repositories.ListByUser(ctx, user, listOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for %s: %w", user, err)
		}
		for _, r := range result {
			repos = append(repos, toDomain(r))
		}
		if !opts.AllPages || len(result) == 0 {
			break
		}
		listOpts.Page++
		g.logger.Printf("  Fetching page %d of repositories...\n", listOpts.Page)
	}
	g.logger.Printf("Completed fetching %d repositories.\n", len(repos))
	return repos, nil
}

// FetchProfile looks up the user's login and display name. GraphQL requires a token.
func (g *GitHubGateway) FetchProfile(ctx context.Context, user string) (*domain.Profile, error) {
	g.logger.Printf("Fetching profile for user: %s\n", user)
	var q profileQuery
	variables := map[string]interface{}{"login": githubv4.String(user)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for profile: %w", err)
	}
	return &domain.Profile{Login: q.User.Login, Name: q.User.Name}, nil
}

// graphqlURL derives the GraphQL endpoint from a REST base URL:
// https://host/api/v3/ maps to https://host/api/graphql and
// https://api.host/ maps to https://api.host/graphql.
func graphqlURL(restBase *url.URL) string {
	u := *restBase
	u.Path = strings.TrimSuffix(u.Path, "v3/") + "graphql"
	return u.String()
}

func toDomain(r *github.Repository) domain.Repository {
	return domain.Repository{
		Name:        r.GetName(),
		Description: r.Description,
		Topics:      r.Topics,
		Language:    r.Language,
		HasPages:    r.GetHasPages(),
		Fork:        r.GetFork(),
	}
}
