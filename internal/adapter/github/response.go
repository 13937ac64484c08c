package github

import (
	"github.com/m-zajac/contribcount/internal/app"
)

type reposResponse []struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

func (r reposResponse) ToContainers() []app.Container {
	cs := make([]app.Container, 0, len(r))
	for _, repo := range r {
		cs = append(cs, app.Container{
			ID:   repo.FullName,
			Name: repo.Name,
		})
	}

	return cs
}

type commitsResponse []struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
	} `json:"commit"`
	Author *commitsResponseAuthor `json:"author"`
}

type commitsResponseAuthor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

func (r commitsResponse) ToCommits() []app.Commit {
	cs := make([]app.Commit, 0, len(r))
	for _, el := range r {
		c := app.Commit{
			AuthorName:  el.Commit.Author.Name,
			AuthorEmail: el.Commit.Author.Email,
		}
		if el.Author != nil {
			c.AuthorLogin = el.Author.Login
			c.AvatarURL = el.Author.AvatarURL
		}
		cs = append(cs, c)
	}

	return cs
}

type errorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
