package gitlab

import (
	"strconv"

	"github.com/m-zajac/contribcount/internal/app"
)

type projectsResponse []struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
}

func (r projectsResponse) ToContainers() []app.Container {
	cs := make([]app.Container, 0, len(r))
	for _, p := range r {
		cs = append(cs, app.Container{
			ID:   strconv.Itoa(p.ID),
			Name: p.Name,
		})
	}

	return cs
}

type commitsResponse []struct {
	ID          string `json:"id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

func (r commitsResponse) ToCommits() []app.Commit {
	cs := make([]app.Commit, 0, len(r))
	for _, el := range r {
		cs = append(cs, app.Commit{
			AuthorName:  el.AuthorName,
			AuthorEmail: el.AuthorEmail,
		})
	}

	return cs
}
