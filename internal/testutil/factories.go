// Package testutil provides fixture builders for tests. The builders
// produce realistic content documents without a running content store.
package testutil

import (
	"fmt"
	"strings"
	"time"

	"folio/internal/models"
	"folio/internal/portabletext"

	"github.com/brianvoe/gofakeit/v6"
)

// NewProject builds a project document with plausible field values.
func NewProject(overrides ...func(*models.Project)) models.Project {
	title := gofakeit.AppName()
	order := gofakeit.Number(1, 20)
	p := models.Project{
		ID:          gofakeit.UUID(),
		Title:       title,
		Slug:        models.Slug{Current: Slugify(title)},
		Type:        models.ProjectTypeProject,
		Description: gofakeit.Sentence(12),
		TechStack:   []string{"Go", "Redis", gofakeit.ProgrammingLanguage()},
		GithubURL:   fmt.Sprintf("https://github.com/%s/%s", gofakeit.Username(), Slugify(title)),
		Featured:    gofakeit.Bool(),
		Order:       &order,
	}
	for _, override := range overrides {
		override(&p)
	}
	return p
}

// NewBlogPost builds a blog post document with a short rendered body.
func NewBlogPost(overrides ...func(*models.BlogPost)) models.BlogPost {
	title := gofakeit.Sentence(5)
	post := models.BlogPost{
		ID:          gofakeit.UUID(),
		Title:       title,
		Slug:        models.Slug{Current: Slugify(title)},
		Excerpt:     gofakeit.Sentence(15),
		Tags:        []string{gofakeit.HackerNoun(), gofakeit.HackerNoun()},
		PublishedAt: gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
		Content: []portabletext.Block{
			{
				Type:  "block",
				Style: "normal",
				Children: []portabletext.Span{
					{Type: "span", Text: gofakeit.Paragraph(1, 3, 8, " ")},
				},
			},
		},
	}
	for _, override := range overrides {
		override(&post)
	}
	return post
}

// NewSubscriber builds a newsletter subscriber.
func NewSubscriber(overrides ...func(*models.Subscriber)) models.Subscriber {
	sub := models.Subscriber{
		ID:           gofakeit.UUID(),
		Email:        gofakeit.Email(),
		Name:         gofakeit.Name(),
		SubscribedAt: gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
	}
	for _, override := range overrides {
		override(&sub)
	}
	return sub
}

// Slugify lowercases and dashes a title the way the content studio
// generates slugs.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
