// Package models defines the content entities served by the API and the
// application error taxonomy.
package models

import (
	"time"

	"folio/internal/portabletext"
)

// Slug is the URL-safe identifier wrapper used by the content store.
type Slug struct {
	Current string `json:"current"`
}

// Image is a reference to an asset stored in the content store's CDN.
// The raw reference is resolved to a fetchable URL by the image builder.
type Image struct {
	Asset struct {
		Ref string `json:"_ref"`
	} `json:"asset"`
}

// SocialLink is an external profile link on the home page.
type SocialLink struct {
	Platform string `json:"platform"` // github, linkedin, twitter, portfolio
	URL      string `json:"url"`
}

// PersonalInfo is the singleton profile document. At most one exists;
// a nil value means the content has not been authored yet.
type PersonalInfo struct {
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Avatar      *Image       `json:"avatar,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Location    string       `json:"location,omitempty"`
	SocialLinks []SocialLink `json:"socialLinks,omitempty"`
}

// TechnologyCategory groups technology names under a heading.
type TechnologyCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// About is the singleton bio document.
type About struct {
	Bio          []portabletext.Block `json:"bio"`
	Skills       []string             `json:"skills,omitempty"`
	Technologies []TechnologyCategory `json:"technologies,omitempty"`
}

// Experience is one work history entry on the resume.
type Experience struct {
	Title       string               `json:"title"`
	Company     string               `json:"company"`
	Location    string               `json:"location,omitempty"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate,omitempty"`
	Current     bool                 `json:"current"`
	Description []portabletext.Block `json:"description,omitempty"`
}

// Education is one education entry on the resume.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// SkillCategory groups skill names under a heading.
type SkillCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Resume is the singleton resume document.
type Resume struct {
	Experience []Experience    `json:"experience,omitempty"`
	Education  []Education     `json:"education,omitempty"`
	Skills     []SkillCategory `json:"skills,omitempty"`
}

// Certification is an earned credential. Order is an optional explicit
// sort key; entries without one sort after those with one.
type Certification struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Issuer        string `json:"issuer"`
	Date          string `json:"date"`
	CredentialURL string `json:"credentialUrl,omitempty"`
	Logo          *Image `json:"logo,omitempty"`
	Order         *int   `json:"order,omitempty"`
}

// Project type discriminator values.
const (
	ProjectTypeProject = "project"
	ProjectTypeLab     = "lab"
)

// Project is a portfolio entry, either a full project or a lab experiment.
type Project struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Slug        Slug     `json:"slug"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Image       *Image   `json:"image,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
	GithubURL   string   `json:"githubUrl,omitempty"`
	LiveURL     string   `json:"liveUrl,omitempty"`
	Featured    bool     `json:"featured"`
	Order       *int     `json:"order,omitempty"`
}

// BlogPost is a published article. Content is only projected on the
// detail lookup; list queries leave it nil.
type BlogPost struct {
	ID          string               `json:"_id"`
	Title       string               `json:"title"`
	Slug        Slug                 `json:"slug"`
	Excerpt     string               `json:"excerpt"`
	Content     []portabletext.Block `json:"content,omitempty"`
	CoverImage  *Image               `json:"coverImage,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	PublishedAt time.Time            `json:"publishedAt"`
	Featured    bool                 `json:"featured"`
}

// Subscriber is a newsletter signup. Write-only from the site's
// perspective except for the aggregate count.
type Subscriber struct {
	ID           string    `json:"_id,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
