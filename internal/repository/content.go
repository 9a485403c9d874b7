// Package repository implements the query catalog: the fixed set of
// named, parameterized read operations against the content store, each
// wrapped with request-scope memoization and time-window caching.
package repository

import (
	"context"
	"encoding/json"
	"sort"

	"folio/internal/cache"
	"folio/internal/models"
	"folio/internal/observability"
)

// Store is the content store surface the repositories depend on.
type Store interface {
	Fetch(ctx context.Context, query string, params map[string]any) (json.RawMessage, error)
	Create(ctx context.Context, doc map[string]any) error
}

// ContentRepository defines the read operations for site content.
// Singleton and detail lookups return nil without error when the
// document does not exist; "not authored yet" is not a failure.
type ContentRepository interface {
	GetPersonalInfo(ctx context.Context) (*models.PersonalInfo, error)
	GetAbout(ctx context.Context) (*models.About, error)
	GetResume(ctx context.Context) (*models.Resume, error)
	GetCertifications(ctx context.Context) ([]models.Certification, error)
	GetProjects(ctx context.Context, projectType string) ([]models.Project, error)
	GetFeaturedProjects(ctx context.Context) ([]models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	GetBlogPosts(ctx context.Context, limit int) ([]models.BlogPost, error)
	GetFeaturedBlogPosts(ctx context.Context) ([]models.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	GetBlogTags(ctx context.Context) ([]string, error)
}

// Every projection matches the shape the site renders, so all call
// sites see identical records. Filter values are always bound ($type,
// $slug, $limit), never spliced into the query text.
const (
	personalInfoQuery = `*[_type == "personalInfo"][0]{
  name, title, avatar, email, phone, location,
  socialLinks[]{ platform, url }
}`

	aboutQuery = `*[_type == "about"][0]{
  bio, skills,
  technologies[]{ category, items }
}`

	resumeQuery = `*[_type == "resume"][0]{
  experience[]{ title, company, location, startDate, endDate, current, description },
  education[]{ degree, institution, location, startDate, endDate, description },
  skills[]{ category, items }
}`

	certificationsQuery = `*[_type == "certification"] | order(date desc){
  _id, name, issuer, date, credentialUrl, logo, order
}`

	projectFields = `
  _id, title, slug, type, description, image,
  techStack, githubUrl, liveUrl, featured, order
`

	projectsQuery = `*[_type == "project"] | order(order asc){` + projectFields + `}`

	projectsByTypeQuery = `*[_type == "project" && type == $type] | order(order asc){` + projectFields + `}`

	featuredProjectsQuery = `*[_type == "project" && featured == true] | order(order asc){` + projectFields + `}[0...6]`

	projectBySlugQuery = `*[_type == "project" && slug.current == $slug][0]{` + projectFields + `}`

	blogPostFields = `
  _id, title, slug, excerpt, coverImage, tags, publishedAt, featured
`

	blogPostsQuery = `*[_type == "blogPost"] | order(publishedAt desc){` + blogPostFields + `}`

	blogPostsLimitQuery = `*[_type == "blogPost"] | order(publishedAt desc){` + blogPostFields + `}[0...$limit]`

	featuredBlogPostsQuery = `*[_type == "blogPost" && featured == true] | order(publishedAt desc){` + blogPostFields + `}[0...3]`

	blogPostBySlugQuery = `*[_type == "blogPost" && slug.current == $slug][0]{
  _id, title, slug, excerpt, content, coverImage, tags, publishedAt, featured
}`

	blogTagsQuery = `array::unique(*[_type == "blogPost"].tags[]) | order(@ asc)`
)

type contentRepository struct {
	store Store
	cache *cache.Cache
}

// NewContentRepository creates a content repository backed by the given
// store and cache.
func NewContentRepository(store Store, c *cache.Cache) ContentRepository {
	return &contentRepository{store: store, cache: c}
}

// memoized routes fn through the request scope when one is attached, so
// identical calls within one render collapse to a single fetch.
func memoized[T any](ctx context.Context, key string, fn func() (T, error)) (T, error) {
	scope := cache.ScopeFrom(ctx)
	if scope == nil {
		return fn()
	}
	v, err := scope.Do(key, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// fetchInto runs a catalog query and decodes the result. Store failures
// and undecodable responses both surface as upstream errors; a null
// result leaves dest untouched (absent document).
func (r *contentRepository) fetchInto(ctx context.Context, op, query string, params map[string]any, dest any) error {
	raw, err := r.store.Fetch(ctx, query, params)
	if err != nil {
		observability.NewQueryLogger(op).LogError(ctx, err)
		return models.NewUpstreamError(err)
	}
	// Only cache misses reach this point, so the volume stays low.
	observability.NewQueryLogger(op).LogFetch(ctx, map[string]interface{}{"bytes": len(raw)})
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return models.NewUpstreamError(err)
	}
	return nil
}

func (r *contentRepository) GetPersonalInfo(ctx context.Context) (*models.PersonalInfo, error) {
	return memoized(ctx, cache.KeyPersonalInfo, func() (*models.PersonalInfo, error) {
		var info *models.PersonalInfo
		err := r.cache.Aside(ctx, "personalInfo", cache.KeyPersonalInfo, &info, r.cache.ContentTTL(),
			[]string{cache.TagContent}, func() error {
				return r.fetchInto(ctx, "personalInfo", personalInfoQuery, nil, &info)
			})
		return info, err
	})
}

func (r *contentRepository) GetAbout(ctx context.Context) (*models.About, error) {
	return memoized(ctx, cache.KeyAbout, func() (*models.About, error) {
		var about *models.About
		err := r.cache.Aside(ctx, "about", cache.KeyAbout, &about, r.cache.ContentTTL(),
			[]string{cache.TagContent}, func() error {
				return r.fetchInto(ctx, "about", aboutQuery, nil, &about)
			})
		return about, err
	})
}

func (r *contentRepository) GetResume(ctx context.Context) (*models.Resume, error) {
	return memoized(ctx, cache.KeyResume, func() (*models.Resume, error) {
		var resume *models.Resume
		err := r.cache.Aside(ctx, "resume", cache.KeyResume, &resume, r.cache.ContentTTL(),
			[]string{cache.TagContent}, func() error {
				return r.fetchInto(ctx, "resume", resumeQuery, nil, &resume)
			})
		return resume, err
	})
}

func (r *contentRepository) GetCertifications(ctx context.Context) ([]models.Certification, error) {
	return memoized(ctx, cache.KeyCertifications, func() ([]models.Certification, error) {
		var certs []models.Certification
		err := r.cache.Aside(ctx, "certifications", cache.KeyCertifications, &certs, r.cache.ContentTTL(),
			[]string{cache.TagContent}, func() error {
				if err := r.fetchInto(ctx, "certifications", certificationsQuery, nil, &certs); err != nil {
					return err
				}
				sortCertifications(certs)
				return nil
			})
		return certs, err
	})
}

// sortCertifications orders by explicit order ascending; entries without
// an order sort after all ordered ones, newest date first. Ties keep
// store order.
func sortCertifications(certs []models.Certification) {
	sort.SliceStable(certs, func(i, j int) bool {
		a, b := certs[i], certs[j]
		switch {
		case a.Order != nil && b.Order != nil:
			return *a.Order < *b.Order
		case a.Order != nil:
			return true
		case b.Order != nil:
			return false
		default:
			return a.Date > b.Date
		}
	})
}

func (r *contentRepository) GetProjects(ctx context.Context, projectType string) ([]models.Project, error) {
	key := cache.ProjectsKey(projectType)
	return memoized(ctx, key, func() ([]models.Project, error) {
		var projects []models.Project
		err := r.cache.Aside(ctx, "projects", key, &projects, r.cache.ContentTTL(),
			[]string{cache.TagProjects}, func() error {
				query, params := projectsQuery, map[string]any(nil)
				if projectType != "" {
					query = projectsByTypeQuery
					params = map[string]any{"type": projectType}
				}
				return r.fetchInto(ctx, "projects", query, params, &projects)
			})
		return projects, err
	})
}

func (r *contentRepository) GetFeaturedProjects(ctx context.Context) ([]models.Project, error) {
	return memoized(ctx, cache.KeyFeaturedProjects, func() ([]models.Project, error) {
		var projects []models.Project
		err := r.cache.Aside(ctx, "featuredProjects", cache.KeyFeaturedProjects, &projects, r.cache.ContentTTL(),
			[]string{cache.TagProjects}, func() error {
				return r.fetchInto(ctx, "featuredProjects", featuredProjectsQuery, nil, &projects)
			})
		return projects, err
	})
}

func (r *contentRepository) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	key := cache.ProjectKey(slug)
	return memoized(ctx, key, func() (*models.Project, error) {
		var project *models.Project
		err := r.cache.Aside(ctx, "projectBySlug", key, &project, r.cache.ContentTTL(),
			[]string{cache.TagProjects}, func() error {
				return r.fetchInto(ctx, "projectBySlug", projectBySlugQuery,
					map[string]any{"slug": slug}, &project)
			})
		return project, err
	})
}

func (r *contentRepository) GetBlogPosts(ctx context.Context, limit int) ([]models.BlogPost, error) {
	key := cache.BlogPostsKey(limit)
	return memoized(ctx, key, func() ([]models.BlogPost, error) {
		var posts []models.BlogPost
		err := r.cache.Aside(ctx, "blogPosts", key, &posts, r.cache.ContentTTL(),
			[]string{cache.TagBlog}, func() error {
				query, params := blogPostsQuery, map[string]any(nil)
				if limit > 0 {
					query = blogPostsLimitQuery
					params = map[string]any{"limit": limit}
				}
				return r.fetchInto(ctx, "blogPosts", query, params, &posts)
			})
		return posts, err
	})
}

func (r *contentRepository) GetFeaturedBlogPosts(ctx context.Context) ([]models.BlogPost, error) {
	return memoized(ctx, cache.KeyFeaturedPosts, func() ([]models.BlogPost, error) {
		var posts []models.BlogPost
		err := r.cache.Aside(ctx, "featuredBlogPosts", cache.KeyFeaturedPosts, &posts, r.cache.ContentTTL(),
			[]string{cache.TagBlog}, func() error {
				return r.fetchInto(ctx, "featuredBlogPosts", featuredBlogPostsQuery, nil, &posts)
			})
		return posts, err
	})
}

func (r *contentRepository) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	key := cache.BlogPostKey(slug)
	return memoized(ctx, key, func() (*models.BlogPost, error) {
		var post *models.BlogPost
		err := r.cache.Aside(ctx, "blogPostBySlug", key, &post, r.cache.ContentTTL(),
			[]string{cache.TagBlog}, func() error {
				return r.fetchInto(ctx, "blogPostBySlug", blogPostBySlugQuery,
					map[string]any{"slug": slug}, &post)
			})
		return post, err
	})
}

func (r *contentRepository) GetBlogTags(ctx context.Context) ([]string, error) {
	return memoized(ctx, cache.KeyBlogTags, func() ([]string, error) {
		var tags []string
		err := r.cache.Aside(ctx, "blogTags", cache.KeyBlogTags, &tags, r.cache.ContentTTL(),
			[]string{cache.TagBlog}, func() error {
				// The store computes the distinct sorted set; no
				// client-side re-sort needed.
				return r.fetchInto(ctx, "blogTags", blogTagsQuery, nil, &tags)
			})
		return tags, err
	})
}
