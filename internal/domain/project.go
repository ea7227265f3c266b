package domain

// Project categories shown on the projects page.
const (
	CategoryWebApps          = "Web Apps"
	CategoryMobileApps       = "Mobile Apps"
	CategoryChromeExtensions = "Chrome Extensions"
	CategoryOther            = "Other"
)

// Categories lists every accepted project category.
var Categories = []string{CategoryWebApps, CategoryMobileApps, CategoryChromeExtensions, CategoryOther}

// ValidCategory reports whether c is a known project category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Project is a portfolio entry.
type Project struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Technologies []string `json:"technologies"`
	Category     string   `json:"category"`
	Link         *string  `json:"link"`
	GitHub       *string  `json:"github"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := p
	out.Technologies = append([]string(nil), p.Technologies...)
	if p.Link != nil {
		link := *p.Link
		out.Link = &link
	}
	if p.GitHub != nil {
		gh := *p.GitHub
		out.GitHub = &gh
	}
	return out
}

// ProjectPatch carries a partial project update. Nil fields are left unchanged.
type ProjectPatch struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Image        *string   `json:"image"`
	Technologies *[]string `json:"technologies"`
	Category     *string   `json:"category"`
	Link         *string   `json:"link"`
	GitHub       *string   `json:"github"`
}

// Apply merges the patch into p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Technologies != nil {
		p.Technologies = append([]string(nil), (*pp.Technologies)...)
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Link != nil {
		p.Link = optional(*pp.Link)
	}
	if pp.GitHub != nil {
		p.GitHub = optional(*pp.GitHub)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	return optional(s)
}

// DefaultProjects returns the seed data used when the store is empty.
func DefaultProjects() []Project {
	return []Project{
		{
			ID:           1,
			Title:        "AI-Powered Analytics Dashboard",
			Description:  "Real-time analytics platform with machine learning insights",
			Image:        "https://images.unsplash.com/photo-1508873535684-277a3cbcc4e8",
			Technologies: []string{"React", "Python", "TensorFlow", "AWS"},
			Category:     CategoryWebApps,
			Link:         StringPtr("https://analytics.example.com"),
			GitHub:       StringPtr("https://github.com/example/analytics"),
		},
		{
			ID:           2,
			Title:        "Enterprise Resource Planning System",
			Description:  "Comprehensive ERP solution for business management",
			Image:        "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40",
			Technologies: []string{"TypeScript", "Node.js", "PostgreSQL", "Docker"},
			Category:     CategoryWebApps,
			Link:         StringPtr("https://erp.example.com"),
			GitHub:       StringPtr("https://github.com/example/erp"),
		},
		{
			ID:           3,
			Title:        "E-commerce Mobile App",
			Description:  "Cross-platform mobile shopping application",
			Image:        "https://images.unsplash.com/photo-1739514984003-330f7c1d2007",
			Technologies: []string{"React Native", "GraphQL", "MongoDB", "Firebase"},
			Category:     CategoryMobileApps,
			Link:         StringPtr("https://shop.example.com"),
			GitHub:       StringPtr("https://github.com/example/shop"),
		},
		{
			ID:           4,
			Title:        "Cloud Infrastructure Automation",
			Description:  "Infrastructure as code solution for cloud deployments",
			Image:        "https://images.unsplash.com/photo-1510759395231-72b17d622279",
			Technologies: []string{"Terraform", "AWS", "Kubernetes", "Go"},
			Category:     CategoryOther,
			Link:         StringPtr("https://infra.example.com"),
			GitHub:       StringPtr("https://github.com/example/infra"),
		},
		{
			ID:           5,
			Title:        "Tab Manager Pro",
			Description:  "Chrome extension for efficient tab management and organization",
			Image:        "https://images.unsplash.com/photo-1457305237443-44c3d5a30b89",
			Technologies: []string{"JavaScript", "Chrome API", "HTML", "CSS"},
			Category:     CategoryChromeExtensions,
			Link:         StringPtr("https://chrome.google.com/webstore/example"),
			GitHub:       StringPtr("https://github.com/example/tab-manager"),
		},
	}
}
