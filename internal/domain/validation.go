package domain

import (
	"net/url"
	"strings"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the required project fields.
func (p *Project) Validate() []FieldError {
	var errs []FieldError
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: field, Message: "Required"})
		}
	}
	required("title", p.Title)
	required("description", p.Description)
	required("image", p.Image)
	if p.Technologies == nil {
		errs = append(errs, FieldError{Field: "technologies", Message: "Required"})
	}
	if !ValidCategory(p.Category) {
		errs = append(errs, FieldError{Field: "category", Message: "Must be one of: " + strings.Join(Categories, ", ")})
	}
	if p.Link != nil && !validURL(*p.Link) {
		errs = append(errs, FieldError{Field: "link", Message: "Invalid url"})
	}
	if p.GitHub != nil && !validURL(*p.GitHub) {
		errs = append(errs, FieldError{Field: "github", Message: "Invalid url"})
	}
	return errs
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
