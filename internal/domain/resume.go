package domain

// Resume is the content behind the resume page.
type Resume struct {
	Name       string       `json:"name"`
	Title      string       `json:"title"`
	Email      string       `json:"email"`
	Location   string       `json:"location"`
	Summary    string       `json:"summary"`
	PDFURL     string       `json:"pdfUrl"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Honors     []Honor      `json:"honors"`
}

// Experience is one position on the resume.
type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Start      string   `json:"start"`
	End        string   `json:"end,omitempty"`
	Highlights []string `json:"highlights"`
}

// Education is one degree or program.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

// Honor is an award or recognition.
type Honor struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
}

// Clone returns a deep copy of r.
func (r Resume) Clone() Resume {
	out := r
	out.Skills = append([]string(nil), r.Skills...)
	out.Education = append([]Education(nil), r.Education...)
	out.Honors = append([]Honor(nil), r.Honors...)
	if r.Experience != nil {
		out.Experience = make([]Experience, len(r.Experience))
		for i, e := range r.Experience {
			e.Highlights = append([]string(nil), e.Highlights...)
			out.Experience[i] = e
		}
	}
	return out
}

// DefaultResume returns the placeholder resume written on first start.
func DefaultResume() Resume {
	return Resume{
		Name:       "Jonathan Mahrt",
		Title:      "Software Engineer",
		Summary:    "Software engineer building **web applications**, machine learning tools and browser extensions.",
		PDFURL:     "/resume.pdf",
		Skills:     []string{"TypeScript", "React", "Node.js", "Python", "Go", "AWS"},
		Experience: []Experience{},
		Education:  []Education{},
		Honors:     []Honor{},
	}
}
