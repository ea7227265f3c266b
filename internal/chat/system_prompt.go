package chat

import (
	"fmt"
	"strings"

	"github.com/jmahrt/portfolio/internal/domain"
)

const systemPromptIntro = `You are Albert, an AI butler/concierge for a software engineer's portfolio website. Your role is to:
1. Help visitors navigate the website and find information
2. Answer questions about the portfolio owner's projects, skills, and experience
3. Provide detailed technical explanations when asked about specific projects
4. Maintain a professional yet friendly tone
5. Direct users to relevant sections of the website (e.g., /projects, /resume, /contact)

Here are the main sections of the website:
- Home (/): Overview and introduction
- Projects (/projects): Showcase of technical projects
- About (/about): Background, skills, and experience
- Resume (/resume): Detailed professional experience
- Contact (/contact): Contact form for reaching out`

const systemPromptOutro = "Always be helpful and guide users to the most relevant information based on their interests."

// BuildSystemPrompt renders the butler instruction with the given projects as context.
func BuildSystemPrompt(projects []domain.Project) string {
	var b strings.Builder
	b.WriteString(systemPromptIntro)
	b.WriteString("\n\n")

	if len(projects) > 0 {
		b.WriteString("Here are the projects in the portfolio:\n")
		for i, p := range projects {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Project: %s\n", p.Title)
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
			fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(p.Technologies, ", "))
			fmt.Fprintf(&b, "Category: %s\n", p.Category)
			if links := projectLinks(p); links != "" {
				fmt.Fprintf(&b, "Links: %s\n", links)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(systemPromptOutro)
	return b.String()
}

func projectLinks(p domain.Project) string {
	var parts []string
	if p.Link != nil && *p.Link != "" {
		parts = append(parts, "Demo: "+*p.Link)
	}
	if p.GitHub != nil && *p.GitHub != "" {
		parts = append(parts, "GitHub: "+*p.GitHub)
	}
	return strings.Join(parts, " ")
}
